package version

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	v := Get()
	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d+\.\d+$`), v)
	assert.Equal(t, v, Get())
}
