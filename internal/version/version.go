package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Name is reported by the root endpoint and the CLI.
const Name = "Pier 11 Marina Interactive Map API"

// Get returns the current version of the application
func Get() string {
	return strings.TrimSpace(raw)
}
