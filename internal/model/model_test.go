package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("staff")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, r)

	_, err = ParseRole("owner")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRoleSatisfies(t *testing.T) {
	assert.True(t, RoleAdmin.Satisfies(RoleAdmin))
	assert.True(t, RoleAdmin.Satisfies(RoleStaff))
	assert.True(t, RoleStaff.Satisfies(RoleStaff))
	assert.False(t, RoleStaff.Satisfies(RoleAdmin))
	assert.False(t, Role("superuser").Satisfies(RoleStaff))
}

func TestBoatListingJSONDerivesIsMapped(t *testing.T) {
	pid := uint64(3)
	for _, tc := range []struct {
		name   string
		boat   BoatListing
		mapped bool
	}{
		{"unpaired", BoatListing{ID: 1, Index: 7, CustomerName: "John"}, false},
		{"paired", BoatListing{ID: 2, Index: 8, CustomerName: "Ann", PositionID: &pid}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(&tc.boat)
			require.NoError(t, err)
			var out map[string]any
			require.NoError(t, json.Unmarshal(raw, &out))
			assert.Equal(t, tc.mapped, out["is_mapped"])
			assert.Equal(t, tc.mapped, out["position_id"] != nil)
			assert.EqualValues(t, tc.boat.Index, out["index"])
		})
	}
}

func TestPasswordProblem(t *testing.T) {
	assert.Empty(t, PasswordProblem("Harbour9"))
	assert.Contains(t, PasswordProblem("Short1"), "at least 8")
	assert.Contains(t, PasswordProblem("nodigitsHere"), "digit")
	assert.Contains(t, PasswordProblem("ALLUPPER123"), "lowercase")
	assert.Contains(t, PasswordProblem("alllower123"), "uppercase")
}

func TestPositionCreateDefaults(t *testing.T) {
	x := 100.0
	color := "RED "
	in := PositionCreate{MapID: 4, X: &x, Color: &color}
	in.Normalize()
	p := in.ToPosition()

	assert.Equal(t, uint64(4), p.MapID)
	assert.Equal(t, 100.0, p.X)
	assert.Equal(t, 200.0, p.Y)
	assert.Equal(t, 100.0, p.Width)
	assert.Equal(t, 50.0, p.Height)
	assert.Equal(t, "red", p.Color)
	assert.Equal(t, "black", p.StrokeColor)
	assert.Equal(t, 1.0, p.StrokeWidth)
	assert.True(t, p.IsVisible)
}

func TestBoatUpdateApplyClearsBlankOptional(t *testing.T) {
	notes := "old"
	b := &BoatListing{Index: 1, CustomerName: "John", Notes: &notes}
	empty, section := "", "c"
	in := BoatUpdate{Notes: &empty, Section: &section}
	in.Normalize()
	in.Apply(b)

	assert.Nil(t, b.Notes)
	require.NotNil(t, b.Section)
	assert.Equal(t, "C", *b.Section)
	assert.Equal(t, "John", b.CustomerName)
}

func TestMapCreateDefaults(t *testing.T) {
	in := MapCreate{Name: "  Dock A ", ImagePath: "maps/dock-a.PNG"}
	in.Normalize()
	m := in.ToMap()
	assert.Equal(t, "Dock A", m.Name)
	assert.Equal(t, 794, m.ImageWidth)
	assert.Equal(t, 1123, m.ImageHeight)
	assert.True(t, m.IsActive)
	assert.True(t, HasImageExtension(m.ImagePath))
	assert.False(t, HasImageExtension("maps/dock-a.tiff"))
}
