package model

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// Field domains shared by request validation and the admin CLI.
var (
	Sections        = []string{"A", "B", "C", "D", "E", "F"}
	Palette         = []string{"red", "blue", "green", "yellow", "orange", "purple", "pink", "brown", "gray", "black", "white", "navy", "teal", "lime", "maroon", "olive", "silver", "aqua", "fuchsia"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}
)

// Position and map defaults applied when a create request omits a field.
const (
	DefaultX           = 200
	DefaultY           = 200
	DefaultWidth       = 100
	DefaultHeight      = 50
	DefaultColor       = "blue"
	DefaultStrokeColor = "black"
	DefaultStrokeWidth = 1
	DefaultImageWidth  = 794
	DefaultImageHeight = 1123
)

func IsSection(s string) bool { return slices.Contains(Sections, s) }

func IsPaletteColor(s string) bool { return slices.Contains(Palette, s) }

func HasImageExtension(path string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// PasswordProblem describes why pw is too weak, or returns "" when it is
// acceptable.
func PasswordProblem(pw string) string {
	if len(pw) < 8 {
		return "password must be at least 8 characters long"
	}
	if len(pw) > 100 {
		return "password must be at most 100 characters long"
	}
	var digit, lower, upper bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	switch {
	case !digit:
		return "password must contain at least one digit"
	case !lower:
		return "password must contain at least one lowercase letter"
	case !upper:
		return "password must contain at least one uppercase letter"
	}
	return ""
}

// BoatCreate is the POST /boats body.
type BoatCreate struct {
	Index        int     `json:"index" validate:"required,gt=0"`
	Name         *string `json:"name" validate:"omitnil,max=100"`
	CustomerName string  `json:"customer_name" validate:"required,max=100"`
	Size         *string `json:"size" validate:"omitnil,max=50"`
	MakeModel    *string `json:"make_model" validate:"omitnil,max=100"`
	VehicleType  *string `json:"vehicle_type" validate:"omitnil,max=50"`
	Section      *string `json:"section" validate:"omitnil,section"`
	Notes        *string `json:"notes"`
}

func (in *BoatCreate) Normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Section = normalizeSection(in.Section)
}

// ToListing builds an unpaired listing from the request.
func (in BoatCreate) ToListing() *BoatListing {
	return &BoatListing{
		Index:        in.Index,
		Name:         blankToNil(in.Name),
		CustomerName: in.CustomerName,
		Size:         blankToNil(in.Size),
		MakeModel:    blankToNil(in.MakeModel),
		VehicleType:  blankToNil(in.VehicleType),
		Section:      blankToNil(in.Section),
		Notes:        blankToNil(in.Notes),
	}
}

// BoatUpdate is the PUT /boats/{id} body. Nil fields are left unchanged;
// an empty string clears an optional field.
type BoatUpdate struct {
	Index        *int    `json:"index" validate:"omitnil,gt=0"`
	Name         *string `json:"name" validate:"omitnil,max=100"`
	CustomerName *string `json:"customer_name" validate:"omitnil,min=1,max=100"`
	Size         *string `json:"size" validate:"omitnil,max=50"`
	MakeModel    *string `json:"make_model" validate:"omitnil,max=100"`
	VehicleType  *string `json:"vehicle_type" validate:"omitnil,max=50"`
	Section      *string `json:"section" validate:"omitnil,section"`
	Notes        *string `json:"notes"`
}

func (in *BoatUpdate) Normalize() {
	if in.CustomerName != nil {
		v := strings.TrimSpace(*in.CustomerName)
		in.CustomerName = &v
	}
	if in.Section != nil {
		v := strings.ToUpper(strings.TrimSpace(*in.Section))
		in.Section = &v
	}
}

// Apply copies the set fields onto b. Pairing fields are never touched.
func (in BoatUpdate) Apply(b *BoatListing) {
	if in.Index != nil {
		b.Index = *in.Index
	}
	if in.CustomerName != nil {
		b.CustomerName = *in.CustomerName
	}
	applyOptional(&b.Name, in.Name)
	applyOptional(&b.Size, in.Size)
	applyOptional(&b.MakeModel, in.MakeModel)
	applyOptional(&b.VehicleType, in.VehicleType)
	applyOptional(&b.Section, in.Section)
	applyOptional(&b.Notes, in.Notes)
}

// PositionCreate is the POST /positions body.
type PositionCreate struct {
	MapID       uint64   `json:"map_id" validate:"required,gt=0"`
	X           *float64 `json:"x" validate:"omitnil,gte=0"`
	Y           *float64 `json:"y" validate:"omitnil,gte=0"`
	Width       *float64 `json:"width" validate:"omitnil,gt=0"`
	Height      *float64 `json:"height" validate:"omitnil,gt=0"`
	Rotation    *float64 `json:"rotation" validate:"omitnil,gte=-360,lte=360"`
	Color       *string  `json:"color" validate:"omitnil,palette"`
	StrokeColor *string  `json:"stroke_color" validate:"omitnil,palette"`
	StrokeWidth *float64 `json:"stroke_width" validate:"omitnil,gt=0"`
	IsVisible   *bool    `json:"is_visible"`
}

func (in *PositionCreate) Normalize() {
	in.Color = lowerTrim(in.Color)
	in.StrokeColor = lowerTrim(in.StrokeColor)
}

// ToPosition fills omitted fields with their defaults.
func (in PositionCreate) ToPosition() *BoatPosition {
	p := &BoatPosition{
		MapID:       in.MapID,
		X:           DefaultX,
		Y:           DefaultY,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Color:       DefaultColor,
		StrokeColor: DefaultStrokeColor,
		StrokeWidth: DefaultStrokeWidth,
		IsVisible:   true,
	}
	PositionUpdate{
		X: in.X, Y: in.Y, Width: in.Width, Height: in.Height, Rotation: in.Rotation,
		Color: in.Color, StrokeColor: in.StrokeColor, StrokeWidth: in.StrokeWidth, IsVisible: in.IsVisible,
	}.Apply(p)
	return p
}

// PositionUpdate is the PUT /positions/{id} body. A position cannot move
// between maps.
type PositionUpdate struct {
	X           *float64 `json:"x" validate:"omitnil,gte=0"`
	Y           *float64 `json:"y" validate:"omitnil,gte=0"`
	Width       *float64 `json:"width" validate:"omitnil,gt=0"`
	Height      *float64 `json:"height" validate:"omitnil,gt=0"`
	Rotation    *float64 `json:"rotation" validate:"omitnil,gte=-360,lte=360"`
	Color       *string  `json:"color" validate:"omitnil,palette"`
	StrokeColor *string  `json:"stroke_color" validate:"omitnil,palette"`
	StrokeWidth *float64 `json:"stroke_width" validate:"omitnil,gt=0"`
	IsVisible   *bool    `json:"is_visible"`
}

func (in *PositionUpdate) Normalize() {
	in.Color = lowerTrim(in.Color)
	in.StrokeColor = lowerTrim(in.StrokeColor)
}

func (in PositionUpdate) Apply(p *BoatPosition) {
	setIf(&p.X, in.X)
	setIf(&p.Y, in.Y)
	setIf(&p.Width, in.Width)
	setIf(&p.Height, in.Height)
	setIf(&p.Rotation, in.Rotation)
	setIf(&p.Color, in.Color)
	setIf(&p.StrokeColor, in.StrokeColor)
	setIf(&p.StrokeWidth, in.StrokeWidth)
	setIf(&p.IsVisible, in.IsVisible)
}

// MapCreate is the POST /maps body.
type MapCreate struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
	ImagePath   string  `json:"image_path" validate:"required,image_ext"`
	ImageWidth  *int    `json:"image_width" validate:"omitnil,gt=0"`
	ImageHeight *int    `json:"image_height" validate:"omitnil,gt=0"`
	IsActive    *bool   `json:"is_active"`
}

func (in *MapCreate) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.ImagePath = strings.TrimSpace(in.ImagePath)
}

func (in MapCreate) ToMap() *Map {
	m := &Map{
		Name:        in.Name,
		Description: blankToNil(in.Description),
		ImagePath:   in.ImagePath,
		ImageWidth:  DefaultImageWidth,
		ImageHeight: DefaultImageHeight,
		IsActive:    true,
	}
	setIf(&m.ImageWidth, in.ImageWidth)
	setIf(&m.ImageHeight, in.ImageHeight)
	setIf(&m.IsActive, in.IsActive)
	return m
}

// MapUpdate is the PUT /maps/{id} body.
type MapUpdate struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description"`
	ImagePath   *string `json:"image_path" validate:"omitnil,image_ext"`
	ImageWidth  *int    `json:"image_width" validate:"omitnil,gt=0"`
	ImageHeight *int    `json:"image_height" validate:"omitnil,gt=0"`
	IsActive    *bool   `json:"is_active"`
}

func (in *MapUpdate) Normalize() {
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		in.Name = &v
	}
}

func (in MapUpdate) Apply(m *Map) {
	setIf(&m.Name, in.Name)
	applyOptional(&m.Description, in.Description)
	setIf(&m.ImagePath, in.ImagePath)
	setIf(&m.ImageWidth, in.ImageWidth)
	setIf(&m.ImageHeight, in.ImageHeight)
	setIf(&m.IsActive, in.IsActive)
}

// UserCreate is the POST /auth/register body.
type UserCreate struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff"`
}

func (in *UserCreate) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if in.Role == "" {
		in.Role = string(RoleStaff)
	}
}

// UserUpdate is the PUT /auth/users/{id} body.
type UserUpdate struct {
	FullName *string `json:"full_name" validate:"omitnil,min=1,max=100"`
	Password *string `json:"password" validate:"omitnil,password"`
	Role     *string `json:"role" validate:"omitnil,oneof=admin staff"`
	IsActive *bool   `json:"is_active"`
}

func (in *UserUpdate) Normalize() {
	if in.FullName != nil {
		v := strings.TrimSpace(*in.FullName)
		in.FullName = &v
	}
	in.Role = lowerTrim(in.Role)
}

func normalizeSection(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}

func lowerTrim(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	return &v
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func applyOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	*dst = blankToNil(src)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

