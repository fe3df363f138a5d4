package model

import (
	"encoding/json"
	"time"
)

// Map is a scanned marina map image that positions are drawn on.
type Map struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ImagePath   string     `json:"image_path"`
	ImageWidth  int        `json:"image_width"`
	ImageHeight int        `json:"image_height"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// MapWithCount decorates a map with the number of positions on it.
type MapWithCount struct {
	Map
	BoatCount int `json:"boat_count"`
}

// MapDetail is the GET /maps/{id} payload.
type MapDetail struct {
	Map       MapWithCount       `json:"map"`
	Boats     []BoatWithPosition `json:"boats"`
	Positions []*BoatPosition    `json:"positions"`
}

// BoatListing is an inventory record for a boat, trailer or jetski.
// A listing is mapped exactly when PositionID is set; IsMapped is derived
// and never stored.
type BoatListing struct {
	ID           uint64     `json:"id"`
	Index        int        `json:"index"`
	Name         *string    `json:"name"`
	CustomerName string     `json:"customer_name"`
	Size         *string    `json:"size"`
	MakeModel    *string    `json:"make_model"`
	VehicleType  *string    `json:"vehicle_type"`
	Section      *string    `json:"section"`
	Notes        *string    `json:"notes"`
	PositionID   *uint64    `json:"position_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// IsMapped reports whether the listing currently holds a position.
func (b BoatListing) IsMapped() bool {
	return b.PositionID != nil
}

func (b BoatListing) MarshalJSON() ([]byte, error) {
	type plain BoatListing
	return json.Marshal(struct {
		plain
		IsMapped bool `json:"is_mapped"`
	}{plain(b), b.IsMapped()})
}

// BoatPosition is a rectangle placed on a map canvas.
type BoatPosition struct {
	ID          uint64     `json:"id"`
	MapID       uint64     `json:"map_id"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	Rotation    float64    `json:"rotation"`
	Color       string     `json:"color"`
	StrokeColor string     `json:"stroke_color"`
	StrokeWidth float64    `json:"stroke_width"`
	IsVisible   bool       `json:"is_visible"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// BoatWithPosition is the composite listing view: the boat is always
// present, the position only when the boat is mapped.
type BoatWithPosition struct {
	Boat     *BoatListing  `json:"boat"`
	Position *BoatPosition `json:"position"`
}
