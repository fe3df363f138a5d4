package handler // positions.go holds the /positions endpoints of BoatHandler

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // echo request context

	"github.com/pier11/marina-map/internal/model" // request bodies
)

// ListPositions handles GET /positions/map/:map_id and returns a page of the map's positions
func (h *BoatHandler) ListPositions(c echo.Context) error {
	mapID, err := pathID(c, "map_id") // parse the map id from the URL
	if err != nil {
		return err // 422 for a non-numeric id
	}
	page, err := pageParams(c) // skip/limit from the query string
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c) // bound DB work
	defer cancel()

	positions, err := h.Boats.ListPositions(ctx, mapID, page) // 404 when the map is missing
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, positions)
}

// GetPosition handles GET /positions/:id
func (h *BoatHandler) GetPosition(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Boats.GetPosition(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// CreatePosition handles POST /positions; omitted geometry and styling take their defaults
func (h *BoatHandler) CreatePosition(c echo.Context) error {
	var req model.PositionCreate
	if err := bindBody(c, &req); err != nil { // decode, normalize colors, validate
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Boats.CreatePosition(ctx, req) // the map must exist
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdatePosition handles PUT /positions/:id; a position never moves to another map
func (h *BoatHandler) UpdatePosition(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req model.PositionUpdate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Boats.UpdatePosition(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// DeletePosition handles DELETE /positions/:id; a boat holding the position is unpaired, not deleted
func (h *BoatHandler) DeletePosition(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Boats.DeletePosition(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Message: "Position deleted successfully"})
}

// MapBoats handles GET /maps/:id/boats and returns each paired {boat, position} on the map
func (h *BoatHandler) MapBoats(c echo.Context) error {
	mapID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	entries, err := h.Boats.MapBoats(ctx, mapID) // 404 when the map is missing
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
