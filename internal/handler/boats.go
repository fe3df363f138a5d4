package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/repository"
	"github.com/pier11/marina-map/internal/service"
)

// BoatHandler serves /boats and /positions. Both resources live in
// BoatService because the pairing between them is one workflow.
type BoatHandler struct {
	Boats *service.BoatService
}

func NewBoatHandler(boats *service.BoatService) *BoatHandler {
	return &BoatHandler{Boats: boats}
}

// List: GET /boats?skip=&limit=&search=&mapped_only=&section=
func (h *BoatHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}
	mapped, err := boolParam(c, "mapped_only")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	boats, err := h.Boats.ListBoats(ctx, repository.BoatFilter{
		Search:     c.QueryParam("search"),
		MappedOnly: mapped,
		Section:    c.QueryParam("section"),
		Page:       page,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, boats)
}

func (h *BoatHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Boats.GetBoat(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// GetByIndex: GET /boats/index/:index
func (h *BoatHandler) GetByIndex(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return invalid("index: must be an integer")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Boats.GetBoatByIndex(ctx, index)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BoatHandler) Create(c echo.Context) error {
	var req model.BoatCreate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Boats.CreateBoat(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BoatHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req model.BoatUpdate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Boats.UpdateBoat(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// Delete removes the listing and any position it holds.
func (h *BoatHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Boats.DeleteBoat(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Message: "Boat deleted successfully"})
}

// Assign: POST /boats/:id/assign/:position_id
func (h *BoatHandler) Assign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	positionID, err := pathID(c, "position_id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Boats.Assign(ctx, id, positionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// Unassign: POST /boats/:id/unassign
func (h *BoatHandler) Unassign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Boats.Unassign(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}
