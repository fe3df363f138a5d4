package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/service"
)

// MapHandler serves /maps. Reads are open to every signed-in user;
// writes are routed behind the admin role.
type MapHandler struct {
	Maps *service.MapService
}

func NewMapHandler(maps *service.MapService) *MapHandler {
	return &MapHandler{Maps: maps}
}

type mapDeleteResp struct {
	Message string                   `json:"message"`
	Outcome service.MapDeleteOutcome `json:"outcome"`
}

// List: GET /maps?skip=&limit=&active_only=
func (h *MapHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}
	activeOnly := true
	if v, err := boolParam(c, "active_only"); err != nil {
		return err
	} else if v != nil {
		activeOnly = *v
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	maps, err := h.Maps.List(ctx, page, activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, maps)
}

// BoatCount: GET /maps/:id/boat-count
func (h *MapHandler) BoatCount(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Maps.BoatCount(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"map_id": id, "boat_count": n})
}

// Get: GET /maps/:id with paired boats and positions.
func (h *MapHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	detail, err := h.Maps.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *MapHandler) Create(c echo.Context) error {
	var req model.MapCreate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	m, err := h.Maps.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MapHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req model.MapUpdate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	m, err := h.Maps.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MapHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	outcome, err := h.Maps.Delete(ctx, id)
	if err != nil {
		return err
	}
	msg := "Map deleted successfully"
	if outcome == service.MapDeactivated {
		msg = "Map deactivated; its positions were kept"
	}
	return c.JSON(http.StatusOK, mapDeleteResp{Message: msg, Outcome: outcome})
}
