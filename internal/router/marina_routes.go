package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pier11/marina-map/internal/handler"
	"github.com/pier11/marina-map/internal/middleware"
	"github.com/pier11/marina-map/internal/model"
)

// RegisterMaps registers /maps on an authenticated group. Any signed-in
// user may read; creating, editing and deleting maps needs admin.
func RegisterMaps(g *echo.Group, h *handler.MapHandler, auth middleware.Authenticator) {
	admin := middleware.RequireRole(auth, model.RoleAdmin)

	g.GET("/maps", h.List)
	g.GET("/maps/:id", h.Get)
	g.GET("/maps/:id/boat-count", h.BoatCount)
	g.POST("/maps", h.Create, admin)
	g.PUT("/maps/:id", h.Update, admin)
	g.DELETE("/maps/:id", h.Delete, admin)
}

// RegisterBoats registers /boats on an authenticated group. Staff may
// manage listings and their assignments.
func RegisterBoats(g *echo.Group, h *handler.BoatHandler) {
	g.GET("/boats", h.List)
	g.POST("/boats", h.Create)
	g.GET("/boats/index/:index", h.GetByIndex)
	g.GET("/boats/:id", h.Get)
	g.PUT("/boats/:id", h.Update)
	g.DELETE("/boats/:id", h.Delete)
	g.POST("/boats/:id/assign/:position_id", h.Assign)
	g.POST("/boats/:id/unassign", h.Unassign)
}

// RegisterPositions registers /positions on an authenticated group.
func RegisterPositions(g *echo.Group, h *handler.BoatHandler) {
	g.GET("/positions/map/:map_id", h.ListPositions)
	g.GET("/maps/:id/boats", h.MapBoats)
	g.POST("/positions", h.CreatePosition)
	g.GET("/positions/:id", h.GetPosition)
	g.PUT("/positions/:id", h.UpdatePosition)
	g.DELETE("/positions/:id", h.DeletePosition)
}
