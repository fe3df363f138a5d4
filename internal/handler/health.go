package handler // declare the package name; contains HTTP handlers

import (
	"database/sql" // database handle pinged by the readiness probe
	"net/http"     // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project

	"github.com/pier11/marina-map/internal/version"
)

// HealthHandler serves the unauthenticated status endpoints used by load
// balancers and monitoring systems.
type HealthHandler struct {
	DB        *sql.DB
	APIPrefix string
}

func NewHealthHandler(db *sql.DB, apiPrefix string) *HealthHandler {
	return &HealthHandler{DB: db, APIPrefix: apiPrefix}
}

// Root reports the service name and version.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": version.Name,
		"version": version.Get(),
		"status":  "healthy",
	})
}

// Health is the detailed status document.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "healthy",
		"version":    version.Get(),
		"api_prefix": h.APIPrefix,
	})
}

// Healthz is the readiness probe: plain "ok" while the database answers,
// 503 otherwise.
func (h *HealthHandler) Healthz(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.String(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status; String writes plain text
}
