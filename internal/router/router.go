package router // package router builds the echo instance and registers every route

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/config"
	"github.com/pier11/marina-map/internal/handler"
	"github.com/pier11/marina-map/internal/metrics"
	"github.com/pier11/marina-map/internal/middleware"
	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/service"
	"github.com/pier11/marina-map/internal/validate"
)

// Deps are the collaborators the HTTP surface needs. Metrics and Redis
// may be nil, which disables /metrics and rate limiting respectively.
type Deps struct {
	Config  config.Config
	DB      *sql.DB
	Auth    *service.AuthService
	Maps    *service.MapService
	Boats   *service.BoatService
	Metrics *metrics.Metrics
	Redis   *redis.Client
	Log     *zap.Logger
}

// New returns a fully wired echo instance.
//
// Middleware order: trailing-slash rewrite, recover, request id, metrics,
// access log, CORS. Auth and rate limiting are applied per group.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(middleware.RequestLogger(d.Log))
	if len(d.Config.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     d.Config.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderOrigin},
		}))
	}

	RegisterRoutes(e, handler.NewHealthHandler(d.DB, d.Config.APIPrefix), d.Metrics)

	limiter := middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Log)
	api := e.Group(d.Config.APIPrefix)
	RegisterAuth(api, handler.NewAuthHandler(d.Auth), d.Auth, limiter)

	// Everything below requires a bearer token. The limiter runs after
	// JWTAuth so buckets are keyed by user.
	protected := api.Group("", middleware.JWTAuth(d.Auth), limiter)
	RegisterMaps(protected, handler.NewMapHandler(d.Maps), d.Auth)
	boats := handler.NewBoatHandler(d.Boats)
	RegisterBoats(protected, boats)
	RegisterPositions(protected, boats)
	return e
}

// RegisterRoutes registers the unauthenticated status endpoints and, when
// metrics are enabled, the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, m *metrics.Metrics) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Healthz)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers /auth. Login and refresh work without a session;
// everything else needs a bearer token, and user administration needs
// admin.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, auth middleware.Authenticator, limiter echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)

	session := g.Group("", middleware.JWTAuth(auth), limiter)
	session.GET("/me", a.Me)
	session.POST("/logout", a.Logout)

	admin := session.Group("", middleware.RequireRole(auth, model.RoleAdmin))
	admin.POST("/register", a.Register)
	admin.GET("/users", a.ListUsers)
	admin.PUT("/users/:id", a.UpdateUser)
}
