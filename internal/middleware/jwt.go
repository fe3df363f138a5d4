package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/service"
)

// Authenticator resolves bearer tokens and checks roles.
// *service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, error)
	Authorize(u *model.User, required model.Role) error
}

// JWTAuth requires a valid "Authorization: Bearer <token>" header. The
// resolved user is stored on the echo context (see CurrentUser) and on
// the request context for services (see service.ActorFrom). Failures are
// returned as *service.Error and rendered by the HTTP error handler.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return &service.Error{Kind: service.ErrUnauthorized, Detail: "Not authenticated"}
			}

			u, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(raw))
			if err != nil {
				return err
			}
			c.Set(userKey, u)
			c.SetRequest(c.Request().WithContext(service.WithActor(c.Request().Context(), u)))
			return next(c)
		}
	}
}
