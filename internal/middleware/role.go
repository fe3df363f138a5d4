package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/pier11/marina-map/internal/model"
)

// RequireRole lets the request through only when the authenticated
// user's role satisfies required. Admin satisfies every role. It must run
// after JWTAuth.
func RequireRole(auth Authenticator, required model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.Authorize(CurrentUser(c), required); err != nil {
				return err
			}
			return next(c)
		}
	}
}
