package middleware

// identity.go holds the request-scoped user set by JWTAuth and the helpers
// other middleware and handlers use to read it.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pier11/marina-map/internal/model"
)

const userKey = "user"

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// userID is the rate-limit identity: the user id, or "anon" when no user
// is authenticated.
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
