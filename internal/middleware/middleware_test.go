package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pier11/marina-map/internal/config"
	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/service"
	"github.com/pier11/marina-map/internal/testutil"
)

type stubAuth struct {
	users map[string]*model.User
}

func (s stubAuth) Authenticate(_ context.Context, raw string) (*model.User, error) {
	if u, ok := s.users[raw]; ok {
		return u, nil
	}
	return nil, &service.Error{Kind: service.ErrUnauthorized, Detail: "Could not validate credentials"}
}

func (stubAuth) Authorize(u *model.User, required model.Role) error {
	if u == nil || !u.Role.Satisfies(required) {
		return &service.Error{Kind: service.ErrForbidden, Detail: "Not enough permissions"}
	}
	return nil
}

var auth = stubAuth{users: map[string]*model.User{
	"admin-token": {ID: 1, Role: model.RoleAdmin, IsActive: true},
	"staff-token": {ID: 2, Role: model.RoleStaff, IsActive: true},
}}

func serve(t *testing.T, h echo.HandlerFunc, token string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/boats", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/boats")

	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return rec, h(c)
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestJWTAuth(t *testing.T) {
	_, err := serve(t, ok, "", JWTAuth(auth))
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = serve(t, ok, "bogus", JWTAuth(auth))
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	var seen *model.User
	var actor *model.User
	rec, err := serve(t, func(c echo.Context) error {
		seen = CurrentUser(c)
		actor = service.ActorFrom(c.Request().Context())
		return ok(c)
	}, "staff-token", JWTAuth(auth))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, uint64(2), seen.ID)
	assert.Same(t, seen, actor)
}

func TestRequireRole(t *testing.T) {
	_, err := serve(t, ok, "staff-token", JWTAuth(auth), RequireRole(auth, model.RoleAdmin))
	var se *service.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Not enough permissions", se.Detail)

	rec, err := serve(t, ok, "admin-token", JWTAuth(auth), RequireRole(auth, model.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, err = serve(t, ok, "admin-token", JWTAuth(auth), RequireRole(auth, model.RoleStaff))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func newLimiter(t *testing.T, capacity int) (echo.MiddlewareFunc, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	log, _ := testutil.NewLogger()
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		KeyStrategy:    "user_route",
		Prefix:         "test:rl",
	}
	return NewTokenBucket(cfg, rdb, log), mr
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	limiter, mr := newLimiter(t, 2)

	for i := 0; i < 2; i++ {
		rec, err := serve(t, ok, "staff-token", JWTAuth(auth), limiter)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec, err := serve(t, ok, "staff-token", JWTAuth(auth), limiter)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"detail":"Rate limit exceeded"}`, rec.Body.String())

	// Buckets are per user.
	rec, err = serve(t, ok, "admin-token", JWTAuth(auth), limiter)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.True(t, mr.Exists("test:rl:user:2:route:GET /boats"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	limiter, mr := newLimiter(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		rec, err := serve(t, ok, "staff-token", limiter)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, nil)
	rec, err := serve(t, ok, "", mw)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBuildRateKeyAnonymous(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/auth/login")

	key := buildRateKey(config.RateLimitConfig{Prefix: "marina:rl"}, c)
	assert.Equal(t, "marina:rl:ip:10.0.0.9:user:anon:route:POST /auth/login", key)
}
