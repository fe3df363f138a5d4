package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pier11/marina-map/internal/config"
	"github.com/pier11/marina-map/internal/metrics"
	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/repository"
	"github.com/pier11/marina-map/internal/service"
	"github.com/pier11/marina-map/internal/testutil"
)

const prefix = "/api/v1"

type api struct {
	t     *testing.T
	e     *echo.Echo
	admin string
	staff string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := testutil.NewDB(t)
	repos := repository.NewRepos(db)
	log, _ := testutil.NewLogger()
	cfg := config.Config{
		APIPrefix:      prefix,
		JWTSecret:      "router-test",
		AccessTTLMin:   60,
		RefreshTTLDays: 1,
		BcryptCost:     bcrypt.MinCost,
	}
	m := metrics.New()
	opts := service.Options{Observer: m, Log: log}
	auth := service.NewAuthService(repos, cfg, log)
	e := New(Deps{
		Config:  cfg,
		DB:      db,
		Auth:    auth,
		Maps:    service.NewMapService(repos, opts),
		Boats:   service.NewBoatService(repos, opts),
		Metrics: m,
		Log:     log,
	})

	a := &api{t: t, e: e}
	for _, u := range []struct {
		email string
		role  model.Role
	}{{"admin@pier11marina.com", model.RoleAdmin}, {"staff@pier11marina.com", model.RoleStaff}} {
		_, err := auth.Register(context.Background(), model.UserCreate{
			Email: u.email, Password: "Harbour9x", FullName: "Test", Role: string(u.role),
		})
		require.NoError(t, err)
	}
	a.admin = a.login("admin@pier11marina.com", "Harbour9x").AccessToken
	a.staff = a.login("staff@pier11marina.com", "Harbour9x").AccessToken
	return a
}

func (a *api) login(email, password string) service.TokenPair {
	a.t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, prefix+"/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var pair service.TokenPair
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = strings.NewReader(string(raw))
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, prefix+path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the body into a generic map for field checks.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func id(t *testing.T, rec *httptest.ResponseRecorder) uint64 {
	t.Helper()
	return uint64(decode(t, rec)["id"].(float64))
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode(t, rec)["detail"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/", "/health", "/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestAuthErrors(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/boats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

	rec = a.do(http.MethodGet, "/boats", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Could not validate credentials", detail(t, rec))

	form := url.Values{"username": {"admin@pier11marina.com"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, prefix+"/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password", detail(t, rec))

	rec = a.do(http.MethodPost, "/maps", a.staff, model.MapCreate{Name: "Dock A", ImagePath: "a.png"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not enough permissions", detail(t, rec))

	rec = a.do(http.MethodPost, "/auth/register", a.staff, model.UserCreate{Email: "x@pier11marina.com", Password: "Harbour9x", FullName: "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMeRefreshLogout(t *testing.T) {
	a := newAPI(t)
	pair := a.login("staff@pier11marina.com", "Harbour9x")

	rec := a.do(http.MethodGet, "/auth/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "staff@pier11marina.com", me["email"])
	assert.NotContains(t, me, "password_hash")

	rec = a.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	next := decode(t, rec)["refresh_token"].(string)

	rec = a.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/auth/logout", "", map[string]string{"refresh_token": next})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do(http.MethodPost, "/auth/logout", pair.AccessToken, map[string]string{"refresh_token": next})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": next})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserAdministration(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/auth/register", a.admin, model.UserCreate{
		Email: "New@Pier11Marina.com", Password: "Harbour9x", FullName: "Dock Hand",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "new@pier11marina.com", created["email"])
	assert.Equal(t, "staff", created["role"])

	rec = a.do(http.MethodPost, "/auth/register", a.admin, model.UserCreate{
		Email: "new@pier11marina.com", Password: "Harbour9x", FullName: "Again",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already registered", detail(t, rec))

	rec = a.do(http.MethodPost, "/auth/register", a.admin, model.UserCreate{
		Email: "weak@pier11marina.com", Password: "short", FullName: "Weak",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, detail(t, rec), "password")

	rec = a.do(http.MethodGet, "/auth/users", a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 3)

	newID := uint64(created["id"].(float64))
	rec = a.do(http.MethodPut, fmt.Sprintf("/auth/users/%d", newID), a.admin, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["is_active"])
}

func TestAssignmentScenarioOverHTTP(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/maps", a.admin, map[string]any{"name": "Dock A", "image_path": "dock-a.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	mapID := id(t, rec)
	assert.EqualValues(t, 0, decode(t, rec)["boat_count"])

	rec = a.do(http.MethodPost, "/positions", a.staff, map[string]any{"map_id": mapID, "x": 100, "y": 200, "color": "RED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pos := decode(t, rec)
	posID := uint64(pos["id"].(float64))
	assert.Equal(t, "red", pos["color"])
	assert.EqualValues(t, 50, pos["height"])

	rec = a.do(http.MethodPost, "/boats", a.staff, map[string]any{"index": 7, "customer_name": "John Smith", "section": "c"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode(t, rec)
	boatID := uint64(b["id"].(float64))
	assert.Equal(t, false, b["is_mapped"])
	assert.Equal(t, "C", b["section"])

	rec = a.do(http.MethodPost, "/boats", a.staff, map[string]any{"index": 8, "customer_name": "Mary Jones"})
	require.Equal(t, http.StatusOK, rec.Code)
	boat2 := id(t, rec)

	rec = a.do(http.MethodPost, "/boats", a.staff, map[string]any{"index": 7, "customer_name": "Dup"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Boat with index 7 already exists", detail(t, rec))

	rec = a.do(http.MethodPost, fmt.Sprintf("/boats/%d/assign/%d", boatID, posID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["is_mapped"])

	rec = a.do(http.MethodPost, fmt.Sprintf("/boats/%d/assign/%d", boat2, posID), a.staff, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Position already assigned to another boat", detail(t, rec))

	rec = a.do(http.MethodGet, fmt.Sprintf("/maps/%d", mapID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mapDetail := decode(t, rec)
	assert.Len(t, mapDetail["boats"], 1)
	assert.Len(t, mapDetail["positions"], 1)

	rec = a.do(http.MethodGet, fmt.Sprintf("/maps/%d/boats", mapID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.EqualValues(t, 7, entries[0]["boat"].(map[string]any)["index"])

	rec = a.do(http.MethodGet, fmt.Sprintf("/maps/%d/boat-count", mapID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["boat_count"])

	rec = a.do(http.MethodGet, "/boats?mapped_only=true", a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mapped []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mapped))
	require.Len(t, mapped, 1)
	assert.EqualValues(t, 7, mapped[0]["index"])

	rec = a.do(http.MethodPost, fmt.Sprintf("/boats/%d/unassign", boatID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["is_mapped"])

	rec = a.do(http.MethodPost, fmt.Sprintf("/boats/%d/unassign", boatID), a.staff, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, fmt.Sprintf("/boats/%d/assign/%d", boat2, posID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodDelete, fmt.Sprintf("/maps/%d", mapID), a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deactivated", decode(t, rec)["outcome"])

	rec = a.do(http.MethodGet, "/maps", a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = a.do(http.MethodGet, "/maps?active_only=false", a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestBoatLookupsAndValidation(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/boats", a.staff, map[string]any{"index": 3, "customer_name": "Ann", "section": "Z"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, detail(t, rec), "section")

	rec = a.do(http.MethodPost, "/boats", a.staff, map[string]any{"index": 0, "customer_name": "Ann"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPost, "/boats", a.staff, map[string]any{"index": "three", "customer_name": "Ann"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPost, "/boats", a.staff, map[string]any{"index": 3, "customer_name": "Ann"})
	require.Equal(t, http.StatusOK, rec.Code)
	boatID := id(t, rec)

	rec = a.do(http.MethodGet, "/boats/index/3", a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, boatID, id(t, rec))

	rec = a.do(http.MethodGet, "/boats/index/99", a.staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Boat not found", detail(t, rec))

	rec = a.do(http.MethodGet, "/boats/abc", a.staff, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPut, fmt.Sprintf("/boats/%d", boatID), a.staff, map[string]any{"notes": "winter storage"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "winter storage", decode(t, rec)["notes"])

	rec = a.do(http.MethodGet, "/boats?limit=0", a.staff, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.do(http.MethodGet, "/boats?skip=-1", a.staff, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.do(http.MethodGet, "/boats?limit=500", a.staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodGet, "/boats?search=ANN", a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"customer_name":"Ann"`)

	rec = a.do(http.MethodDelete, fmt.Sprintf("/boats/%d", boatID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Boat deleted successfully", decode(t, rec)["message"])
	rec = a.do(http.MethodDelete, fmt.Sprintf("/boats/%d", boatID), a.staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPositionEndpoints(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/positions", a.staff, map[string]any{"map_id": 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Map not found", detail(t, rec))

	rec = a.do(http.MethodPost, "/maps", a.admin, map[string]any{"name": "Dock A", "image_path": "dock-a.tiff"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPost, "/maps", a.admin, map[string]any{"name": "Dock A", "image_path": "dock-a.jpg"})
	require.Equal(t, http.StatusOK, rec.Code)
	mapID := id(t, rec)

	rec = a.do(http.MethodPost, "/maps", a.admin, map[string]any{"name": "Dock A", "image_path": "dock-a.jpg"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/positions", a.staff, map[string]any{"map_id": mapID, "rotation": 400})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.do(http.MethodPost, "/positions", a.staff, map[string]any{"map_id": mapID, "color": "mauve"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPost, "/positions", a.staff, map[string]any{"map_id": mapID})
	require.Equal(t, http.StatusOK, rec.Code)
	posID := id(t, rec)

	rec = a.do(http.MethodPut, fmt.Sprintf("/positions/%d", posID), a.staff, map[string]any{"x": 10, "is_visible": false})
	require.Equal(t, http.StatusOK, rec.Code)
	upd := decode(t, rec)
	assert.EqualValues(t, 10, upd["x"])
	assert.Equal(t, false, upd["is_visible"])

	rec = a.do(http.MethodGet, fmt.Sprintf("/positions/map/%d", mapID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = a.do(http.MethodGet, "/positions/map/999", a.staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodDelete, fmt.Sprintf("/positions/%d", posID), a.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodGet, fmt.Sprintf("/positions/%d", posID), a.staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodDelete, fmt.Sprintf("/maps/%d", mapID), a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "removed", decode(t, rec)["outcome"])
}
