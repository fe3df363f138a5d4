package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pier11/marina-map/internal/middleware"
	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/service"
)

// AuthHandler serves /auth: login and token rotation plus user
// administration.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Login: OAuth2 password form (username carries the email).
func (h *AuthHandler) Login(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return invalid("username and password are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Register: admin creates a user account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req model.UserCreate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Refresh: revoke the presented refresh token and issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout: revoke the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Message: "Logged out successfully"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (h *AuthHandler) ListUsers(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.Auth.ListUsers(ctx, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req model.UserUpdate
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.UpdateUser(ctx, middleware.CurrentUser(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
