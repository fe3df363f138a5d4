package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/config"
	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/repository"
	"github.com/pier11/marina-map/internal/utils"
)

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthService issues and verifies credentials and administers users.
type AuthService struct {
	users      *repository.UserRepo
	tokens     *repository.TokenRepo
	secret     string
	accessTTL  int
	refreshTTL int
	bcryptCost int
	log        *zap.Logger
}

func NewAuthService(repos *repository.Repos, cfg config.Config, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:      repos.Users,
		tokens:     repos.Tokens,
		secret:     cfg.JWTSecret,
		accessTTL:  cfg.AccessTTLMin,
		refreshTTL: cfg.RefreshTTLDays,
		bcryptCost: cfg.BcryptCost,
		log:        log,
	}
}

// Login verifies email and password and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return TokenPair{}, err
	}
	if u == nil || !utils.VerifyPassword(u.PasswordHash, password) {
		s.log.Info("login rejected", zap.String("email", email))
		return TokenPair{}, unauthorized("Incorrect email or password")
	}
	if !u.IsActive {
		return TokenPair{}, unauthorized(msgInactiveUser)
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. A token can be rotated at most once.
func (s *AuthService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	hash := utils.HashRefreshRaw(raw)
	uid, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return TokenPair{}, unauthorized("Invalid refresh token")
		}
		return TokenPair{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return TokenPair{}, unauthorized("Invalid refresh token")
		}
		return TokenPair{}, err
	}
	u, err := s.activeUser(ctx, uid)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issue(ctx, u)
}

// Logout revokes a refresh token. Unknown or already revoked tokens are
// ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	if errors.Is(err, repository.ErrTokenInvalid) {
		return nil
	}
	return err
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.secret, u.ID, u.Email, string(u.Role), s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		TokenType:    "bearer",
		ExpiresAt:    access.Exp,
	}, nil
}

// Authenticate resolves a bearer access token to an active user. The role
// is read from the store, not from the token, so demotions apply at once.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return nil, unauthorized(msgBadCredentials)
	}
	uid, err := claims.UserID()
	if err != nil {
		return nil, unauthorized(msgBadCredentials)
	}
	return s.activeUser(ctx, uid)
}

func (s *AuthService) activeUser(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, unauthorized(msgUserNotFound)
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, unauthorized(msgInactiveUser)
	}
	return u, nil
}

// Authorize fails with Forbidden unless u's role satisfies required.
func (s *AuthService) Authorize(u *model.User, required model.Role) error {
	if u == nil {
		return unauthorized(msgBadCredentials)
	}
	if !u.Role.Satisfies(required) {
		return forbidden(msgNoPermission)
	}
	return nil
}

// Register creates a user. The email must be unused.
func (s *AuthService) Register(ctx context.Context, in model.UserCreate) (*model.User, error) {
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, validation("role: must be one of: admin, staff")
	}
	if msg := model.PasswordProblem(in.Password); msg != "" {
		return nil, validation(msg)
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, conflict("Email already registered")
		}
		return nil, err
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *AuthService) ListUsers(ctx context.Context, page repository.Page) ([]*model.User, error) {
	return s.users.List(ctx, page)
}

// UpdateUser lets an admin edit another account. Nobody may change their
// own role or deactivate themselves. Deactivating a user or changing
// their password revokes their refresh tokens.
func (s *AuthService) UpdateUser(ctx context.Context, actor *model.User, id uint64, in model.UserUpdate) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	var role model.Role
	if in.Role != nil {
		if role, err = model.ParseRole(*in.Role); err != nil {
			return nil, validation("role: must be one of: admin, staff")
		}
	}
	if actor != nil && actor.ID == u.ID {
		if in.Role != nil && role != u.Role {
			return nil, forbidden("Cannot change your own role")
		}
		if in.IsActive != nil && !*in.IsActive {
			return nil, forbidden("Cannot deactivate your own account")
		}
	}

	revoke := false
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Role != nil {
		u.Role = role
	}
	if in.IsActive != nil {
		revoke = u.IsActive && !*in.IsActive
		u.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if msg := model.PasswordProblem(*in.Password); msg != "" {
			return nil, validation(msg)
		}
		if u.PasswordHash, err = utils.HashPassword(*in.Password, s.bcryptCost); err != nil {
			return nil, err
		}
		revoke = true
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, translate(err)
	}
	if revoke {
		if err := s.tokens.RevokeAllForUser(ctx, u.ID); err != nil {
			s.log.Error("revoke refresh tokens failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		}
	}
	return u, nil
}
