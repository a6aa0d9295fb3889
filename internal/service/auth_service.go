package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"lukeblog/internal/cache"
	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// AuthService signs admin tokens and resolves them back to users.
type AuthService struct {
	users  repository.UserRepository
	store  cache.Store
	secret string
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, store cache.Store, secret string) *AuthService {
	return &AuthService{users: users, store: store, secret: secret, now: time.Now}
}

// HashPassword returns the bcrypt hash stored in User.Password.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", models.NewValidationError("Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks credentials of a staff account and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if s.secret == "" {
		return "", nil, models.NewInternalError(errors.New("JWT secret not configured"))
	}
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return "", nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return "", nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return "", nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.CanAdmin() {
		return "", nil, models.NewForbiddenError("Staff access required")
	}

	token, _, err := middleware.IssueToken(s.secret, user.ID, s.now())
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	return token, user, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims middleware.TokenClaims) error {
	if claims.JTI == "" || s.store == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Set(ctx, cache.BlacklistKey(claims.JTI), []byte("1"), ttl); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Authenticate validates a token, rejects revoked ones and loads its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, middleware.TokenClaims, error) {
	if token == "" {
		return nil, middleware.TokenClaims{}, models.NewUnauthorizedError("Authorization required")
	}
	claims, err := middleware.ParseToken(s.secret, token)
	if err != nil {
		return nil, middleware.TokenClaims{}, models.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.JTI != "" && s.store != nil {
		revoked, err := s.store.Exists(ctx, cache.BlacklistKey(claims.JTI))
		if err != nil {
			return nil, claims, models.NewInternalError(err)
		}
		if revoked {
			return nil, claims, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, claims, models.NewUnauthorizedError("Unknown user")
		}
		return nil, claims, err
	}
	return user, claims, nil
}
