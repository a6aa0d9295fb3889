package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"lukeblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "lukeblog-api"
	TokenAudience = "lukeblog-admin"
	TokenTTL      = 7 * 24 * time.Hour

	// UserLocal holds the authenticated *models.User.
	UserLocal = "user"
	// ClaimsLocal holds the TokenClaims of the request's token.
	ClaimsLocal = "claims"
)

// TokenClaims is the subset of admin token claims the server relies on.
type TokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs an admin token for userID.
func IssueToken(secret string, userID uint, now time.Time) (string, TokenClaims, error) {
	claims := TokenClaims{
		UserID:    userID,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(TokenTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"iat": now.Unix(),
		"exp": claims.ExpiresAt.Unix(),
		"jti": claims.JTI,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", TokenClaims{}, err
	}
	return signed, claims, nil
}

// ParseToken validates signature, issuer, audience and expiry and returns the claims.
func ParseToken(secret, tokenString string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return TokenClaims{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return TokenClaims{}, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return TokenClaims{}, errors.New("invalid user ID in token")
	}

	out := TokenClaims{UserID: uint(userID)}
	out.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>",
// falling back to the token query parameter (used by websocket clients).
func BearerToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// CurrentUser returns the user set by the auth middleware, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(UserLocal).(*models.User)
	return u
}

// CurrentClaims returns the claims set by the auth middleware.
func CurrentClaims(c *fiber.Ctx) (TokenClaims, bool) {
	claims, ok := c.Locals(ClaimsLocal).(TokenClaims)
	return claims, ok
}
