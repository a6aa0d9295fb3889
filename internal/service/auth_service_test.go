package service

import (
	"context"
	"testing"
	"time"

	"lukeblog/internal/cache"
	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-1234"

func TestAuthService(t *testing.T) {
	db := testutil.NewTestDB(t)
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	staff := &models.User{Username: "editor", Password: hash, IsStaff: true}
	reader := &models.User{Username: "reader", Password: hash}
	require.NoError(t, db.Create(staff).Error)
	require.NoError(t, db.Create(reader).Error)

	store, mr := newRedisStore(t)
	svc := NewAuthService(repository.NewUserRepository(db), store, testSecret)
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "editor", "nope")
		requireCode(t, models.CodeUnauthorized, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost", "correct horse")
		requireCode(t, models.CodeUnauthorized, err)
	})

	t.Run("non staff", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "reader", "correct horse")
		requireCode(t, models.CodeForbidden, err)
	})

	t.Run("login, authenticate, logout", func(t *testing.T) {
		token, user, err := svc.Login(ctx, " editor ", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, staff.ID, user.ID)

		got, claims, err := svc.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, staff.ID, got.ID)
		assert.NotEmpty(t, claims.JTI)

		require.NoError(t, svc.Logout(ctx, claims))
		ttl := mr.TTL(cache.BlacklistKey(claims.JTI))
		assert.InDelta(t, middleware.TokenTTL.Seconds(), ttl.Seconds(), 5)

		_, _, err = svc.Authenticate(ctx, token)
		requireCode(t, models.CodeUnauthorized, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "not.a.jwt")
		requireCode(t, models.CodeUnauthorized, err)
		_, _, err = svc.Authenticate(ctx, "")
		requireCode(t, models.CodeUnauthorized, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, _, err := middleware.IssueToken(testSecret, staff.ID, time.Now().Add(-8*24*time.Hour))
		require.NoError(t, err)
		_, _, err = svc.Authenticate(ctx, token)
		requireCode(t, models.CodeUnauthorized, err)
	})
}

func TestHashPassword(t *testing.T) {
	t.Parallel()
	_, err := HashPassword("short")
	requireCode(t, models.CodeValidation, err)

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	assert.NotEqual(t, "long enough", hash)
}
