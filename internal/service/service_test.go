package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lukeblog/internal/cache"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every cache operation, like an unreachable Redis.
type brokenStore struct{ cache.Store }

var errCacheDown = errors.New("dial tcp: connection refused")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (brokenStore) Exists(context.Context, string) (bool, error) { return false, errCacheDown }
func (brokenStore) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errCacheDown
}

// postRepoStub wraps a real repository and lets tests override single methods.
type postRepoStub struct {
	repository.PostRepository
	mu          sync.Mutex
	hotCalls    int
	hotFn       func(context.Context, int) ([]*models.Post, error)
	incrementFn func(context.Context, uint, bool, bool) error
	publishedFn func(context.Context, uint) (*models.Post, error)
}

func (s *postRepoStub) Hot(ctx context.Context, limit int) ([]*models.Post, error) {
	s.mu.Lock()
	s.hotCalls++
	s.mu.Unlock()
	if s.hotFn != nil {
		return s.hotFn(ctx, limit)
	}
	return s.PostRepository.Hot(ctx, limit)
}

func (s *postRepoStub) GetPublished(ctx context.Context, id uint) (*models.Post, error) {
	if s.publishedFn != nil {
		return s.publishedFn(ctx, id)
	}
	return s.PostRepository.GetPublished(ctx, id)
}

func (s *postRepoStub) IncrementViews(ctx context.Context, id uint, pv, uv bool) error {
	if s.incrementFn != nil {
		return s.incrementFn(ctx, id, pv, uv)
	}
	return s.PostRepository.IncrementViews(ctx, id, pv, uv)
}

func newRedisStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisStore(rdb), mr
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

func requireCode(t *testing.T, want string, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, models.ErrorCode(err), "unexpected error: %v", err)
}
