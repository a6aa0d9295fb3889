// Package service holds the blog's business logic between handlers and repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"lukeblog/internal/cache"
	"lukeblog/internal/middleware"
	"lukeblog/internal/observability"
	"lukeblog/internal/repository"
)

// Visit reports which counters a page view incremented.
type Visit struct {
	PV bool
	UV bool
}

// VisitService deduplicates page views per visitor and bumps post counters.
// A visitor adds at most one pv per path per minute and one uv per path per day.
type VisitService struct {
	store cache.Store
	posts repository.PostRepository
	now   func() time.Time
}

func NewVisitService(store cache.Store, posts repository.PostRepository) *VisitService {
	return &VisitService{store: store, posts: posts, now: time.Now}
}

// WithClock overrides the clock used to bucket unique visitors by day.
func (s *VisitService) WithClock(now func() time.Time) *VisitService {
	s.now = now
	return s
}

// Record counts one view of postID at path by visitor uid. It never fails:
// cache errors count the view anyway and database errors are only logged.
func (s *VisitService) Record(ctx context.Context, postID uint, uid, path string) Visit {
	visit := Visit{
		PV: s.claim(ctx, cache.PVKey(uid, path), cache.PVTTL),
		UV: s.claim(ctx, cache.UVKey(uid, s.now(), path), cache.UVTTL),
	}
	if !visit.PV && !visit.UV {
		return visit
	}

	if err := s.posts.IncrementViews(ctx, postID, visit.PV, visit.UV); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to increment post views",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
		return Visit{}
	}
	if visit.PV {
		observability.PostViews.WithLabelValues("pv").Inc()
	}
	if visit.UV {
		observability.PostViews.WithLabelValues("uv").Inc()
	}
	return visit
}

// claim sets key when absent and reports whether this view is the first in the window.
func (s *VisitService) claim(ctx context.Context, key string, ttl time.Duration) bool {
	if s.store == nil {
		return true
	}
	set, err := s.store.SetNX(ctx, key, []byte("1"), ttl)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "visit cache unavailable, counting view",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return true
	}
	return set
}
