package cache

import (
	"fmt"
	"time"
)

const (
	PVKeyPrefix = "pv:%s:%s"
	UVKeyPrefix = "uv:%s:%s:%s"

	HotPostsKey     = "hot_posts"
	SitemapKey      = "sitemap"
	SideBarKey      = "sidebar:all"
	BlacklistPrefix = "blacklist:"
)

const (
	// PVTTL bounds page-view counting to once per minute per visitor and path.
	PVTTL = 60 * time.Second
	// UVTTL bounds unique-view counting to once per day per visitor and path.
	UVTTL       = 24 * time.Hour
	HotPostsTTL = 10 * time.Minute
	SitemapTTL  = 20 * time.Minute
	SideBarTTL  = 10 * time.Minute
)

// PVKey is the page-view dedupe key for a visitor and request path.
func PVKey(uid, path string) string {
	return fmt.Sprintf(PVKeyPrefix, uid, path)
}

// UVKey is the unique-view dedupe key for a visitor, calendar day and request path.
func UVKey(uid string, day time.Time, path string) string {
	return fmt.Sprintf(UVKeyPrefix, uid, day.Format(time.DateOnly), path)
}

// BlacklistKey marks a revoked admin token id.
func BlacklistKey(jti string) string {
	return BlacklistPrefix + jti
}
