// Package toolutil provides shared helper functions for the YouTube MCP tools:
// video ID normalization and typed tool-output caching on top of the engine cache.
package toolutil

import (
	"context"
	"regexp"
	"strings"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
)

// videoIDRE matches an 11-character YouTube video ID.
var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// urlVideoIDRE pulls the video ID out of watch/share/embed/shorts URLs.
var urlVideoIDRE = regexp.MustCompile(`(?:v=|youtu\.be/|/embed/|/shorts/|/live/)([A-Za-z0-9_-]{11})`)

// ParseVideoIDs splits a comma-separated list of video IDs or YouTube URLs
// into bare 11-character IDs. Entries that are neither a bare ID nor a
// recognizable URL are passed through trimmed so validation can reject them
// with a useful message.
func ParseVideoIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if videoIDRE.MatchString(p) {
			ids = append(ids, p)
			continue
		}
		if m := urlVideoIDRE.FindStringSubmatch(p); len(m) == 2 {
			ids = append(ids, m[1])
			continue
		}
		ids = append(ids, p)
	}
	return ids
}

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	return engine.CacheGetJSON[T](ctx, key)
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	engine.CacheSetJSON(ctx, key, v)
}
