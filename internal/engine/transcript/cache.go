package transcript

import (
	"slices"
	"sync"
	"time"
)

// DefaultCacheTTL is the cue cache TTL when the service is built without
// WithCacheTTL.
const DefaultCacheTTL = time.Hour

// cueCache memoizes raw, unfiltered cue sequences keyed by (videoID, language).
// Entries expire a fixed TTL after insertion; reads never refresh the clock.
// Size is unbounded — the working set is one entry per (video, language) pair
// within the TTL window. Concurrent writers for the same key race benignly:
// last successful fetch wins.
type cueCache struct {
	entries sync.Map // key → *cueEntry
	ttl     time.Duration
}

type cueEntry struct {
	cues      []Cue
	expiresAt time.Time
}

func newCueCache(ttl time.Duration) *cueCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &cueCache{ttl: ttl}
}

func cacheKey(videoID, language string) string {
	if language == "" {
		language = "default"
	}
	return videoID + "|" + language
}

// get returns a copy of the cached cues so callers can never mutate the
// cached raw sequence. Expired entries are dropped on read.
func (c *cueCache) get(videoID, language string) ([]Cue, bool) {
	key := cacheKey(videoID, language)
	val, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry := val.(*cueEntry)
	if time.Now().After(entry.expiresAt) {
		c.entries.Delete(key)
		return nil, false
	}
	return slices.Clone(entry.cues), true
}

// put stores a fully fetched cue sequence. Callers must only put complete
// results — an aborted fetch never reaches the cache.
func (c *cueCache) put(videoID, language string, cues []Cue) {
	c.entries.Store(cacheKey(videoID, language), &cueEntry{
		cues:      slices.Clone(cues),
		expiresAt: time.Now().Add(c.ttl),
	})
}
