package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main. No API key is
// read at package load time; everything arrives through Init.
type Config struct {
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string // secondary key tried on quota errors
	DataAPIQPS            float64
	FetchTimeout          time.Duration
	CacheMaxEntries       int
	CacheCleanupInterval  time.Duration
	HTTPClient            *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration. When no HTTP
// client is supplied, one is built with FetchTimeout as its overall deadline.
func Init(c Config) {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
	cfg = c
	Cfg = &cfg
}
