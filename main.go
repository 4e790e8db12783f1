// my-youtube-mcp-server — YouTube transcript & metadata MCP server.
//
// Exposes YouTube caption transcripts (raw, filtered, segmented, formatted)
// plus thin Data API lookups (details, search, comments, trending, categories,
// channel statistics) as MCP tools. Runs as HTTP MCP server or stdio transport.
package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/sources"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/transcript"
	"github.com/xianxx17/my-youtube-mcp-server/internal/ytserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting youtube mcp server",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "youtube",
		Version: version,
	}, nil)

	api := sources.NewDataAPI()
	svc := transcript.NewService(sources.Captions{}, api,
		transcript.WithCacheTTL(env.Duration("TRANSCRIPT_CACHE_TTL", time.Hour)),
	)
	ytserver.RegisterTools(server, ytserver.Deps{
		Transcript: svc,
		YouTube:    api,
	})
	slog.Info("tools registered", slog.Int("count", 9))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "youtube",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	fetchTimeout := env.Duration("FETCH_TIMEOUT", 10*time.Second)
	c := engine.Config{
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		DataAPIQPS:            env.Float("DATA_API_QPS", 10),
		FetchTimeout:          fetchTimeout,
		CacheMaxEntries:       env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval:  env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	if c.YouTubeAPIKey == "" {
		slog.Warn("YOUTUBE_API_KEY not set, Data API tools and metadata enrichment disabled")
	}
	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}
