package ytserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/sources"
	"github.com/xianxx17/my-youtube-mcp-server/internal/toolutil"
)

const maxDescriptionLen = 500

type VideoDetailsInput struct {
	VideoIDs string `json:"video_ids" jsonschema:"Comma-separated YouTube video IDs or URLs"`
}

type VideoDetailsOutput struct {
	Videos []sources.Video `json:"videos"`
}

func registerVideoDetails(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_video_details",
		Description: "Fetch title, channel, publish date, duration, tags and view/like/comment counts for one or more YouTube videos. Unknown or private IDs are silently absent from the result.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoDetailsInput) (*mcp.CallToolResult, VideoDetailsOutput, error) {
		ids, err := parseInputIDs(input.VideoIDs)
		if err != nil {
			return nil, VideoDetailsOutput{}, err
		}

		cacheKey := engine.CacheKey("video_details", strings.Join(ids, ","))
		if out, ok := toolutil.CacheLoadJSON[VideoDetailsOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		videos, err := deps.YouTube.ListVideos(ctx, ids)
		if err != nil {
			return nil, VideoDetailsOutput{}, err
		}
		for i := range videos {
			videos[i].Description = engine.TruncateRunes(videos[i].Description, maxDescriptionLen, "…")
		}

		out := VideoDetailsOutput{Videos: videos}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

type SearchVideosInput struct {
	Query      string `json:"query" jsonschema:"Search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum results to return, 1-50 (default: 10)"`
	Order      string `json:"order,omitempty" jsonschema:"Result order: relevance (default), date, rating, title, viewCount"`
}

type SearchVideosOutput struct {
	Query   string                 `json:"query"`
	Results []sources.SearchResult `json:"results"`
}

func registerSearchVideos(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_videos",
		Description: "Search YouTube for videos matching a query. Returns video IDs with title, channel and publish date; feed the IDs to get_transcript or get_video_details for more.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchVideosInput) (*mcp.CallToolResult, SearchVideosOutput, error) {
		if input.Query == "" {
			return nil, SearchVideosOutput{}, fmt.Errorf("query is required")
		}

		cacheKey := engine.CacheKey("search_videos", input.Query, strconv.Itoa(input.MaxResults), input.Order)
		if out, ok := toolutil.CacheLoadJSON[SearchVideosOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		results, err := deps.YouTube.SearchVideos(ctx, input.Query, input.MaxResults, input.Order)
		if err != nil {
			return nil, SearchVideosOutput{}, err
		}

		out := SearchVideosOutput{Query: input.Query, Results: results}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
