package ytserver

import (
	"context"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/sources"
	"github.com/xianxx17/my-youtube-mcp-server/internal/toolutil"
)

type TrendingVideosInput struct {
	Region     string `json:"region,omitempty" jsonschema:"ISO 3166-1 region code (default: US)"`
	CategoryID string `json:"category_id,omitempty" jsonschema:"Restrict to a video category ID (see get_video_categories)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum videos to return, 1-50 (default: 10)"`
}

type TrendingVideosOutput struct {
	Region string          `json:"region"`
	Videos []sources.Video `json:"videos"`
}

func registerTrendingVideos(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trending_videos",
		Description: "Fetch the current most-popular YouTube videos for a region, optionally restricted to a category.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TrendingVideosInput) (*mcp.CallToolResult, TrendingVideosOutput, error) {
		region := input.Region
		if region == "" {
			region = "US"
		}

		cacheKey := engine.CacheKey("trending", region, input.CategoryID, strconv.Itoa(input.MaxResults))
		if out, ok := toolutil.CacheLoadJSON[TrendingVideosOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		videos, err := deps.YouTube.TrendingVideos(ctx, region, input.CategoryID, input.MaxResults)
		if err != nil {
			return nil, TrendingVideosOutput{}, err
		}

		out := TrendingVideosOutput{Region: region, Videos: videos}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

type VideoCategoriesInput struct {
	Region string `json:"region,omitempty" jsonschema:"ISO 3166-1 region code (default: US)"`
}

type VideoCategoriesOutput struct {
	Region     string             `json:"region"`
	Categories []sources.Category `json:"categories"`
}

func registerVideoCategories(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_video_categories",
		Description: "List the assignable YouTube video categories for a region as ID/title pairs, for use with get_trending_videos.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoCategoriesInput) (*mcp.CallToolResult, VideoCategoriesOutput, error) {
		region := input.Region
		if region == "" {
			region = "US"
		}

		cacheKey := engine.CacheKey("video_categories", region)
		if out, ok := toolutil.CacheLoadJSON[VideoCategoriesOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		cats, err := deps.YouTube.VideoCategories(ctx, region)
		if err != nil {
			return nil, VideoCategoriesOutput{}, err
		}

		out := VideoCategoriesOutput{Region: region, Categories: cats}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
