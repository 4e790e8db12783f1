package ytserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/sources"
	"github.com/xianxx17/my-youtube-mcp-server/internal/toolutil"
)

type ChannelStatisticsInput struct {
	ChannelIDs string `json:"channel_ids" jsonschema:"Comma-separated YouTube channel IDs (UC...)"`
}

type ChannelStatisticsOutput struct {
	Channels []sources.ChannelStats `json:"channels"`
}

func registerChannelStatistics(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_channel_statistics",
		Description: "Fetch subscriber, view and video counts for one or more YouTube channels.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ChannelStatisticsInput) (*mcp.CallToolResult, ChannelStatisticsOutput, error) {
		var ids []string
		for _, p := range strings.Split(input.ChannelIDs, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ids = append(ids, p)
			}
		}
		if len(ids) == 0 {
			return nil, ChannelStatisticsOutput{}, fmt.Errorf("channel_ids is required")
		}

		cacheKey := engine.CacheKey("channel_statistics", strings.Join(ids, ","))
		if out, ok := toolutil.CacheLoadJSON[ChannelStatisticsOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		stats, err := deps.YouTube.ChannelStatistics(ctx, ids)
		if err != nil {
			return nil, ChannelStatisticsOutput{}, err
		}

		out := ChannelStatisticsOutput{Channels: stats}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
