package ytserver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/sources"
	"github.com/xianxx17/my-youtube-mcp-server/internal/toolutil"
)

const maxCommentLen = 1000

type VideoCommentsInput struct {
	VideoID    string `json:"video_id" jsonschema:"YouTube video ID or URL"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum comments to return, 1-50 (default: 10)"`
	Order      string `json:"order,omitempty" jsonschema:"Comment order: relevance (default) or time"`
}

type VideoCommentsOutput struct {
	VideoID  string            `json:"video_id"`
	Comments []sources.Comment `json:"comments"`
}

func registerVideoComments(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_video_comments",
		Description: "Fetch top-level comment threads for a YouTube video: author, text, like count, publish date and reply count.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoCommentsInput) (*mcp.CallToolResult, VideoCommentsOutput, error) {
		ids := toolutil.ParseVideoIDs(input.VideoID)
		if len(ids) == 0 {
			return nil, VideoCommentsOutput{}, fmt.Errorf("video_id is required")
		}
		videoID := ids[0]

		cacheKey := engine.CacheKey("video_comments", videoID, strconv.Itoa(input.MaxResults), input.Order)
		if out, ok := toolutil.CacheLoadJSON[VideoCommentsOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		comments, err := deps.YouTube.ListComments(ctx, videoID, input.MaxResults, input.Order)
		if err != nil {
			return nil, VideoCommentsOutput{}, err
		}
		for i := range comments {
			comments[i].Text = engine.TruncateRunes(comments[i].Text, maxCommentLen, "…")
		}

		out := VideoCommentsOutput{VideoID: videoID, Comments: comments}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
