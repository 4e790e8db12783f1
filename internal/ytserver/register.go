// Package ytserver registers the YouTube MCP tools: transcript retrieval and
// processing on top of the transcript pipeline, plus thin Data API lookups
// (details, search, comments, trending, categories, channel statistics).
package ytserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/sources"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/transcript"
)

// Deps wires tool handlers to their collaborators. Handlers hold no other state.
type Deps struct {
	Transcript *transcript.Service
	YouTube    *sources.DataAPI
}

// RegisterTools registers every tool on the given MCP server.
func RegisterTools(server *mcp.Server, deps Deps) {
	registerGetTranscript(server, deps)
	registerEnhancedTranscript(server, deps)
	registerVideoTranscripts(server, deps)
	registerVideoDetails(server, deps)
	registerSearchVideos(server, deps)
	registerVideoComments(server, deps)
	registerTrendingVideos(server, deps)
	registerVideoCategories(server, deps)
	registerChannelStatistics(server, deps)
}
