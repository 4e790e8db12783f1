package ytserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/transcript"
	"github.com/xianxx17/my-youtube-mcp-server/internal/toolutil"
)

type TranscriptInput struct {
	VideoID  string `json:"video_id" jsonschema:"YouTube video ID or watch/share URL"`
	Language string `json:"language,omitempty" jsonschema:"Preferred caption language code (default: en)"`
}

type TranscriptOutput struct {
	VideoID  string           `json:"video_id"`
	Language string           `json:"language,omitempty"`
	CueCount int              `json:"cue_count"`
	Cues     []transcript.Cue `json:"cues"`
}

func registerGetTranscript(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_transcript",
		Description: "Fetch the raw timed caption cues of a YouTube video. Each cue carries text, offset and duration in milliseconds. Accepts a video ID or any watch/share/embed URL.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
		engine.IncrTranscriptRequests()

		ids := toolutil.ParseVideoIDs(input.VideoID)
		if len(ids) == 0 {
			return nil, TranscriptOutput{}, fmt.Errorf("video_id is required")
		}

		cues, err := deps.Transcript.GetTranscript(ctx, ids[0], input.Language)
		if err != nil {
			return nil, TranscriptOutput{}, err
		}
		return nil, TranscriptOutput{
			VideoID:  ids[0],
			Language: input.Language,
			CueCount: len(cues),
			Cues:     cues,
		}, nil
	})
}

// EnhancedTranscriptInput is shared by get_enhanced_transcript and
// get_video_transcripts: the full filter/format option surface.
type EnhancedTranscriptInput struct {
	VideoIDs        string   `json:"video_ids" jsonschema:"Comma-separated YouTube video IDs or URLs"`
	Language        string   `json:"language,omitempty" jsonschema:"Preferred caption language code (default: en)"`
	StartTime       *float64 `json:"start_time,omitempty" jsonschema:"Keep only cues starting at or after this time, in seconds"`
	EndTime         *float64 `json:"end_time,omitempty" jsonschema:"Keep only cues ending at or before this time, in seconds"`
	SearchQuery     string   `json:"search_query,omitempty" jsonschema:"Keep only cues containing this text, plus surrounding context"`
	CaseSensitive   bool     `json:"case_sensitive,omitempty" jsonschema:"Match search_query case-sensitively"`
	ContextLines    *int     `json:"context_lines,omitempty" jsonschema:"Context cues kept on each side of a search match (default: 2)"`
	SegmentMethod   string   `json:"segment_method,omitempty" jsonschema:"Segmentation method: equal (time windows) or smart (pause detection)"`
	SegmentCount    int      `json:"segment_count,omitempty" jsonschema:"Maximum number of segments to produce"`
	Format          string   `json:"format,omitempty" jsonschema:"Output format: raw, timestamped (default), merged"`
	IncludeMetadata bool     `json:"include_metadata,omitempty" jsonschema:"Attach video metadata (title, channel, counts) to the result"`
}

func (in EnhancedTranscriptInput) toOptions() transcript.Options {
	opts := transcript.Options{
		Language:        in.Language,
		Format:          transcript.Format(in.Format),
		IncludeMetadata: in.IncludeMetadata,
	}
	if in.StartTime != nil || in.EndTime != nil {
		opts.Range = &transcript.TimeRange{Start: in.StartTime, End: in.EndTime}
	}
	if in.SearchQuery != "" || in.CaseSensitive || in.ContextLines != nil {
		lines := -1
		if in.ContextLines != nil {
			lines = *in.ContextLines
		}
		opts.Search = &transcript.SearchSpec{
			Query:         in.SearchQuery,
			CaseSensitive: in.CaseSensitive,
			ContextLines:  lines,
		}
	}
	if in.SegmentCount > 0 || in.SegmentMethod != "" {
		opts.Segments = &transcript.SegmentSpec{
			Method: in.SegmentMethod,
			Count:  in.SegmentCount,
		}
	}
	return opts
}

func parseInputIDs(raw string) ([]string, error) {
	ids := toolutil.ParseVideoIDs(raw)
	if len(ids) == 0 {
		return nil, fmt.Errorf("video_ids is required")
	}
	return ids, nil
}

func registerEnhancedTranscript(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_enhanced_transcript",
		Description: "Fetch one or more YouTube transcripts and run them through the processing pipeline: time-range filtering, text search with context, segmentation (equal windows or pause-based), and formatting (raw, timestamped, merged). Multiple videos are combined in order; cues are tagged with their video ID.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input EnhancedTranscriptInput) (*mcp.CallToolResult, transcript.FormattedTranscript, error) {
		engine.IncrEnhancedRequests()

		ids, err := parseInputIDs(input.VideoIDs)
		if err != nil {
			return nil, transcript.FormattedTranscript{}, err
		}

		out, err := deps.Transcript.GetEnhanced(ctx, ids, input.toOptions())
		if err != nil {
			return nil, transcript.FormattedTranscript{}, err
		}
		return nil, *out, nil
	})
}

type VideoTranscriptsOutput struct {
	Results []transcript.VideoResult `json:"results"`
}

func registerVideoTranscripts(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_video_transcripts",
		Description: "Process transcripts for multiple YouTube videos with per-video isolation: one result entry per requested ID, in order, each holding either the processed transcript or an error with its kind (not_found, no_transcript, fetch_failed). One broken video never fails the batch.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input EnhancedTranscriptInput) (*mcp.CallToolResult, VideoTranscriptsOutput, error) {
		engine.IncrMultiVideoRequests()

		ids, err := parseInputIDs(input.VideoIDs)
		if err != nil {
			return nil, VideoTranscriptsOutput{}, err
		}

		results, err := deps.Transcript.ProcessVideos(ctx, ids, input.toOptions())
		if err != nil {
			return nil, VideoTranscriptsOutput{}, err
		}
		return nil, VideoTranscriptsOutput{Results: results}, nil
	})
}
