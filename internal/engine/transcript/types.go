// Package transcript implements the caption transcript pipeline: cached cue
// fetching, composable filters (time range, search with context, segmentation)
// and rendering into raw, timestamped or merged representations, for one or
// many videos at a time.
package transcript

import "context"

// Cue is one timed caption unit. Offsets and durations are milliseconds from
// the start of the video. Cues are immutable once fetched; every transform in
// this package produces a new slice.
type Cue struct {
	Text     string `json:"text"`
	Offset   int64  `json:"offset"`
	Duration int64  `json:"duration"`
	VideoID  string `json:"video_id,omitempty"` // set only in multi-video output
}

// TimeRange restricts cues to a window, in seconds. Nil bound = open side.
type TimeRange struct {
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// SearchSpec selects cues whose text contains Query, plus ContextLines
// neighbouring cues on each side of every match.
type SearchSpec struct {
	Query         string `json:"query"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
	ContextLines  int    `json:"context_lines,omitempty"`
}

// Segmentation methods.
const (
	MethodEqual = "equal" // equal-duration time windows
	MethodSmart = "smart" // pause-based boundaries
)

// SegmentSpec asks for the cue sequence to be split into at most Count segments.
type SegmentSpec struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
}

// Format selects the output representation.
type Format string

const (
	FormatRaw         Format = "raw"
	FormatTimestamped Format = "timestamped"
	FormatMerged      Format = "merged"
)

// Options control one pipeline invocation. Constructed per request, read-only.
type Options struct {
	Language        string
	Range           *TimeRange
	Search          *SearchSpec
	Segments        *SegmentSpec
	Format          Format
	IncludeMetadata bool
}

// LanguageOptions is the shorthand for "just a language code, defaults for
// everything else".
func LanguageOptions(lang string) Options {
	return Options{Language: lang}
}

// Segment is a time-bounded group of cues produced by the segmentation stage.
// Start and End are formatted timestamps (M:SS).
type Segment struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
	Cues  []Cue  `json:"cues"`
}

// VideoMetadata is a denormalized snapshot of a video, fetched once per video
// per request when Options.IncludeMetadata is set.
type VideoMetadata struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	PublishedAt  string `json:"published_at"`
	Duration     int64  `json:"duration"` // seconds
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
}

// FormattedTranscript is the rendered output of the pipeline.
// TotalSegments is the included cue count; Duration is the span from the start
// of the first cue to the end of the last, in seconds.
type FormattedTranscript struct {
	VideoIDs      []string        `json:"video_ids"`
	Format        Format          `json:"format"`
	TotalSegments int             `json:"total_segments"`
	Duration      float64         `json:"duration"`
	Text          string          `json:"text,omitempty"`
	Cues          []Cue           `json:"cues,omitempty"`
	Segments      []Segment       `json:"segments,omitempty"`
	Metadata      []VideoMetadata `json:"metadata,omitempty"`
}

// Error kinds reported in VideoResult.ErrorKind.
const (
	ErrKindNotFound     = "not_found"     // video metadata absent (deleted/private)
	ErrKindNoTranscript = "no_transcript" // captions unavailable for video/language
	ErrKindFetchFailed  = "fetch_failed"  // transport or parse failure
)

// VideoResult is one entry of a multi-video run: either a transcript payload
// or an error payload, never both.
type VideoResult struct {
	VideoID    string               `json:"video_id"`
	Metadata   *VideoMetadata       `json:"metadata,omitempty"`
	Transcript *FormattedTranscript `json:"transcript,omitempty"`
	Error      string               `json:"error,omitempty"`
	ErrorKind  string               `json:"error_kind,omitempty"`
}

// CaptionSource fetches raw caption cues for one video and language.
// Implementations report ErrCaptionsUnavailable when no captions exist and
// *SourceError for transport-level failures.
type CaptionSource interface {
	FetchCaptions(ctx context.Context, videoID, language string) ([]Cue, error)
}

// MetadataProvider looks up video metadata. Absent videos are reported with
// ErrMetadataNotFound.
type MetadataProvider interface {
	VideoDetails(ctx context.Context, videoID string) (*VideoMetadata, error)
}
