package transcript

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the pipeline. Both are expected conditions:
// callers degrade (multi-video) or report (single-video), never retry.
var (
	ErrCaptionsUnavailable = errors.New("no captions available for this video/language")
	ErrMetadataNotFound    = errors.New("video metadata not found")
)

// SourceError wraps a transport or parse failure while fetching captions,
// keeping the video ID and language for diagnostics.
type SourceError struct {
	VideoID  string
	Language string
	Err      error
}

func (e *SourceError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("caption source failed for %s (lang %s): %v", e.VideoID, e.Language, e.Err)
	}
	return fmt.Sprintf("caption source failed for %s: %v", e.VideoID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ValidationError reports malformed options, rejected before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// errorKind classifies an error for a VideoResult error payload.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrCaptionsUnavailable):
		return ErrKindNoTranscript
	case errors.Is(err, ErrMetadataNotFound):
		return ErrKindNotFound
	default:
		return ErrKindFetchFailed
	}
}
