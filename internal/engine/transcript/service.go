package transcript

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Service is the transcript pipeline entry point. All collaborators are
// injected; the service holds no ambient global state.
type Service struct {
	source      CaptionSource
	meta        MetadataProvider
	cache       *cueCache
	concurrency int
}

// ServiceOption customizes Service creation.
type ServiceOption func(*Service)

// WithCacheTTL overrides the cue cache TTL (default one hour).
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.cache = newCueCache(ttl) }
}

// WithConcurrency bounds parallel per-video fetches in multi-video runs.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService builds a Service around a caption source and metadata provider.
func NewService(source CaptionSource, meta MetadataProvider, opts ...ServiceOption) *Service {
	s := &Service{
		source:      source,
		meta:        meta,
		cache:       newCueCache(DefaultCacheTTL),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTranscript returns the raw cue sequence for one video, consulting the
// cue cache first. A fetch that yields zero cues reports ErrCaptionsUnavailable.
func (s *Service) GetTranscript(ctx context.Context, videoID, language string) ([]Cue, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, &ValidationError{Field: "video_id", Reason: "must not be empty"}
	}
	if cues, ok := s.cache.get(videoID, language); ok {
		return cues, nil
	}
	cues, err := s.source.FetchCaptions(ctx, videoID, language)
	if err != nil {
		return nil, err
	}
	if len(cues) == 0 {
		return nil, ErrCaptionsUnavailable
	}
	s.cache.put(videoID, language, cues)
	return cues, nil
}

// GetEnhanced fetches, filters and formats a single combined transcript across
// one or more videos. Videos are concatenated in caller-supplied order; with
// more than one video every cue carries its originating video ID. Videos that
// fail are skipped with a warning; the call errors only when none succeed.
func (s *Service) GetEnhanced(ctx context.Context, videoIDs []string, opts Options) (*FormattedTranscript, error) {
	opts = opts.normalized()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(videoIDs) == 0 {
		return nil, &ValidationError{Field: "video_ids", Reason: "at least one video ID is required"}
	}

	perVideo := make([][]Cue, len(videoIDs))
	fetchErrs := make([]error, len(videoIDs))
	metadata := make([]*VideoMetadata, len(videoIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range videoIDs {
		g.Go(func() error {
			perVideo[i], fetchErrs[i] = s.GetTranscript(gctx, id, opts.Language)
			return nil
		})
		if opts.IncludeMetadata {
			g.Go(func() error {
				md, err := s.meta.VideoDetails(gctx, id)
				if err != nil {
					slog.Warn("transcript: metadata lookup failed",
						slog.String("video_id", id), slog.Any("error", err))
					return nil
				}
				metadata[i] = md
				return nil
			})
		}
	}
	g.Wait() //nolint:errcheck // goroutines never return errors, failures are per-slot

	multi := len(videoIDs) > 1
	var combined []Cue
	var included []string
	var firstErr error
	for i, id := range videoIDs {
		if fetchErrs[i] != nil {
			if firstErr == nil {
				firstErr = fetchErrs[i]
			}
			slog.Warn("transcript: video skipped",
				slog.String("video_id", id), slog.Any("error", fetchErrs[i]))
			continue
		}
		cues := perVideo[i]
		if multi {
			for j := range cues {
				cues[j].VideoID = id
			}
		}
		combined = append(combined, cues...)
		included = append(included, id)
	}
	if len(combined) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, ErrCaptionsUnavailable
	}

	cues, segs := runPipeline(combined, opts)
	out := renderResult(cues, segs, opts)
	out.VideoIDs = included
	if opts.IncludeMetadata {
		for _, md := range metadata {
			if md != nil {
				out.Metadata = append(out.Metadata, *md)
			}
		}
	}
	return out, nil
}

// ProcessVideos runs the pipeline for each video independently. The result
// always has exactly one entry per input ID, each either a transcript payload
// or an error payload; one video's failure never aborts the others.
func (s *Service) ProcessVideos(ctx context.Context, videoIDs []string, opts Options) ([]VideoResult, error) {
	opts = opts.normalized()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(videoIDs) == 0 {
		return nil, &ValidationError{Field: "video_ids", Reason: "at least one video ID is required"}
	}

	results := make([]VideoResult, len(videoIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range videoIDs {
		g.Go(func() error {
			results[i] = s.processOne(gctx, id, opts)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // failures are captured per result entry
	return results, nil
}

func (s *Service) processOne(ctx context.Context, videoID string, opts Options) VideoResult {
	res := VideoResult{VideoID: videoID}

	md, err := s.meta.VideoDetails(ctx, videoID)
	switch {
	case errors.Is(err, ErrMetadataNotFound):
		res.Error = err.Error()
		res.ErrorKind = ErrKindNotFound
		return res
	case err != nil:
		// Transport-level metadata failure degrades to no metadata; the
		// transcript may still be fetchable.
		slog.Warn("transcript: metadata lookup failed",
			slog.String("video_id", videoID), slog.Any("error", err))
	default:
		res.Metadata = md
	}

	raw, err := s.GetTranscript(ctx, videoID, opts.Language)
	if err != nil {
		res.Metadata = nil
		res.Error = err.Error()
		res.ErrorKind = errorKind(err)
		return res
	}

	cues, segs := runPipeline(raw, opts)
	out := renderResult(cues, segs, opts)
	out.VideoIDs = []string{videoID}
	res.Transcript = out
	return res
}

// runPipeline applies the filters in their fixed order: time range → search →
// segmentation. Segmentation is terminal; the equal method additionally runs
// the legacy flat regroup first (a no-op on sequence content).
func runPipeline(cues []Cue, opts Options) ([]Cue, []Segment) {
	cues = FilterTimeRange(cues, opts.Range)
	cues = FilterSearch(cues, opts.Search)
	if opts.Segments == nil {
		return cues, nil
	}
	if opts.Segments.Method == MethodEqual {
		cues = regroupEqual(cues, opts.Segments.Count)
	}
	return cues, SegmentCues(cues, opts.Segments)
}

func renderResult(cues []Cue, segs []Segment, opts Options) *FormattedTranscript {
	if len(segs) > 0 {
		return RenderSegments(segs, opts.Format)
	}
	return Render(cues, opts.Format)
}

// normalized fills option defaults: timestamped format, equal segmentation
// method, default search context.
func (o Options) normalized() Options {
	if o.Format == "" {
		o.Format = FormatTimestamped
	}
	if o.Segments != nil && o.Segments.Method == "" {
		seg := *o.Segments
		seg.Method = MethodEqual
		o.Segments = &seg
	}
	if o.Search != nil && o.Search.ContextLines < 0 {
		sp := *o.Search
		sp.ContextLines = DefaultContextLines
		o.Search = &sp
	}
	return o
}

// validate rejects malformed options before any I/O happens.
func (o Options) validate() error {
	switch o.Format {
	case FormatRaw, FormatTimestamped, FormatMerged:
	default:
		return &ValidationError{Field: "format", Reason: "must be raw, timestamped or merged"}
	}
	if tr := o.Range; tr != nil {
		if tr.Start != nil && *tr.Start < 0 {
			return &ValidationError{Field: "time_range", Reason: "start must be >= 0"}
		}
		if tr.End != nil && *tr.End < 0 {
			return &ValidationError{Field: "time_range", Reason: "end must be >= 0"}
		}
		if tr.Start != nil && tr.End != nil && *tr.Start > *tr.End {
			return &ValidationError{Field: "time_range", Reason: "start must not exceed end"}
		}
	}
	if o.Search != nil && strings.TrimSpace(o.Search.Query) == "" {
		return &ValidationError{Field: "search", Reason: "query must not be empty"}
	}
	if o.Segments != nil {
		if o.Segments.Count < 1 {
			return &ValidationError{Field: "segments", Reason: "count must be >= 1"}
		}
		switch o.Segments.Method {
		case MethodEqual, MethodSmart:
		default:
			return &ValidationError{Field: "segments", Reason: "method must be equal or smart"}
		}
	}
	return nil
}
