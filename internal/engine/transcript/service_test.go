package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeSource serves canned cues per video ID and counts fetches.
type fakeSource struct {
	cues    map[string][]Cue
	errs    map[string]error
	fetches atomic.Int64
}

func (f *fakeSource) FetchCaptions(_ context.Context, videoID, language string) ([]Cue, error) {
	f.fetches.Add(1)
	if err, ok := f.errs[videoID]; ok {
		return nil, err
	}
	cues, ok := f.cues[videoID]
	if !ok {
		return nil, ErrCaptionsUnavailable
	}
	return cues, nil
}

// fakeMeta serves canned metadata per video ID.
type fakeMeta struct {
	videos map[string]*VideoMetadata
}

func (f *fakeMeta) VideoDetails(_ context.Context, videoID string) (*VideoMetadata, error) {
	md, ok := f.videos[videoID]
	if !ok {
		return nil, ErrMetadataNotFound
	}
	return md, nil
}

func newTestService(src *fakeSource, meta *fakeMeta) *Service {
	if meta == nil {
		meta = &fakeMeta{videos: map[string]*VideoMetadata{}}
	}
	return NewService(src, meta, WithConcurrency(2))
}

func helloWorldCues() []Cue {
	return []Cue{
		cue("hello", 0, 1000),
		cue("world", 5000, 1000),
	}
}

func TestGetTranscript(t *testing.T) {
	t.Run("fetches and returns cues", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)

		got, err := svc.GetTranscript(context.Background(), "vid1", "en")
		if err != nil {
			t.Fatalf("GetTranscript: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d cues, want 2", len(got))
		}
	})

	t.Run("second call within TTL hits cache", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)
		ctx := context.Background()

		if _, err := svc.GetTranscript(ctx, "vid1", "en"); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.GetTranscript(ctx, "vid1", "en"); err != nil {
			t.Fatal(err)
		}
		if n := src.fetches.Load(); n != 1 {
			t.Errorf("external fetches = %d, want 1", n)
		}
	})

	t.Run("languages cached independently", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)
		ctx := context.Background()

		svc.GetTranscript(ctx, "vid1", "en")
		svc.GetTranscript(ctx, "vid1", "de")
		if n := src.fetches.Load(); n != 2 {
			t.Errorf("external fetches = %d, want 2", n)
		}
	})

	t.Run("captions unavailable", func(t *testing.T) {
		src := &fakeSource{}
		svc := newTestService(src, nil)

		_, err := svc.GetTranscript(context.Background(), "nope", "")
		if !errors.Is(err, ErrCaptionsUnavailable) {
			t.Errorf("err = %v, want ErrCaptionsUnavailable", err)
		}
	})

	t.Run("source errors pass through and are not cached", func(t *testing.T) {
		srcErr := &SourceError{VideoID: "vid1", Err: errors.New("boom")}
		src := &fakeSource{errs: map[string]error{"vid1": srcErr}}
		svc := newTestService(src, nil)
		ctx := context.Background()

		var se *SourceError
		if _, err := svc.GetTranscript(ctx, "vid1", ""); !errors.As(err, &se) {
			t.Fatalf("err = %v, want *SourceError", err)
		}
		svc.GetTranscript(ctx, "vid1", "")
		if n := src.fetches.Load(); n != 2 {
			t.Errorf("failed fetch was cached: fetches = %d, want 2", n)
		}
	})

	t.Run("empty video ID rejected before I/O", func(t *testing.T) {
		src := &fakeSource{}
		svc := newTestService(src, nil)

		var ve *ValidationError
		if _, err := svc.GetTranscript(context.Background(), " ", ""); !errors.As(err, &ve) {
			t.Fatalf("err = %v, want *ValidationError", err)
		}
		if src.fetches.Load() != 0 {
			t.Error("validation failure still hit the source")
		}
	})
}

func TestGetEnhanced(t *testing.T) {
	ctx := context.Background()

	t.Run("time range filter", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"vid1"}, Options{
			Range:  &TimeRange{Start: f64(4)},
			Format: FormatRaw,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Cues) != 1 || out.Cues[0].Text != "world" {
			t.Errorf("got %v, want only world", texts(out.Cues))
		}
	})

	t.Run("search filter", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"vid1"}, Options{
			Search: &SearchSpec{Query: "hello"},
			Format: FormatRaw,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Cues) != 1 || out.Cues[0].Text != "hello" {
			t.Errorf("got %v, want only hello", texts(out.Cues))
		}
	})

	t.Run("default format is timestamped", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"vid1"}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if out.Format != FormatTimestamped || !strings.HasPrefix(out.Text, "[0:00] hello") {
			t.Errorf("format %q text %q", out.Format, out.Text)
		}
	})

	t.Run("multi-video concatenated in caller order with cue tags", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{
			"b": {cue("from b", 0, 1000)},
			"a": {cue("from a", 9000, 1000)},
		}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"b", "a"}, Options{Format: FormatRaw})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Cues) != 2 {
			t.Fatalf("got %d cues", len(out.Cues))
		}
		// Caller order, not time order.
		if out.Cues[0].Text != "from b" || out.Cues[1].Text != "from a" {
			t.Errorf("order = %v, want caller-supplied", texts(out.Cues))
		}
		if out.Cues[0].VideoID != "b" || out.Cues[1].VideoID != "a" {
			t.Errorf("cue video tags = %q, %q", out.Cues[0].VideoID, out.Cues[1].VideoID)
		}
	})

	t.Run("single video cues are untagged", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"vid1"}, Options{Format: FormatRaw})
		if err != nil {
			t.Fatal(err)
		}
		if out.Cues[0].VideoID != "" {
			t.Errorf("single-video cue tagged with %q", out.Cues[0].VideoID)
		}
	})

	t.Run("partial failure keeps the rest", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"good": helloWorldCues()}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"bad", "good"}, Options{Format: FormatRaw})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.VideoIDs) != 1 || out.VideoIDs[0] != "good" {
			t.Errorf("VideoIDs = %v", out.VideoIDs)
		}
	})

	t.Run("all videos failing returns the first error", func(t *testing.T) {
		src := &fakeSource{}
		svc := newTestService(src, nil)

		_, err := svc.GetEnhanced(ctx, []string{"x", "y"}, Options{})
		if !errors.Is(err, ErrCaptionsUnavailable) {
			t.Errorf("err = %v, want ErrCaptionsUnavailable", err)
		}
	})

	t.Run("metadata enrichment skips missing videos", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{
			"known":   helloWorldCues(),
			"unknown": {cue("x", 0, 500)},
		}}
		meta := &fakeMeta{videos: map[string]*VideoMetadata{
			"known": {ID: "known", Title: "A Video"},
		}}
		svc := newTestService(src, meta)

		out, err := svc.GetEnhanced(ctx, []string{"known", "unknown"}, Options{
			Format:          FormatMerged,
			IncludeMetadata: true,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Metadata) != 1 || out.Metadata[0].Title != "A Video" {
			t.Errorf("metadata = %+v", out.Metadata)
		}
	})

	t.Run("segmented output", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": {
			cue("a", 0, 1000),
			cue("b", 10000, 1000),
			cue("c", 20000, 1000),
			cue("d", 30000, 1000),
		}}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"vid1"}, Options{
			Segments: &SegmentSpec{Method: MethodEqual, Count: 2},
			Format:   FormatRaw,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Segments) != 2 {
			t.Errorf("got %d segments, want 2", len(out.Segments))
		}
	})

	t.Run("segmented multi-video keeps caller order", func(t *testing.T) {
		// vid1's cues start after vid2's; the combined sequence is therefore
		// not time-ordered and segmentation must still place every cue.
		src := &fakeSource{cues: map[string][]Cue{
			"vid1": {cue("late", 10000, 1000), cue("later", 30000, 1000)},
			"vid2": {cue("early", 0, 1000)},
		}}
		svc := newTestService(src, nil)

		out, err := svc.GetEnhanced(ctx, []string{"vid1", "vid2"}, Options{
			Segments: &SegmentSpec{Method: MethodEqual, Count: 2},
			Format:   FormatRaw,
		})
		if err != nil {
			t.Fatal(err)
		}
		total := 0
		for _, s := range out.Segments {
			total += len(s.Cues)
		}
		if total != 3 {
			t.Errorf("segments hold %d cues, want 3", total)
		}
		if out.Duration != 31 {
			t.Errorf("Duration = %v, want 31", out.Duration)
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		svc := newTestService(src, nil)

		tests := []struct {
			name string
			opts Options
		}{
			{"empty search query", Options{Search: &SearchSpec{Query: "  "}}},
			{"start after end", Options{Range: &TimeRange{Start: f64(10), End: f64(5)}}},
			{"negative start", Options{Range: &TimeRange{Start: f64(-1)}}},
			{"unknown format", Options{Format: Format("xml")}},
			{"segment count zero", Options{Segments: &SegmentSpec{Method: MethodEqual, Count: 0}}},
			{"unknown segment method", Options{Segments: &SegmentSpec{Method: "semantic", Count: 2}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var ve *ValidationError
				if _, err := svc.GetEnhanced(ctx, []string{"vid1"}, tt.opts); !errors.As(err, &ve) {
					t.Errorf("err = %v, want *ValidationError", err)
				}
			})
		}
		if src.fetches.Load() != 0 {
			t.Error("validation failures reached the caption source")
		}
	})
}

func TestProcessVideos(t *testing.T) {
	ctx := context.Background()

	t.Run("one result per input, failures isolated", func(t *testing.T) {
		src := &fakeSource{
			cues: map[string][]Cue{"good1": helloWorldCues(), "good2": helloWorldCues()},
			errs: map[string]error{"broken": &SourceError{VideoID: "broken", Err: errors.New("timeout")}},
		}
		meta := &fakeMeta{videos: map[string]*VideoMetadata{
			"good1":  {ID: "good1"},
			"good2":  {ID: "good2"},
			"broken": {ID: "broken"},
		}}
		svc := newTestService(src, meta)

		ids := []string{"good1", "broken", "good2"}
		results, err := svc.ProcessVideos(ctx, ids, Options{Format: FormatMerged})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != len(ids) {
			t.Fatalf("got %d results, want %d", len(results), len(ids))
		}
		for i, id := range ids {
			if results[i].VideoID != id {
				t.Errorf("result %d is %q, want %q (order must match input)", i, results[i].VideoID, id)
			}
		}
		if results[1].Error == "" || results[1].ErrorKind != ErrKindFetchFailed {
			t.Errorf("broken entry = %+v", results[1])
		}
		if results[0].Transcript == nil || results[2].Transcript == nil {
			t.Error("good entries missing transcript payloads")
		}
	})

	t.Run("missing metadata yields not_found", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"ghost": helloWorldCues()}}
		svc := newTestService(src, &fakeMeta{videos: map[string]*VideoMetadata{}})

		results, err := svc.ProcessVideos(ctx, []string{"ghost"}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if results[0].ErrorKind != ErrKindNotFound {
			t.Errorf("ErrorKind = %q, want %q", results[0].ErrorKind, ErrKindNotFound)
		}
	})

	t.Run("missing captions yields no_transcript", func(t *testing.T) {
		src := &fakeSource{}
		meta := &fakeMeta{videos: map[string]*VideoMetadata{"silent": {ID: "silent"}}}
		svc := newTestService(src, meta)

		results, err := svc.ProcessVideos(ctx, []string{"silent"}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if results[0].ErrorKind != ErrKindNoTranscript {
			t.Errorf("ErrorKind = %q, want %q", results[0].ErrorKind, ErrKindNoTranscript)
		}
	})

	t.Run("filters re-run against cached raw cues", func(t *testing.T) {
		src := &fakeSource{cues: map[string][]Cue{"vid1": helloWorldCues()}}
		meta := &fakeMeta{videos: map[string]*VideoMetadata{"vid1": {ID: "vid1"}}}
		svc := newTestService(src, meta)

		first, err := svc.ProcessVideos(ctx, []string{"vid1"}, Options{
			Search: &SearchSpec{Query: "hello"}, Format: FormatMerged,
		})
		if err != nil {
			t.Fatal(err)
		}
		second, err := svc.ProcessVideos(ctx, []string{"vid1"}, Options{
			Search: &SearchSpec{Query: "world"}, Format: FormatMerged,
		})
		if err != nil {
			t.Fatal(err)
		}
		if first[0].Transcript.Text != "hello" || second[0].Transcript.Text != "world" {
			t.Errorf("texts = %q / %q, want hello / world",
				first[0].Transcript.Text, second[0].Transcript.Text)
		}
		if n := src.fetches.Load(); n != 1 {
			t.Errorf("external fetches = %d, want 1 (raw cues cached once)", n)
		}
	})
}

func TestLanguageOptions(t *testing.T) {
	opts := LanguageOptions("de")
	if opts.Language != "de" {
		t.Errorf("Language = %q", opts.Language)
	}
	if err := opts.normalized().validate(); err != nil {
		t.Errorf("shorthand options invalid: %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrCaptionsUnavailable, ErrKindNoTranscript},
		{fmt.Errorf("wrapped: %w", ErrCaptionsUnavailable), ErrKindNoTranscript},
		{ErrMetadataNotFound, ErrKindNotFound},
		{&SourceError{VideoID: "v", Err: errors.New("boom")}, ErrKindFetchFailed},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
