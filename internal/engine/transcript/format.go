package transcript

import (
	"fmt"
	"strings"
)

// FormatTimestamp renders milliseconds as M:SS, flooring to whole seconds.
// Minutes are unpadded, seconds always two digits; the same convention is
// used everywhere a timestamp appears.
func FormatTimestamp(ms int64) string {
	totalSec := ms / 1000
	return fmt.Sprintf("%d:%02d", totalSec/60, totalSec%60)
}

// Render builds the FormattedTranscript for a flat cue sequence.
func Render(cues []Cue, format Format) *FormattedTranscript {
	out := &FormattedTranscript{
		Format:        format,
		TotalSegments: len(cues),
		Duration:      spanSeconds(cues),
	}
	switch format {
	case FormatRaw:
		out.Cues = cues
	case FormatMerged:
		out.Text = mergedText(cues)
	default:
		out.Text = timestampedText(cues)
	}
	return out
}

// RenderSegments builds the FormattedTranscript for segmented output. Each
// segment becomes a "Segment <start> - <end>" header followed by its rendered
// cues; segments are joined by a blank line.
func RenderSegments(segs []Segment, format Format) *FormattedTranscript {
	total := 0
	var all []Cue
	for _, s := range segs {
		total += len(s.Cues)
		all = append(all, s.Cues...)
	}
	out := &FormattedTranscript{
		Format:        format,
		TotalSegments: total,
		Duration:      spanSeconds(all),
	}
	if format == FormatRaw {
		out.Segments = segs
		return out
	}

	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		var b strings.Builder
		fmt.Fprintf(&b, "Segment %s - %s\n", s.Start, s.End)
		if format == FormatMerged {
			b.WriteString(mergedText(s.Cues))
		} else {
			b.WriteString(timestampedText(s.Cues))
		}
		parts = append(parts, b.String())
	}
	out.Text = strings.Join(parts, "\n\n")
	return out
}

// spanSeconds is the transcript duration: latest cue end minus earliest cue
// start, in seconds. Computed over min/max rather than first/last because
// combined multi-video sequences are not time-ordered. Empty input spans zero.
func spanSeconds(cues []Cue) float64 {
	if len(cues) == 0 {
		return 0
	}
	start := cues[0].Offset
	end := cues[0].Offset + cues[0].Duration
	for _, c := range cues[1:] {
		if c.Offset < start {
			start = c.Offset
		}
		if e := c.Offset + c.Duration; e > end {
			end = e
		}
	}
	return float64(end-start) / 1000
}

// timestampedText renders each cue as "[M:SS] text" joined by newlines.
func timestampedText(cues []Cue) string {
	lines := make([]string, 0, len(cues))
	for _, c := range cues {
		lines = append(lines, fmt.Sprintf("[%s] %s", FormatTimestamp(c.Offset), c.Text))
	}
	return strings.Join(lines, "\n")
}

// mergedText concatenates cue texts with single spaces, no timestamps.
func mergedText(cues []Cue) string {
	texts := make([]string, 0, len(cues))
	for _, c := range cues {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, " ")
}
