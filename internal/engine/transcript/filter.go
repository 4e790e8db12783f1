package transcript

import (
	"sort"
	"strings"
)

// DefaultContextLines is used when a SearchSpec leaves ContextLines unset.
const DefaultContextLines = 2

// FilterTimeRange keeps cues fully inside the window: a cue is kept iff it
// starts at or after Start and (when End is set) ends at or before End.
// Cues straddling a boundary are excluded, not truncated.
func FilterTimeRange(cues []Cue, tr *TimeRange) []Cue {
	if tr == nil || (tr.Start == nil && tr.End == nil) || len(cues) == 0 {
		return cues
	}
	out := make([]Cue, 0, len(cues))
	for _, c := range cues {
		startSec := float64(c.Offset) / 1000
		endSec := float64(c.Offset+c.Duration) / 1000
		if tr.Start != nil && startSec < *tr.Start {
			continue
		}
		if tr.End != nil && endSec > *tr.End {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FilterSearch keeps cues whose text contains the query as a substring, plus
// ContextLines neighbours on each side of every match. Included indices are
// unioned across matches, deduplicated and returned in original order.
// Zero matches yield an empty sequence, never the unfiltered input.
func FilterSearch(cues []Cue, spec *SearchSpec) []Cue {
	if spec == nil || spec.Query == "" || len(cues) == 0 {
		return cues
	}
	ctxLines := spec.ContextLines
	if ctxLines < 0 {
		ctxLines = DefaultContextLines
	}

	query := spec.Query
	if !spec.CaseSensitive {
		query = strings.ToLower(query)
	}

	included := make(map[int]bool)
	for i, c := range cues {
		text := c.Text
		if !spec.CaseSensitive {
			text = strings.ToLower(text)
		}
		if !strings.Contains(text, query) {
			continue
		}
		lo := i - ctxLines
		if lo < 0 {
			lo = 0
		}
		hi := i + ctxLines
		if hi > len(cues)-1 {
			hi = len(cues) - 1
		}
		for j := lo; j <= hi; j++ {
			included[j] = true
		}
	}

	if len(included) == 0 {
		return []Cue{}
	}
	idx := make([]int, 0, len(included))
	for i := range included {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]Cue, 0, len(idx))
	for _, i := range idx {
		out = append(out, cues[i])
	}
	return out
}
