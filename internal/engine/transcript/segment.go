package transcript

// Pause detection constants for the smart method: a gap is a segment boundary
// when it exceeds pauseFactor times the average positive gap, with a floor of
// minPauseMs.
const (
	pauseFactor = 3
	minPauseMs  = 1000
)

// segmentStrategy turns a flat cue sequence into at most count groups.
// The smart method sits behind this type so a future semantic scorer can
// replace the pause heuristic without touching the pipeline.
type segmentStrategy func(cues []Cue, count int) [][]Cue

// regroupEqual divides cues into count consecutive groups by cue count and
// concatenates them back into a flat sequence. This is the compatibility
// behavior of the equal method on the flat path: the regrouping has no
// observable effect on the sequence.
func regroupEqual(cues []Cue, count int) []Cue {
	if count <= 1 || count >= len(cues) {
		return cues
	}
	per := (len(cues) + count - 1) / count
	out := make([]Cue, 0, len(cues))
	for start := 0; start < len(cues); start += per {
		end := start + per
		if end > len(cues) {
			end = len(cues)
		}
		out = append(out, cues[start:end]...)
	}
	return out
}

// SegmentCues splits cues into at most count time-bounded segments. Equal
// divides the total time span into count equal-duration windows; smart breaks
// at pauses. Empty input yields no segments.
func SegmentCues(cues []Cue, spec *SegmentSpec) []Segment {
	if spec == nil || len(cues) == 0 {
		return nil
	}
	count := spec.Count
	if count < 1 {
		count = 1
	}
	var groups [][]Cue
	if spec.Method == MethodSmart {
		groups = pauseBoundaries(cues, count)
	} else {
		groups = timeWindows(cues, count)
	}

	segs := make([]Segment, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		first, last := g[0], g[len(g)-1]
		segs = append(segs, Segment{
			Start: FormatTimestamp(first.Offset),
			End:   FormatTimestamp(last.Offset + last.Duration),
			Cues:  g,
		})
	}
	return segs
}

// timeWindows assigns each cue to the equal-duration window containing its
// start offset. Windows are duration-based, not cue-count-based; empty
// windows are dropped. Windows span the min/max offset rather than the
// first/last cue: combined multi-video sequences keep caller ID order, so
// offsets are not monotonic.
func timeWindows(cues []Cue, count int) [][]Cue {
	if count <= 1 {
		return [][]Cue{cues}
	}
	lo, hi := offsetBounds(cues)
	span := hi - lo
	if span <= 0 {
		return [][]Cue{cues}
	}
	window := float64(span) / float64(count)

	groups := make([][]Cue, count)
	for _, c := range cues {
		i := int(float64(c.Offset-lo) / window)
		if i < 0 {
			i = 0
		}
		if i >= count {
			i = count - 1
		}
		groups[i] = append(groups[i], c)
	}
	return groups
}

// offsetBounds returns the smallest and largest cue start offset.
func offsetBounds(cues []Cue) (lo, hi int64) {
	lo, hi = cues[0].Offset, cues[0].Offset
	for _, c := range cues[1:] {
		if c.Offset < lo {
			lo = c.Offset
		}
		if c.Offset > hi {
			hi = c.Offset
		}
	}
	return lo, hi
}

// pauseBoundaries starts a new group whenever the silence before a cue exceeds
// the pause threshold, stopping after count-1 breaks so the final group
// absorbs all remaining cues. Yields at most count groups, fewer when the
// transcript has too few pauses.
func pauseBoundaries(cues []Cue, count int) [][]Cue {
	threshold := pauseThreshold(cues)

	var groups [][]Cue
	start := 0
	breaks := 0
	for i := 1; i < len(cues); i++ {
		if breaks >= count-1 {
			break
		}
		gap := cues[i].Offset - (cues[i-1].Offset + cues[i-1].Duration)
		if gap > threshold {
			groups = append(groups, cues[start:i])
			start = i
			breaks++
		}
	}
	groups = append(groups, cues[start:])
	return groups
}

// pauseThreshold is pauseFactor times the average positive inter-cue gap,
// floored at minPauseMs.
func pauseThreshold(cues []Cue) int64 {
	var total, n int64
	for i := 1; i < len(cues); i++ {
		gap := cues[i].Offset - (cues[i-1].Offset + cues[i-1].Duration)
		if gap > 0 {
			total += gap
			n++
		}
	}
	if n == 0 {
		return minPauseMs
	}
	threshold := pauseFactor * total / n
	if threshold < minPauseMs {
		threshold = minPauseMs
	}
	return threshold
}

var _ segmentStrategy = pauseBoundaries
