package pattern

// GroupByProximity collapses a list of matches (already sorted by Start, as
// produced by FindAllIndices) into representative matches: runs of matches
// whose gap to the previous match's end is no more than threshold
// characters are folded into a single group, represented by its first
// match's span. Groups farther apart than threshold start a new
// representative. The comparison is strict (> threshold splits groups); a
// gap exactly equal to threshold stays in the same group.
//
// The result is capped at maxRepresentatives groups; callers that want to
// know how many groups were dropped should compare len(matches) against the
// returned slice's coverage themselves (grouping does not report drops).
func GroupByProximity(matches []Match, threshold, maxRepresentatives int, patType Type) []Match {
	if len(matches) == 0 {
		return nil
	}

	var result []Match
	groupFirst := matches[0]
	lastEnd := matches[0].End

	flush := func() {
		result = append(result, Match{
			Pattern: groupFirst.Pattern,
			Type:    patType,
			Start:   groupFirst.Start,
			End:     groupFirst.End,
		})
	}

	for _, m := range matches[1:] {
		if m.Start-lastEnd > threshold {
			flush()
			groupFirst = m
		}
		if m.End > lastEnd {
			lastEnd = m.End
		}
	}
	flush()

	if len(result) > maxRepresentatives {
		result = result[:maxRepresentatives]
	}
	return result
}
