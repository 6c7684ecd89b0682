package pattern

import "regexp"

// RegexMatcher finds occurrences of a compiled "value pattern" — a regular
// expression checking the shape of a value (e.g. an email address or a
// credit-card-like digit run) rather than matching vocabulary.
type RegexMatcher struct{}

// NewRegexMatcher constructs a RegexMatcher.
func NewRegexMatcher() *RegexMatcher { return &RegexMatcher{} }

// FindMatch compiles pat (case-insensitively) and scans content for
// occurrences, returning the first match and total count.
func (RegexMatcher) FindMatch(content, pat string) (Result, error) {
	if content == "" || pat == "" {
		return Result{}, nil
	}
	re, err := regexp.Compile("(?i)" + pat)
	if err != nil {
		return Result{}, err
	}
	locs := re.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return Result{}, nil
	}
	return Result{
		FirstMatch: &Match{
			Pattern: pat,
			Type:    Regex,
			Start:   locs[0][0],
			End:     locs[0][1],
		},
		MatchCount: len(locs),
	}, nil
}

// FindAllIndices returns the raw start/end index pairs for every match of
// pat in content, used by proximity grouping which needs every occurrence,
// not just the first.
func FindAllIndices(content, pat string, patType Type) ([]Match, error) {
	re, err := regexp.Compile("(?i)" + pat)
	if err != nil {
		return nil, err
	}
	locs := re.FindAllStringIndex(content, -1)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, Match{Pattern: pat, Type: patType, Start: loc[0], End: loc[1]})
	}
	return matches, nil
}
