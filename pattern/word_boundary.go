package pattern

import "strings"

// WordBoundaryMatcher finds case-insensitive occurrences of a literal
// pattern that are not embedded inside a longer run of letters/digits. This
// deliberately differs from regexp's \b, which treats underscore as a word
// character: "user_dna_sample" must match "dna" (underscore is a boundary
// here), while "package" must not match "age" (the preceding 'k' is a
// letter, not a boundary).
type WordBoundaryMatcher struct{}

// NewWordBoundaryMatcher constructs a WordBoundaryMatcher. It holds no
// state and is safe for concurrent use; the constructor exists for
// consistency with RegexMatcher and future configurable variants.
func NewWordBoundaryMatcher() *WordBoundaryMatcher { return &WordBoundaryMatcher{} }

// FindMatch scans content for pat, returning the first match (if any) and
// the total number of occurrences that satisfy the word-boundary rule.
func (WordBoundaryMatcher) FindMatch(content, pat string) Result {
	if content == "" || pat == "" {
		return Result{}
	}

	lowerContent := strings.ToLower(content)
	lowerPat := strings.ToLower(pat)

	var result Result
	searchFrom := 0
	for {
		idx := strings.Index(lowerContent[searchFrom:], lowerPat)
		if idx < 0 {
			break
		}
		start := searchFrom + idx
		end := start + len(pat)

		if isBoundary(content, start) && isBoundary(content, end) {
			result.MatchCount++
			if result.FirstMatch == nil {
				result.FirstMatch = &Match{
					Pattern: pat,
					Type:    WordBoundary,
					Start:   start,
					End:     end,
				}
			}
		}
		searchFrom = start + 1
		if searchFrom >= len(lowerContent) {
			break
		}
	}
	return result
}

// FindAllWordBoundaryIndices returns every word-boundary-respecting match of
// pat in content, used by proximity grouping which needs every occurrence,
// not just the first (c.f. FindMatch).
func FindAllWordBoundaryIndices(content, pat string) []Match {
	if content == "" || pat == "" {
		return nil
	}

	lowerContent := strings.ToLower(content)
	lowerPat := strings.ToLower(pat)

	var matches []Match
	searchFrom := 0
	for {
		idx := strings.Index(lowerContent[searchFrom:], lowerPat)
		if idx < 0 {
			break
		}
		start := searchFrom + idx
		end := start + len(pat)

		if isBoundary(content, start) && isBoundary(content, end) {
			matches = append(matches, Match{Pattern: pat, Type: WordBoundary, Start: start, End: end})
		}
		searchFrom = start + 1
		if searchFrom >= len(lowerContent) {
			break
		}
	}
	return matches
}

// isBoundary reports whether pos is a word boundary within s: the start or
// end of the string, or a position adjacent to a non-alphanumeric byte.
// Underscore is treated as a boundary character, unlike regexp's \b.
func isBoundary(s string, pos int) bool {
	if pos <= 0 || pos >= len(s) {
		return true
	}
	return !isWordByte(s[pos-1]) || !isWordByte(s[pos])
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
