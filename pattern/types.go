// Package pattern implements the two pattern-matching strategies analysers
// use to find candidate evidence in connector output, and the
// proximity-based grouping that turns many raw matches into a bounded set
// of representative matches suitable for evidence extraction.
package pattern

// Type distinguishes how a Match was produced.
type Type string

const (
	// WordBoundary matches were found by case-insensitive, word-boundary
	// aware substring search (WordBoundaryMatcher).
	WordBoundary Type = "word_boundary"
	// Regex matches were found by a compiled regular expression
	// (RegexMatcher), used for "value pattern" rules that check shape
	// rather than vocabulary.
	Regex Type = "regex"
)

// Match is a single location where a pattern was found in content.
type Match struct {
	Pattern string
	Type    Type
	Start   int
	End     int
}

// Result is the outcome of matching one pattern against one piece of
// content.
type Result struct {
	// FirstMatch is the earliest match found, or nil if Pattern did not
	// occur in Content.
	FirstMatch *Match
	// MatchCount is the total number of (possibly overlapping per the
	// underlying matcher's semantics) occurrences found.
	MatchCount int
}
