package pattern_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/pattern"
)

func TestWordBoundaryMatcherBoundaries(t *testing.T) {
	m := pattern.NewWordBoundaryMatcher()

	r := m.FindMatch("user dna sample", "dna")
	require.NotNil(t, r.FirstMatch)
	assert.Equal(t, pattern.WordBoundary, r.FirstMatch.Type)

	assert.NotNil(t, m.FindMatch("user_dna_sample", "dna").FirstMatch)
	assert.NotNil(t, m.FindMatch(`"dna": "value"`, "dna").FirstMatch)
	assert.NotNil(t, m.FindMatch("field-email-address", "email").FirstMatch)
	assert.NotNil(t, m.FindMatch("data.dna.sequence", "dna").FirstMatch)
}

func TestWordBoundaryMatcherStartEnd(t *testing.T) {
	m := pattern.NewWordBoundaryMatcher()

	r := m.FindMatch("dna sequence here", "dna")
	require.NotNil(t, r.FirstMatch)
	assert.Equal(t, 0, r.FirstMatch.Start)

	content := "contains some dna"
	r = m.FindMatch(content, "dna")
	require.NotNil(t, r.FirstMatch)
	assert.Equal(t, len(content), r.FirstMatch.End)
}

func TestWordBoundaryMatcherNoFalsePositives(t *testing.T) {
	m := pattern.NewWordBoundaryMatcher()

	assert.Nil(t, m.FindMatch("package", "age").FirstMatch)
	assert.Nil(t, m.FindMatch("relationship", "ip").FirstMatch)
	assert.Nil(t, m.FindMatch("message", "age").FirstMatch)
	assert.Nil(t, m.FindMatch("storage", "age").FirstMatch)

	assert.Nil(t, m.FindMatch("EDYvj90wmildna5h31gzvsWw30apC1s", "dna").FirstMatch)
	assert.Nil(t, m.FindMatch("eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.agedna123", "age").FirstMatch)
}

func TestWordBoundaryMatcherCaseInsensitive(t *testing.T) {
	m := pattern.NewWordBoundaryMatcher()

	assert.NotNil(t, m.FindMatch("user DNA sample", "dna").FirstMatch)
	assert.NotNil(t, m.FindMatch("user dna sample", "DNA").FirstMatch)
	assert.NotNil(t, m.FindMatch("USER EMAIL ADDRESS", "email").FirstMatch)
}

func TestWordBoundaryMatcherEmptyInputs(t *testing.T) {
	m := pattern.NewWordBoundaryMatcher()

	r := m.FindMatch("", "dna")
	assert.Nil(t, r.FirstMatch)
	assert.Equal(t, 0, r.MatchCount)

	r = m.FindMatch("some content", "")
	assert.Nil(t, r.FirstMatch)
	assert.Equal(t, 0, r.MatchCount)
}

func TestWordBoundaryMatcherMatchCount(t *testing.T) {
	m := pattern.NewWordBoundaryMatcher()

	assert.Equal(t, 1, m.FindMatch("user email address", "email").MatchCount)

	r := m.FindMatch("dna sample dna test dna", "dna")
	assert.Equal(t, 3, r.MatchCount)
	require.NotNil(t, r.FirstMatch)
	assert.Equal(t, 0, r.FirstMatch.Start)

	assert.Equal(t, 0, m.FindMatch("package storage", "dna").MatchCount)
}

func TestGroupByProximityEmpty(t *testing.T) {
	result := pattern.GroupByProximity(nil, 200, 10, pattern.Regex)
	assert.Empty(t, result)
}

func TestGroupByProximitySingleMatch(t *testing.T) {
	matches, err := pattern.FindAllIndices("test content", "test", pattern.Regex)
	require.NoError(t, err)

	result := pattern.GroupByProximity(matches, 200, 10, pattern.Regex)
	require.Len(t, result, 1)
	assert.Equal(t, 0, result[0].Start)
	assert.Equal(t, 4, result[0].End)
}

func TestGroupByProximityDenseMatchesFormSingleGroup(t *testing.T) {
	content := "test1 test2 test3"
	matches, err := pattern.FindAllIndices(content, `test\d`, pattern.Regex)
	require.NoError(t, err)

	result := pattern.GroupByProximity(matches, 200, 10, pattern.Regex)
	require.Len(t, result, 1)
	assert.Equal(t, 0, result[0].Start)
	assert.Equal(t, 5, result[0].End)
}

func TestGroupByProximitySpreadMatchesFormSeparateGroups(t *testing.T) {
	content := "test" + strings.Repeat("x", 300) + "test" + strings.Repeat("x", 300) + "test"
	matches, err := pattern.FindAllIndices(content, "test", pattern.Regex)
	require.NoError(t, err)

	result := pattern.GroupByProximity(matches, 200, 10, pattern.Regex)
	require.Len(t, result, 3)
	assert.Equal(t, 0, result[0].Start)
	assert.Equal(t, 304, result[1].Start)
	assert.Equal(t, 608, result[2].Start)
}

func TestGroupByProximityThresholdBoundary(t *testing.T) {
	content := "test1" + strings.Repeat("x", 200) + "test2"
	matches, err := pattern.FindAllIndices(content, `test\d`, pattern.Regex)
	require.NoError(t, err)
	result := pattern.GroupByProximity(matches, 200, 10, pattern.Regex)
	assert.Len(t, result, 1, "exactly-at-threshold gap stays in the same group")

	content = "test1" + strings.Repeat("x", 201) + "test2"
	matches, err = pattern.FindAllIndices(content, `test\d`, pattern.Regex)
	require.NoError(t, err)
	result = pattern.GroupByProximity(matches, 200, 10, pattern.Regex)
	assert.Len(t, result, 2, "beyond-threshold gap starts a new group")
}

func TestGroupByProximityMaxRepresentatives(t *testing.T) {
	content := "test" + strings.Repeat("x", 300) + "test" + strings.Repeat("x", 300) +
		"test" + strings.Repeat("x", 300) + "test"
	matches, err := pattern.FindAllIndices(content, "test", pattern.Regex)
	require.NoError(t, err)

	result := pattern.GroupByProximity(matches, 1, 3, pattern.Regex)
	require.Len(t, result, 3)
	assert.Equal(t, 0, result[0].Start)
	assert.Equal(t, 304, result[1].Start)
	assert.Equal(t, 608, result[2].Start)
}

func TestGroupByProximityOverlappingAndAdjoining(t *testing.T) {
	content := "testtesttest"
	matches, err := pattern.FindAllIndices(content, "test", pattern.Regex)
	require.NoError(t, err)

	result := pattern.GroupByProximity(matches, 200, 10, pattern.Regex)
	require.Len(t, result, 1)
	assert.Equal(t, 0, result[0].Start)
}

func TestGroupByProximityPatternTypePreserved(t *testing.T) {
	matches, err := pattern.FindAllIndices("test", "test", pattern.Regex)
	require.NoError(t, err)

	resultRegex := pattern.GroupByProximity(matches, 200, 10, pattern.Regex)
	resultWord := pattern.GroupByProximity(matches, 200, 10, pattern.WordBoundary)

	assert.Equal(t, pattern.Regex, resultRegex[0].Type)
	assert.Equal(t, pattern.WordBoundary, resultWord[0].Type)
}
