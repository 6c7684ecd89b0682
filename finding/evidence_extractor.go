package finding

import (
	"sort"
	"strings"
	"time"

	"github.com/waivern/wct/pattern"
)

// ContextSize selects how much surrounding content an evidence snippet
// includes. The sizes mirror the original implementation's tiers.
type ContextSize string

const (
	ContextSmall  ContextSize = "small"
	ContextMedium ContextSize = "medium"
	ContextLarge  ContextSize = "large"
	// ContextFull returns the entire content as the snippet, regardless of
	// match position.
	ContextFull ContextSize = "full"
)

// contextChars maps a ContextSize to the number of characters of context
// to include on each side of a match span (before its start and after its
// end).
var contextChars = map[ContextSize]int{
	ContextSmall:  50,
	ContextMedium: 100,
	ContextLarge:  200,
}

func isFullContext(size ContextSize) bool { return size == ContextFull }

// EvidenceExtractor turns representative pattern matches into bounded,
// deduplicated Evidence snippets ready to attach to a Finding. The matches
// passed in are expected to already be the output of
// pattern.GroupByProximity (one representative per cluster), sorted by
// position.
type EvidenceExtractor struct {
	// Now returns the collection timestamp to stamp on each Evidence item.
	// Defaults to time.Now; overridden in tests for determinism.
	Now func() time.Time
}

// NewEvidenceExtractor constructs an EvidenceExtractor using the real
// clock.
func NewEvidenceExtractor() *EvidenceExtractor {
	return &EvidenceExtractor{Now: time.Now}
}

// Extract produces up to maxEvidence Evidence items from the representative
// matches, deduplicated by snippet content and sorted by content for
// deterministic ordering. A maxEvidence of 0 returns an empty list.
func (e *EvidenceExtractor) Extract(content string, representatives []pattern.Match, maxEvidence int, size ContextSize) []Evidence {
	if len(content) == 0 || len(representatives) == 0 || maxEvidence <= 0 {
		return nil
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	seen := make(map[string]struct{}, len(representatives))
	snippets := make([]string, 0, len(representatives))
	for _, m := range representatives {
		snippet := e.extractSnippet(content, m, size)
		if _, dup := seen[snippet]; dup {
			continue
		}
		seen[snippet] = struct{}{}
		snippets = append(snippets, snippet)
		if len(snippets) >= maxEvidence {
			break
		}
	}

	sort.Strings(snippets)
	evidence := make([]Evidence, len(snippets))
	for i, snippet := range snippets {
		evidence[i] = Evidence{Content: snippet, CollectionTimestamp: now()}
	}
	return evidence
}

// extractSnippet computes the windowed context string for a single match.
func (e *EvidenceExtractor) extractSnippet(content string, m pattern.Match, size ContextSize) string {
	if isFullContext(size) {
		return content
	}
	w, ok := contextChars[size]
	if !ok {
		w = contextChars[ContextMedium]
	}
	return windowedContext(content, m.Start, m.End, w)
}

// windowedContext extracts [max(0, start-w) … min(len(content), end+w)],
// clamped to content's bounds, trims leading/trailing whitespace left
// behind by clamping, and marks either side with "…" when the window was
// clamped short of content's edge.
func windowedContext(content string, start, end, w int) string {
	winStart := start - w
	truncatedLeft := winStart > 0
	if winStart < 0 {
		winStart = 0
	}
	winEnd := end + w
	truncatedRight := winEnd < len(content)
	if winEnd > len(content) {
		winEnd = len(content)
	}

	snippet := strings.TrimSpace(content[winStart:winEnd])
	if truncatedLeft {
		snippet = "…" + snippet
	}
	if truncatedRight {
		snippet = snippet + "…"
	}
	return snippet
}
