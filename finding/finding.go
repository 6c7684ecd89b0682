// Package finding defines the Finding model analysers and classifiers
// produce, and the EvidenceExtractor that turns pattern matches into
// bounded, deduplicated evidence snippets.
package finding

import "time"

// Evidence is a single snippet of content supporting a Finding, with the
// time it was collected.
type Evidence struct {
	Content             string    `json:"content"`
	CollectionTimestamp time.Time `json:"collection_timestamp"`
}

// Compliance names a regulation and why this finding is relevant to it.
type Compliance struct {
	Regulation string `json:"regulation"`
	Relevance  string `json:"relevance"`
}

// Metadata carries the source location of a finding plus an open,
// JSON-serialisable context bag for pipeline metadata (connector type,
// artifact id, etc).
type Metadata struct {
	Source  string         `json:"source"`
	Context map[string]any `json:"context,omitempty"`
}

// RiskLevel enumerates the allowed risk_level values for a Finding.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Finding is the common shape every analyser/classifier output emits: a
// risk assessment backed by at least one compliance mapping, one evidence
// item, and one matched pattern. Findings are ordinary value records; ID is
// their identity (two Findings with the same ID are the same finding, e.g.
// when deduplicating a concatenate fan-in).
type Finding struct {
	ID              string       `json:"id"`
	RiskLevel       RiskLevel    `json:"risk_level"`
	Compliance      []Compliance `json:"compliance"`
	Evidence        []Evidence   `json:"evidence"`
	MatchedPatterns []string     `json:"matched_patterns"`
	Metadata        Metadata     `json:"metadata"`
}

// Validate requires a non-empty ID, a known risk level, and at least one
// compliance, evidence and matched-pattern entry.
func (f *Finding) Validate() error {
	if f.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	switch f.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return &ValidationError{Field: "risk_level", Reason: "must be one of low, medium, high"}
	}
	if len(f.Compliance) == 0 {
		return &ValidationError{Field: "compliance", Reason: "must have at least one entry"}
	}
	if len(f.Evidence) == 0 {
		return &ValidationError{Field: "evidence", Reason: "must have at least one entry"}
	}
	if len(f.MatchedPatterns) == 0 {
		return &ValidationError{Field: "matched_patterns", Reason: "must have at least one entry"}
	}
	return nil
}

// ValidationError reports a Finding field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "finding." + e.Field + ": " + e.Reason
}

// AnalysisChainEntry records one analyser's pass over the data, for
// tracking how an artifact's content was transformed end to end.
type AnalysisChainEntry struct {
	Order             int       `json:"order"`
	Analyser          string    `json:"analyser"`
	ExecutionTimestamp time.Time `json:"execution_timestamp"`
}

// AnalysisOutputMetadata is the metadata block every analyser output
// schema embeds alongside its findings.
type AnalysisOutputMetadata struct {
	RulesetUsed          string               `json:"ruleset_used"`
	LLMValidationEnabled bool                 `json:"llm_validation_enabled"`
	AnalysisTimestamp    time.Time            `json:"analysis_timestamp"`
	EvidenceContextSize  string               `json:"evidence_context_size,omitempty"`
	AnalysesChain        []AnalysisChainEntry `json:"analyses_chain"`
}
