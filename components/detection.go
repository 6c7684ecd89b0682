package components

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/waivern/wct/finding"
	"github.com/waivern/wct/message"
	"github.com/waivern/wct/pattern"
	"github.com/waivern/wct/ruleset"
	"github.com/waivern/wct/schema"
)

// DetectionOutput is the content of the Message a DetectionAnalyser
// produces: one Finding per rule per input file that matched, plus the
// metadata block every analyser output carries.
type DetectionOutput struct {
	Findings []finding.Finding            `json:"findings"`
	Metadata finding.AnalysisOutputMetadata `json:"metadata"`
}

// DetectionSchema identifies DetectionOutput's wire schema.
var DetectionSchema = schema.Get("detection_findings", "1.0.0")

// DetectionAnalyser applies a detection ruleset's patterns against every
// file in a FilesystemScan input, grouping nearby matches by proximity and
// extracting bounded evidence snippets. It implements orchestration.Analyser.
type DetectionAnalyser struct {
	Rulesets *ruleset.Loader

	word  *pattern.WordBoundaryMatcher
	regex *pattern.RegexMatcher
	now   func() time.Time
}

// NewDetectionAnalyser constructs a DetectionAnalyser resolving ruleset URIs
// via loader.
func NewDetectionAnalyser(loader *ruleset.Loader) *DetectionAnalyser {
	return &DetectionAnalyser{
		Rulesets: loader,
		word:     pattern.NewWordBoundaryMatcher(),
		regex:    pattern.NewRegexMatcher(),
		now:      time.Now,
	}
}

// detectionProperties is the process artifact's properties block, decoded
// via a plain map lookup rather than json.Unmarshal since runbook YAML
// decodes into map[string]any.
type detectionProperties struct {
	ruleset            string
	proximityThreshold int
	maxRepresentatives int
	maxEvidence        int
	contextSize        finding.ContextSize
}

func parseDetectionProperties(properties map[string]any) (detectionProperties, error) {
	p := detectionProperties{
		proximityThreshold: 200,
		maxRepresentatives: 10,
		maxEvidence:        3,
		contextSize:        finding.ContextMedium,
	}
	ruleURI, _ := properties["ruleset"].(string)
	if ruleURI == "" {
		return p, fmt.Errorf("detection analyser: properties.ruleset is required")
	}
	p.ruleset = ruleURI

	if v, ok := propInt(properties, "proximity_threshold"); ok && v > 0 {
		p.proximityThreshold = v
	}
	if v, ok := propInt(properties, "max_representatives"); ok && v > 0 {
		p.maxRepresentatives = v
	}
	if v, ok := propInt(properties, "max_evidence"); ok && v >= 0 {
		p.maxEvidence = v
	}
	if v, ok := properties["context_size"].(string); ok && v != "" {
		p.contextSize = finding.ContextSize(v)
	}
	return p, nil
}

// Analyse implements orchestration.Analyser. It expects exactly one input
// Message, shaped as FilesystemScan.
func (a *DetectionAnalyser) Analyse(ctx context.Context, inputs []*message.Message, properties map[string]any) (*message.Message, error) {
	props, err := parseDetectionProperties(properties)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("detection analyser: at least one input is required")
	}

	var scan FilesystemScan
	if err := inputs[0].Decode(&scan); err != nil {
		return nil, fmt.Errorf("detection analyser: decode input: %w", err)
	}

	rules, err := a.Rulesets.LoadDetectionRuleset(props.ruleset)
	if err != nil {
		return nil, fmt.Errorf("detection analyser: %w", err)
	}

	extractor := &finding.EvidenceExtractor{Now: a.now}
	findings := []finding.Finding{}
	for _, file := range scan.Files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, rule := range rules.Rules {
			f, matched, err := a.matchRule(rule, file, props, extractor)
			if err != nil {
				return nil, fmt.Errorf("detection analyser: rule %q: %w", rule.Name, err)
			}
			if matched {
				findings = append(findings, f)
			}
		}
	}

	out := DetectionOutput{
		Findings: findings,
		Metadata: finding.AnalysisOutputMetadata{
			RulesetUsed:       props.ruleset,
			AnalysisTimestamp: a.clockNow(),
			EvidenceContextSize: string(props.contextSize),
			AnalysesChain: []finding.AnalysisChainEntry{
				{Order: 1, Analyser: "detection", ExecutionTimestamp: a.clockNow()},
			},
		},
	}
	return message.New(DetectionSchema, out)
}

func (a *DetectionAnalyser) clockNow() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// matchRule runs one rule's text and value patterns against a single file's
// content, returning the aggregated Finding (if any pattern matched) and
// whether a match occurred.
func (a *DetectionAnalyser) matchRule(rule *ruleset.DetectionRule, file FilesystemFile, props detectionProperties, extractor *finding.EvidenceExtractor) (finding.Finding, bool, error) {
	var all []pattern.Match
	counts := make(map[string]int)

	for _, p := range rule.Patterns {
		matches := pattern.FindAllWordBoundaryIndices(file.Content, p)
		if len(matches) == 0 {
			continue
		}
		counts[p] += len(matches)
		all = append(all, matches...)
	}
	for _, p := range rule.ValuePatterns {
		matches, err := pattern.FindAllIndices(file.Content, p, pattern.Regex)
		if err != nil {
			return finding.Finding{}, false, fmt.Errorf("value_pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			continue
		}
		counts[p] += len(matches)
		all = append(all, matches...)
	}
	if len(all) == 0 {
		return finding.Finding{}, false, nil
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	representatives := pattern.GroupByProximity(all, props.proximityThreshold, props.maxRepresentatives, all[0].Type)
	evidence := extractor.Extract(file.Content, representatives, props.maxEvidence, props.contextSize)

	matchedPatterns := make([]string, 0, len(counts))
	for p := range counts {
		matchedPatterns = append(matchedPatterns, p)
	}
	sort.Strings(matchedPatterns)

	compliance := make([]finding.Compliance, 0, len(rule.Regulations))
	for _, reg := range rule.Regulations {
		compliance = append(compliance, finding.Compliance{Regulation: reg, Relevance: rule.Name})
	}

	return finding.Finding{
		RiskLevel:       finding.RiskLevel(rule.RiskLevel),
		Compliance:      compliance,
		Evidence:        evidence,
		MatchedPatterns: matchedPatterns,
		Metadata: finding.Metadata{
			Source:  file.Path,
			Context: map[string]any{"rule": rule.Name},
		},
	}, true, nil
}
