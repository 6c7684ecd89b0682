package components

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/waivern/wct/finding"
	"github.com/waivern/wct/llm"
	"github.com/waivern/wct/message"
	"github.com/waivern/wct/ruleset"
	"github.com/waivern/wct/schema"
)

// ClassificationOutput is the content of the Message an LLMClassifier
// produces: one Finding per classification rule the LLM matched, for each
// file.
type ClassificationOutput struct {
	Findings []finding.Finding              `json:"findings"`
	Metadata finding.AnalysisOutputMetadata `json:"metadata"`
}

// ClassificationSchema identifies ClassificationOutput's wire schema.
var ClassificationSchema = schema.Get("classification_findings", "1.0.0")

// llmClassificationResponse is the structured shape the LLM is prompted to
// return for one file: the rule names it judges the content belongs to.
type llmClassificationResponse struct {
	MatchedRules []string `json:"matched_rules"`
}

// LLMClassifier asks an LLM to judge which classification rules apply to
// each input file's content, one completion per file, and turns matches
// into Findings tagged with the rule's class. It implements
// orchestration.Classifier.
type LLMClassifier struct {
	Rulesets *ruleset.Loader
	Service  *llm.Service

	now func() time.Time
}

// NewLLMClassifier constructs an LLMClassifier resolving ruleset URIs via
// loader and dispatching completions through svc.
func NewLLMClassifier(loader *ruleset.Loader, svc *llm.Service) *LLMClassifier {
	return &LLMClassifier{Rulesets: loader, Service: svc, now: time.Now}
}

type classificationProperties struct {
	ruleset string
	model   string
	runID   string
}

func parseClassificationProperties(properties map[string]any) (classificationProperties, error) {
	var p classificationProperties
	p.ruleset, _ = properties["ruleset"].(string)
	if p.ruleset == "" {
		return p, fmt.Errorf("llm classifier: properties.ruleset is required")
	}
	p.model, _ = properties["model"].(string)
	if p.model == "" {
		return p, fmt.Errorf("llm classifier: properties.model is required")
	}
	p.runID, _ = properties["run_id"].(string)
	if p.runID == "" {
		return p, fmt.Errorf("llm classifier: properties.run_id is required")
	}
	return p, nil
}

// Classify implements orchestration.Classifier. It expects exactly one
// input Message, shaped as FilesystemScan. A returned *llm.PendingBatchError
// signals that some files' classifications were submitted to an
// asynchronous batch and are not yet resolved.
func (c *LLMClassifier) Classify(ctx context.Context, inputs []*message.Message, properties map[string]any) (*message.Message, error) {
	props, err := parseClassificationProperties(properties)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("llm classifier: at least one input is required")
	}

	var scan FilesystemScan
	if err := inputs[0].Decode(&scan); err != nil {
		return nil, fmt.Errorf("llm classifier: decode input: %w", err)
	}

	rules, err := c.Rulesets.LoadClassificationRuleset(props.ruleset)
	if err != nil {
		return nil, fmt.Errorf("llm classifier: %w", err)
	}

	findings := []finding.Finding{}
	for _, file := range scan.Files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		group := llm.PromptGroup{
			ID:                 file.Path,
			Content:            file.Content,
			Prompt:             buildClassificationPrompt(rules.Rules, file),
			ResponseSchemaName: "llmClassificationResponse",
			Model:              props.model,
		}

		responses, skipped, err := c.Service.Complete(ctx, props.runID, []llm.PromptGroup{group}, "llmClassificationResponse")
		if err != nil {
			return nil, err
		}
		if len(skipped) > 0 {
			continue
		}
		if len(responses) == 0 {
			continue
		}

		var resp llmClassificationResponse
		if err := json.Unmarshal(responses[0], &resp); err != nil {
			return nil, fmt.Errorf("llm classifier: unmarshal response for %s: %w", file.Path, err)
		}

		for _, ruleName := range resp.MatchedRules {
			rule, ok := rules.RuleByName(ruleName)
			if !ok {
				continue
			}
			findings = append(findings, findingFromClassificationRule(rule, file, c.clockNow()))
		}
	}

	out := ClassificationOutput{
		Findings: findings,
		Metadata: finding.AnalysisOutputMetadata{
			RulesetUsed:          props.ruleset,
			LLMValidationEnabled: true,
			AnalysisTimestamp:    c.clockNow(),
			AnalysesChain: []finding.AnalysisChainEntry{
				{Order: 1, Analyser: "llm_classifier", ExecutionTimestamp: c.clockNow()},
			},
		},
	}
	return message.New(ClassificationSchema, out)
}

func (c *LLMClassifier) clockNow() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func findingFromClassificationRule(rule *ruleset.ClassificationRule, file FilesystemFile, now time.Time) finding.Finding {
	compliance := make([]finding.Compliance, 0, len(rule.Regulations))
	for _, reg := range rule.Regulations {
		compliance = append(compliance, finding.Compliance{Regulation: reg, Relevance: rule.Class})
	}
	return finding.Finding{
		RiskLevel:       finding.RiskLevel(rule.RiskLevel),
		Compliance:      compliance,
		Evidence:        []finding.Evidence{{Content: file.Content, CollectionTimestamp: now}},
		MatchedPatterns: []string{rule.Name},
		Metadata: finding.Metadata{
			Source:  file.Path,
			Context: map[string]any{"class": rule.Class, "rule": rule.Name},
		},
	}
}

// buildClassificationPrompt renders the rule catalogue and file content into
// the completion prompt. Kept deliberately simple: a real deployment would
// template this, but the wire contract (ask for matched_rules as JSON) is
// what the response schema depends on.
func buildClassificationPrompt(rules []*ruleset.ClassificationRule, file FilesystemFile) string {
	prompt := "Classify the following content against these rules, responding with JSON {\"matched_rules\": [\"<rule name>\", ...]}:\n\n"
	for _, r := range rules {
		prompt += fmt.Sprintf("- %s: %s (class: %s)\n", r.Name, r.Description, r.Class)
	}
	prompt += fmt.Sprintf("\nFile: %s\nContent:\n%s\n", file.Path, file.Content)
	return prompt
}
