package llm

import "sort"

// tokensPerGroupItem is a rough per-item token overhead added to every
// group's estimate, in count-based and extended-context planning. Mirrors the original's
// TOKENS_PER_FINDING constant: a conservative flat estimate rather than a
// real tokenizer call.
const tokensPerGroupItem = 80

// EstimateTokens approximates the token count of a content blob using the
// common "~4 characters per token" heuristic, avoiding a real tokenizer
// dependency for a planning-only estimate.
func EstimateTokens(content string) int {
	if content == "" {
		return 0
	}
	n := len(content) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// BatchPlanner plans PromptGroups into PlannedBatches, either by flat item
// count (CountBased) or by token-aware bin-packing that keeps each group's
// shared content in a single batch (ExtendedContext).
type BatchPlanner struct {
	maxPayloadTokens int
	batchSize        int
}

// NewBatchPlanner constructs a BatchPlanner. maxPayloadTokens bounds a single
// ExtendedContext batch; batchSize bounds the number of items in a single
// CountBased batch.
func NewBatchPlanner(maxPayloadTokens, batchSize int) *BatchPlanner {
	if maxPayloadTokens <= 0 {
		maxPayloadTokens = 100_000
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &BatchPlanner{maxPayloadTokens: maxPayloadTokens, batchSize: batchSize}
}

// Plan plans the given groups according to mode.
func (p *BatchPlanner) Plan(groups []PromptGroup, mode BatchMode) BatchPlan {
	if mode == ExtendedContext {
		return p.planExtendedContext(groups)
	}
	return p.planCountBased(groups)
}

type weighedGroup struct {
	group  PromptGroup
	tokens int
}

func (p *BatchPlanner) planExtendedContext(groups []PromptGroup) BatchPlan {
	if len(groups) == 0 {
		return BatchPlan{}
	}

	var skipped []SkippedGroup
	weighed := make([]weighedGroup, 0, len(groups))

	for _, g := range groups {
		if g.Content == "" {
			skipped = append(skipped, SkippedGroup{Group: g, Reason: SkipMissingContent})
			continue
		}
		total := EstimateTokens(g.Content) + tokensPerGroupItem
		if total > p.maxPayloadTokens {
			skipped = append(skipped, SkippedGroup{Group: g, Reason: SkipOversized})
			continue
		}
		weighed = append(weighed, weighedGroup{group: g, tokens: total})
	}

	sort.SliceStable(weighed, func(i, j int) bool { return weighed[i].tokens > weighed[j].tokens })

	return BatchPlan{Batches: p.binPack(weighed), Skipped: skipped}
}

// binPack performs greedy first-fit bin-packing: each group (largest first)
// goes into the first existing batch it fits in, else starts a new batch.
func (p *BatchPlanner) binPack(weighed []weighedGroup) []PlannedBatch {
	var batches []PlannedBatch

	for _, wg := range weighed {
		placed := false
		for i := range batches {
			if batches[i].EstimatedTokens+wg.tokens <= p.maxPayloadTokens {
				batches[i].Groups = append(batches[i].Groups, wg.group)
				batches[i].EstimatedTokens += wg.tokens
				placed = true
				break
			}
		}
		if !placed {
			batches = append(batches, PlannedBatch{
				Groups:          []PromptGroup{wg.group},
				EstimatedTokens: wg.tokens,
			})
		}
	}

	return batches
}

func (p *BatchPlanner) planCountBased(groups []PromptGroup) BatchPlan {
	var all []PromptGroup
	for _, g := range groups {
		all = append(all, g)
	}
	if len(all) == 0 {
		return BatchPlan{}
	}

	var batches []PlannedBatch
	for i := 0; i < len(all); i += p.batchSize {
		end := i + p.batchSize
		if end > len(all) {
			end = len(all)
		}
		chunk := all[i:end]
		batches = append(batches, PlannedBatch{
			Groups:          chunk,
			EstimatedTokens: len(chunk) * tokensPerGroupItem,
		})
	}

	return BatchPlan{Batches: batches}
}
