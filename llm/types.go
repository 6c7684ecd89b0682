// Package llm implements the LLM validation/enrichment service: a
// provider-agnostic Service that batches prompts (by count or by token
// budget), caches responses per run, and supports both synchronous and
// asynchronous (batch-API) providers via a BatchJob/BatchResultPoller
// hand-off.
package llm

import (
	"encoding/json"
	"time"
)

// BatchMode selects how BatchPlanner.Plan groups prompt groups into LLM calls.
type BatchMode string

const (
	// CountBased flattens every prompt group and chunks by a fixed item
	// count per call, ignoring token size.
	CountBased BatchMode = "count_based"
	// ExtendedContext bin-packs prompt groups by estimated token size
	// using first-fit-decreasing, keeping each group's shared content
	// intact within a single bin.
	ExtendedContext BatchMode = "extended_context"
)

// CacheStatus is the lifecycle of a cached LLM response.
type CacheStatus string

const (
	CacheCompleted CacheStatus = "completed"
	CachePending   CacheStatus = "pending"
	CacheFailed    CacheStatus = "failed"
)

// CacheEntry is a single cached LLM invocation, keyed by a deterministic
// digest of (prompt, model, response schema name).
type CacheEntry struct {
	Key        string          `json:"key"`
	Status     CacheStatus     `json:"status"`
	Response   json.RawMessage `json:"response,omitempty"`
	Error      string          `json:"error,omitempty"`
	BatchID    string          `json:"batch_id,omitempty"`
	CustomID   string          `json:"custom_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt time.Time       `json:"resolved_at,omitzero"`
}

// PromptGroup is one unit of work submitted to the LLM: a shared content
// blob plus the prompt(s) that reference it, and the schema the response
// must validate against.
type PromptGroup struct {
	ID                 string
	Content            string
	Prompt             string
	ResponseSchemaName string
	Model              string
	EstimatedTokens    int
}

// SkipReason explains why a PromptGroup was excluded from a batch plan
// instead of silently dropped.
type SkipReason string

const (
	SkipOversized      SkipReason = "oversized"
	SkipMissingContent SkipReason = "missing_content"
)

// SkippedGroup records a PromptGroup that BatchPlanner.Plan could not place.
type SkippedGroup struct {
	Group  PromptGroup
	Reason SkipReason
}

// PlannedBatch is one outbound LLM call: the prompt groups bin-packed (or
// chunked) into it.
type PlannedBatch struct {
	Groups          []PromptGroup
	EstimatedTokens int
}

// BatchPlan is the result of planning: the batches to submit, plus any
// groups that had to be skipped. Skipped is intentionally a flat list, not
// grouped by reason — this is a diagnostic list, not something callers
// branch on at scale.
type BatchPlan struct {
	Batches []PlannedBatch
	Skipped []SkippedGroup
}

// JobStatus is the lifecycle of an async BatchJob as tracked by
// BatchResultPoller.
type JobStatus string

const (
	JobSubmitted JobStatus = "submitted"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// BatchJob tracks one asynchronous batch submission to an LLM provider's
// batch API (e.g. Anthropic Message Batches).
type BatchJob struct {
	ID         string
	Provider   string
	Model      string
	Status     JobStatus
	CustomIDs  []string
	SubmittedAt time.Time
}
