package store

import "context"

// RunEnumerator is implemented by backends that can list every run ID they
// hold, regardless of key contents. Not every Store implementation need
// support this (a write-mostly remote backend might not); callers that need
// `wct runs` should type-assert and fail gracefully if absent.
type RunEnumerator interface {
	// ListRunIDs returns every run ID with at least one stored key, in no
	// particular order.
	ListRunIDs(ctx context.Context) ([]string, error)
}
