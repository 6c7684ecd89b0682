package orchestration

import "sort"

// Sorter drives topological execution over an ExecutionDAG: GetReady
// returns every artifact whose dependencies have all completed (via Done)
// and that hasn't been returned yet; IsActive reports whether any artifact
// remains not-yet-done.
type Sorter struct {
	remaining map[string]map[string]struct{} // id -> unresolved deps
	returned  map[string]struct{}
	done      map[string]struct{}
	total     int
}

func newSorter(dag *ExecutionDAG) *Sorter {
	s := &Sorter{
		remaining: make(map[string]map[string]struct{}, len(dag.artifactIDs)),
		returned:  make(map[string]struct{}),
		done:      make(map[string]struct{}),
		total:     len(dag.artifactIDs),
	}
	for _, id := range dag.artifactIDs {
		s.remaining[id] = copySet(dag.dependencies[id])
	}
	return s
}

// GetReady returns every artifact ID whose dependencies have all completed
// and that has not already been returned by a previous GetReady call,
// sorted for deterministic iteration.
func (s *Sorter) GetReady() []string {
	var ready []string
	for id, deps := range s.remaining {
		if _, alreadyReturned := s.returned[id]; alreadyReturned {
			continue
		}
		if len(deps) == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	for _, id := range ready {
		s.returned[id] = struct{}{}
	}
	return ready
}

// Done marks id as finished, unblocking any artifact whose only remaining
// dependency was id.
func (s *Sorter) Done(id string) {
	if _, ok := s.done[id]; ok {
		return
	}
	s.done[id] = struct{}{}
	for _, deps := range s.remaining {
		delete(deps, id)
	}
}

// IsActive reports whether any artifact has not yet been marked Done.
func (s *Sorter) IsActive() bool {
	return len(s.done) < s.total
}
