package qbank

import "github.com/medqbank/qbank/internal/progress"

// SentinelAll disables a filter dimension entirely.
const SentinelAll = "All"

// Status filters narrow the pool by a user's progress sets.
const (
	StatusUnused    = "Unused"
	StatusCorrect   = "Correct"
	StatusIncorrect = "Incorrect"
	StatusMarked    = "Marked"
)

// Filter narrows all down to the candidate pool for a new test. Selected
// status filters AND-narrow in sequence, so mutually exclusive combinations
// (e.g. Unused+Correct) legitimately yield an empty pool. Inputs are never
// mutated; the result is always a fresh slice.
func Filter(all []Question, systems, statuses []string, p progress.Progress) []Question {
	pool := make([]Question, 0, len(all))

	sysSet := map[string]bool{}
	allSystems := len(systems) == 0
	for _, s := range systems {
		if s == SentinelAll {
			allSystems = true
		}
		sysSet[s] = true
	}
	for _, q := range all {
		if allSystems || sysSet[q.System] {
			pool = append(pool, q)
		}
	}

	for _, f := range statuses {
		if f == SentinelAll {
			return pool
		}
	}
	for _, f := range statuses {
		var keep func(Question) bool
		switch f {
		case StatusUnused:
			keep = func(q Question) bool { return !p.Used[q.ID] }
		case StatusCorrect:
			keep = func(q Question) bool { return p.Correct[q.ID] }
		case StatusIncorrect:
			keep = func(q Question) bool { return p.Incorrect[q.ID] }
		case StatusMarked:
			keep = func(q Question) bool { return p.Marked[q.ID] }
		default:
			continue
		}
		next := pool[:0:0]
		for _, q := range pool {
			if keep(q) {
				next = append(next, q)
			}
		}
		pool = next
	}
	return pool
}
