package pipeline

import (
	"github.com/ternarybob/laboro/internal/models"
)

// Action is a dispatch decision produced by a status transition
type Action int

const (
	ActionNone Action = iota
	ActionEnqueueFetch
	ActionEnqueueExtract
)

// Plan computes the dispatch actions for a raw record's status transition.
// The dispatcher, not the store, decides what to enqueue: callers run Plan
// after every status write and act on the result.
//
// The creation/transition distinction is what prevents double-processing
// under at-least-once dispatch: the fetch trigger fires only on creation
// into PENDING (or an explicit reset into it), and the extract trigger only
// on a transition into DOWNLOADED, never on unrelated re-saves.
func Plan(prev, next models.RawJobStatus, isCreation bool) []Action {
	if isCreation {
		if next == models.RawJobStatusPending {
			return []Action{ActionEnqueueFetch}
		}
		return nil
	}

	if prev == next {
		return nil
	}

	switch next {
	case models.RawJobStatusPending:
		// Operator reset, re-triggers the fetch stage
		return []Action{ActionEnqueueFetch}
	case models.RawJobStatusDownloaded:
		return []Action{ActionEnqueueExtract}
	}

	return nil
}
