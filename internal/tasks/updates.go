package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	LoadCollection Phase = iota
	UpsertItem
	LoadComplete
)

func (p Phase) String() string {
	switch p {
	case LoadCollection:
		return "load_collection"
	case UpsertItem:
		return "upsert_item"
	case LoadComplete:
		return "load_complete"
	default:
		return ""
	}
}

func loadCollectionUpdate(collection string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCollection,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Loading %d records into %s...", total, collection),
	}
}

func upsertUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpsertItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Upserting %s (%d/%d)...", id, step, total),
	}
}

func loadCompleteUpdate(collection string, succeeded, failed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadComplete,
		Step:    succeeded + failed,
		Total:   succeeded + failed,
		Message: fmt.Sprintf("Finished %s: %d succeeded, %d failed", collection, succeeded, failed),
	}
}
