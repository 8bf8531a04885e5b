package scheduler

import "context"

// Summary is what an action reports back after a run. Message ends up in the
// monitoring log; Metadata is attached to the log entry as-is.
type Summary struct {
	Message  string
	Metadata map[string]any
}

// Action is one unit of recurring work. Name must match a registry job's
// ActionName for the job to activate.
type Action interface {
	Name() string
	Run(ctx context.Context) (Summary, error)
}
