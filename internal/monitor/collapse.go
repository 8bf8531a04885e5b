package monitor

import (
	"context"
	"fmt"

	"crisiswatch/internal/dedup"
	"crisiswatch/internal/scheduler"
)

// CollapseAction adapts the duplicate collapse engine to the scheduler so
// cleanup can run on a cron spec as well as on demand over HTTP.
type CollapseAction struct {
	engine *dedup.Engine
}

func NewCollapseAction(engine *dedup.Engine) *CollapseAction {
	return &CollapseAction{engine: engine}
}

func (a *CollapseAction) Name() string { return scheduler.ActionCollapse }

func (a *CollapseAction) Run(ctx context.Context) (scheduler.Summary, error) {
	result, err := a.engine.Collapse(ctx)
	if err != nil {
		return scheduler.Summary{}, err
	}
	return scheduler.Summary{
		Message: fmt.Sprintf("removed %d duplicate items (%d exact, %d fuzzy)", result.TotalRemoved, result.ExactDuplicates, result.FuzzyDuplicates),
		Metadata: map[string]any{
			"total_removed": result.TotalRemoved,
			"exact_removed": result.ExactDuplicates,
			"fuzzy_removed": result.FuzzyDuplicates,
		},
	}, nil
}
