package decision

import (
	"context"

	"github.com/vk/tvtaskgraph/internal/ctxlog"
	"github.com/vk/tvtaskgraph/internal/kinds"
	"github.com/vk/tvtaskgraph/internal/schedule"
	"github.com/vk/tvtaskgraph/internal/taskbuilder"
	"github.com/vk/tvtaskgraph/internal/trust"
)

// PlanGraph loads the task files under kindsPath and returns the ordered
// batch p targets. p must already be derived. A nil batch with a nil error
// means the event schedules nothing.
func PlanGraph(ctx context.Context, bctx taskbuilder.Context, p Parameters, kindsPath string, newID func() string) ([]schedule.Scheduled, error) {
	logger := ctxlog.FromContext(ctx)

	ok, err := p.Schedules()
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Info("This decision task isn't for a pull request, a push to master or a release; no tasks will be scheduled.",
			"tasks_for", p.TasksFor, "head_ref", p.HeadRef)
		return nil, nil
	}

	defs, err := kinds.Load(ctx, p.Variables(), kindsPath)
	if err != nil {
		return nil, err
	}
	selected := kinds.Select(defs, kinds.Target{TasksFor: p.TasksFor, ReleaseType: p.ReleaseType})

	bctx.Owner = p.Owner
	bctx.RepoURL = p.HeadRepository
	bctx.Commit = p.HeadRev
	level := trust.FromLevel(p.Level)
	logger.Debug("Selected task declarations.", "count", len(selected), "trust", level.String())

	entries, err := kinds.Transform(taskbuilder.New(bctx), selected, level)
	if err != nil {
		return nil, err
	}
	ordered, err := kinds.Order(entries)
	if err != nil {
		return nil, err
	}
	return schedule.Assign(ordered, newID), nil
}
