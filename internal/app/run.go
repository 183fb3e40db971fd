package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/tvtaskgraph/internal/decision"
	"github.com/vk/tvtaskgraph/internal/graphfile"
	"github.com/vk/tvtaskgraph/internal/schedule"
	"github.com/vk/tvtaskgraph/internal/taskdef"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.")

	if a.config.Command == CommandBitbarToken {
		return a.writeBitbarToken(ctx)
	}

	var (
		batch  []schedule.Scheduled
		params any = map[string]any{}
		err    error
	)
	if a.config.Command == CommandGraph {
		var p decision.Parameters
		p, err = a.parameters()
		if err != nil {
			return err
		}
		params = p
		batch, err = decision.PlanGraph(ctx, a.builderContext(), p, a.config.KindsPath, a.newID)
	} else {
		batch, err = decision.Plan(a.builderContext(), a.config.Event, a.newID)
	}
	if err != nil {
		return fmt.Errorf("failed to plan tasks: %w", err)
	}
	if len(batch) == 0 {
		a.logger.Warn("No tasks to schedule.")
		return nil
	}

	if a.config.DryRun {
		return a.printBatch(batch)
	}

	graph, err := schedule.Schedule(ctx, a.queue, batch, a.config.QueueRootURL)
	if err != nil {
		return fmt.Errorf("failed to schedule tasks: %w", err)
	}
	if err := graphfile.Write(a.config.OutputDir, graph, params); err != nil {
		return err
	}
	a.logger.Info("Decision task finished.", "tasks", graph.Len(), "output_dir", a.config.OutputDir)
	return nil
}

// parameters loads graph-mode parameters from a file or the configuration.
func (a *App) parameters() (decision.Parameters, error) {
	if a.config.ParametersPath != "" {
		p, err := decision.LoadParameters(a.config.ParametersPath)
		if err != nil {
			return decision.Parameters{}, err
		}
		return p.Derive(), nil
	}
	return decision.Parameters{
		TasksFor:       a.config.TasksFor,
		HeadRepository: a.config.HeadRepository,
		HeadRev:        a.config.HeadRev,
		HeadRef:        a.config.HeadRef,
		HeadTag:        a.config.HeadTag,
		Owner:          a.config.Owner,
		Level:          a.config.Level,
	}.Derive(), nil
}

type plannedTask struct {
	TaskID     string            `json:"taskId"`
	Label      string            `json:"label"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Task       taskdef.Task      `json:"task"`
}

// printBatch writes the resolved batch as JSON instead of submitting it.
func (a *App) printBatch(batch []schedule.Scheduled) error {
	if err := schedule.Validate(batch); err != nil {
		return fmt.Errorf("invalid task batch: %w", err)
	}
	resolved, err := schedule.Resolve(batch, a.config.QueueRootURL)
	if err != nil {
		return fmt.Errorf("invalid task batch: %w", err)
	}

	out := make([]plannedTask, len(resolved))
	for i, s := range resolved {
		out[i] = plannedTask{TaskID: s.ID, Label: s.Entry.Label, Attributes: s.Entry.Attributes, Task: s.Entry.Task}
	}
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
