package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/tvtaskgraph/internal/ctxlog"
	"github.com/vk/tvtaskgraph/internal/taskdef"
)

const tracerName = "github.com/vk/tvtaskgraph/internal/schedule"

// Queue is the subset of the Taskcluster queue used for submission.
type Queue interface {
	CreateTask(ctx context.Context, taskID string, def taskdef.Task) error
	Task(ctx context.Context, taskID string) (json.RawMessage, error)
}

// Schedule validates, resolves and submits batch in order. The returned graph
// holds every task created so far, including when an error is returned.
func Schedule(ctx context.Context, q Queue, batch []Scheduled, queueRootURL string) (*Graph, error) {
	graph := NewGraph()

	if err := Validate(batch); err != nil {
		return graph, fmt.Errorf("invalid task batch: %w", err)
	}
	resolved, err := Resolve(batch, queueRootURL)
	if err != nil {
		return graph, fmt.Errorf("invalid task batch: %w", err)
	}

	logger := ctxlog.FromContext(ctx)
	tracer := otel.Tracer(tracerName)
	logger.Info("Scheduling tasks.", "count", len(resolved))

	for _, s := range resolved {
		def, err := submit(ctx, tracer, q, s)
		if err != nil {
			logger.Error("Task submission failed; tasks already created are left in place.",
				"taskId", s.ID, "label", s.Entry.Label, "created", graph.Len())
			return graph, err
		}
		graph.Add(s.ID, def)
		logger.Info("Created task.", "taskId", s.ID, "label", s.Entry.Label)
	}
	return graph, nil
}

func submit(ctx context.Context, tracer trace.Tracer, q Queue, s Scheduled) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "schedule.submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("task.id", s.ID),
			attribute.String("task.label", s.Entry.Label),
		))
	defer span.End()
	ctx = ctxlog.With(ctx, "taskId", s.ID, "label", s.Entry.Label)

	if err := q.CreateTask(ctx, s.ID, s.Entry.Task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "createTask")
		return nil, fmt.Errorf("failed to create task %s (%s): %w", s.ID, s.Entry.Label, err)
	}
	def, err := q.Task(ctx, s.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "task")
		return nil, fmt.Errorf("failed to read back task %s (%s): %w", s.ID, s.Entry.Label, err)
	}
	return def, nil
}
