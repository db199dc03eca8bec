package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoicesMarkOverdue flips sent invoices past their due date.
	TaskInvoicesMarkOverdue = "invoices:mark_overdue"
)

// OverdueSweeper advances overdue invoices. Implemented by the invoices
// service.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// MarkOverduePayload carries the sweep trigger metadata.
type MarkOverduePayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// NewMarkOverdueTask constructs an Asynq task.
func NewMarkOverdueTask(now time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(MarkOverduePayload{RequestedAt: now.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoicesMarkOverdue, data), nil
}

// MarkOverdueJob wraps the invoices sweep for the worker.
type MarkOverdueJob struct {
	sweeper OverdueSweeper
	logger  *slog.Logger
}

// NewMarkOverdueJob constructs the job.
func NewMarkOverdueJob(sweeper OverdueSweeper, logger *slog.Logger) *MarkOverdueJob {
	return &MarkOverdueJob{sweeper: sweeper, logger: logger}
}

// Handle processes TaskInvoicesMarkOverdue tasks.
func (j *MarkOverdueJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload MarkOverduePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	n, err := j.sweeper.MarkOverdue(ctx)
	if err != nil {
		j.logger.Error("overdue sweep failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("overdue sweep finished", slog.Int64("invoices", n))
	return nil
}
