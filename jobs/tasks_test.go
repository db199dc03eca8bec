package jobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls int
	n     int64
	err   error
}

func (f *fakeSweeper) MarkOverdue(context.Context) (int64, error) {
	f.calls++
	return f.n, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestMarkOverdueJobRunsSweep(t *testing.T) {
	sweeper := &fakeSweeper{n: 3}
	job := NewMarkOverdueJob(sweeper, testLogger())

	task, err := NewMarkOverdueTask(time.Date(2025, time.June, 1, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, TaskInvoicesMarkOverdue, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, sweeper.calls)
}

func TestMarkOverdueJobPropagatesSweepError(t *testing.T) {
	boom := errors.New("db down")
	job := NewMarkOverdueJob(&fakeSweeper{err: boom}, testLogger())

	task, err := NewMarkOverdueTask(time.Now())
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestMarkOverdueJobSkipsBadPayload(t *testing.T) {
	sweeper := &fakeSweeper{}
	job := NewMarkOverdueJob(sweeper, testLogger())

	task := asynq.NewTask(TaskInvoicesMarkOverdue, []byte("{not json"))
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
	require.Zero(t, sweeper.calls)
}
