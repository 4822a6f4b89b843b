package task

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// mockTask implements the Task interface for testing
type mockTask struct {
	id       uuid.UUID
	taskType string
	execFn   func(ctx context.Context) error
}

func (m *mockTask) ID() uuid.UUID { return m.id }

func (m *mockTask) Type() string { return m.taskType }

func (m *mockTask) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockTask() *mockTask {
	return &mockTask{id: uuid.New(), taskType: "mock"}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
