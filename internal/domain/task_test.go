package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask("u1", "600519", json.RawMessage(`{"depth":"full"}`), "")
	require.NoError(t, err)

	assert.NotEqual(t, "", task.ID.String())
	assert.Equal(t, TaskStatusQueued, task.Status)
	assert.False(t, task.CreatedAt.IsZero())
	assert.True(t, task.StartedAt.IsZero())
	assert.Equal(t, 0, task.Requeues)
}

func TestNewTaskValidation(t *testing.T) {
	_, err := NewTask("", "600519", nil, "")
	assert.ErrorIs(t, err, ErrEmptyUserID)

	_, err = NewTask("u1", "", nil, "")
	assert.ErrorIs(t, err, ErrEmptySymbol)
}

func TestTaskStatusTerminal(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		terminal bool
	}{
		{TaskStatusQueued, false},
		{TaskStatusProcessing, false},
		{TaskStatusCompleted, true},
		{TaskStatusFailed, true},
		{TaskStatusCancelled, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.terminal, tc.status.Terminal())
		})
	}
}

func TestTaskStatusIsValid(t *testing.T) {
	for _, s := range []TaskStatus{
		TaskStatusQueued, TaskStatusProcessing, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled,
	} {
		assert.True(t, s.IsValid(), "status %q", s)
	}
	assert.False(t, TaskStatus("paused").IsValid())
	assert.False(t, TaskStatus("").IsValid())
}

func TestNewBatch(t *testing.T) {
	b, err := NewBatch("u1", 3)
	require.NoError(t, err)
	assert.Equal(t, BatchStatusQueued, b.Status)
	assert.Equal(t, 3, b.TotalTasks)
	assert.False(t, b.CreatedAt.IsZero())

	_, err = NewBatch("", 3)
	assert.ErrorIs(t, err, ErrEmptyUserID)
}
