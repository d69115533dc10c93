package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/logging"
)

type expirerFunc func(ctx context.Context) (int, error)

func (f expirerFunc) ExpireOverdue(ctx context.Context) (int, error) {
	return f(ctx)
}

type staleList []string

func (s staleList) Stale() []string { return s }

func TestManager_RunNow(t *testing.T) {
	m := NewManager(context.Background())
	m.Register(ExpireRequests(expirerFunc(func(context.Context) (int, error) { return 3, nil }), 0))
	m.Register(StaleRules(staleList{"r1", "r2"}, 0))

	status, err := m.RunNow(ExpireRequestsTask)
	require.NoError(t, err)
	assert.Equal(t, "success", status.LastResult)
	assert.Equal(t, 1, status.Runs)
	assert.False(t, status.LastRun.IsZero())
	assert.True(t, status.NextRun.IsZero(), "manual tasks have no next run")

	logs, err := m.GetLogs(ExpireRequestsTask)
	require.NoError(t, err)
	var messages []string
	for _, l := range logs {
		messages = append(messages, l.Message)
	}
	assert.Contains(t, messages, "expired 3 request(s)")

	_, err = m.RunNow(StaleRulesTask)
	require.NoError(t, err)
	logs, _ = m.GetLogs(StaleRulesTask)
	var warned bool
	for _, l := range logs {
		if l.Level == "warn" {
			warned = true
		}
	}
	assert.True(t, warned)

	// logs of earlier runs are kept
	_, err = m.RunNow(StaleRulesTask)
	require.NoError(t, err)
	logs, _ = m.GetLogs(StaleRulesTask)
	runs := map[int]bool{}
	for _, l := range logs {
		runs[l.Run] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, runs)

	list := m.ListStatus()
	require.Len(t, list, 2)
	assert.Equal(t, ExpireRequestsTask, list[0].Name)
	assert.Equal(t, StaleRulesTask, list[1].Name)
}

func TestManager_FailingTask(t *testing.T) {
	m := NewManager(context.Background())
	m.Register(TaskDefinition{
		Name: "broken",
		Handler: func(context.Context, logging.InternalLogger) error {
			return errors.New("boom")
		},
	})

	status, err := m.RunNow("broken")
	require.NoError(t, err)
	assert.Equal(t, "failed: boom", status.LastResult)
}

func TestManager_LogsAreBounded(t *testing.T) {
	m := NewManager(context.Background())
	m.Register(TaskDefinition{
		Name: "chatty",
		Handler: func(_ context.Context, logger logging.InternalLogger) error {
			for i := 0; i < MaxLogsPerTask; i++ {
				logger.Info("line %d", i)
			}
			return nil
		},
	})

	_, err := m.RunNow("chatty")
	require.NoError(t, err)
	logs, err := m.GetLogs("chatty")
	require.NoError(t, err)
	assert.Len(t, logs, MaxLogsPerTask)
	assert.Contains(t, logs[len(logs)-1].Message, "run #1 completed")
	assert.Equal(t, "line 1", logs[0].Message, "oldest lines are dropped first")
}

func TestManager_TriggerWhileRunning(t *testing.T) {
	m := NewManager(context.Background())
	release := make(chan struct{})
	started := make(chan struct{})
	m.Register(TaskDefinition{
		Name: "slow",
		Handler: func(context.Context, logging.InternalLogger) error {
			close(started)
			<-release
			return nil
		},
	})

	require.NoError(t, m.Trigger("slow"))
	<-started
	assert.ErrorAs(t, m.Trigger("slow"), &TaskRunningError{})
	close(release)
}

func TestManager_UnknownTask(t *testing.T) {
	m := NewManager(context.Background())

	assert.ErrorAs(t, m.Trigger("nope"), &TaskNotFoundError{})
	_, err := m.GetLogs("nope")
	assert.ErrorAs(t, err, &TaskNotFoundError{})
}

func TestManager_ScheduledTaskStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(ctx)

	runs := make(chan struct{}, 100)
	m.Register(TaskDefinition{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Handler: func(context.Context, logging.InternalLogger) error {
			runs <- struct{}{}
			return nil
		},
	})

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}
	cancel()
}
