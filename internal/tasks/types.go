package tasks

import (
	"context"
	"time"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/logging"
)

// TaskFunc is the unit of work. Everything written to logger is kept with the task.
type TaskFunc func(ctx context.Context, logger logging.InternalLogger) error

type TaskDefinition struct {
	Name        string
	Description string
	// Interval of 0 registers a task that only runs when triggered.
	Interval time.Duration
	Handler  TaskFunc
}

type TaskStatus struct {
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Interval     time.Duration `json:"interval,omitempty"`
	Running      bool          `json:"running,omitempty"`
	Runs         int           `json:"runs"`
	LastRun      time.Time     `json:"last_run"`
	LastDuration time.Duration `json:"last_duration,omitempty"`
	LastResult   string        `json:"last_result,omitempty"`
	NextRun      time.Time     `json:"next_run"`
}

type LogEntry struct {
	Time    time.Time `json:"time"`
	Run     int       `json:"run"`
	Level   string    `json:"level,omitempty"`
	Message string    `json:"message,omitempty"`
}
