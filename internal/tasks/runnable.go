package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RunnableTask is a registered task together with its run history.
// Logs are kept across runs, the oldest entries are dropped first.
type RunnableTask struct {
	def     TaskDefinition
	timeout time.Duration

	registeredAt time.Time

	mu           sync.RWMutex
	running      bool
	runs         int
	lastRun      time.Time
	lastDuration time.Duration
	lastErr      error
	logs         []LogEntry
}

func newRunnableTask(def TaskDefinition, timeout time.Duration) *RunnableTask {
	return &RunnableTask{
		def:          def,
		timeout:      timeout,
		registeredAt: time.Now(),
	}
}

// begin marks the task as running and returns the number of the new run.
// ok is false if the task is still busy with a previous run.
func (t *RunnableTask) begin() (run int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return 0, false
	}
	t.running = true
	t.runs++
	return t.runs, true
}

func (t *RunnableTask) finish(start time.Time, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.lastRun = start
	t.lastDuration = time.Since(start)
	t.lastErr = err
}

func (t *RunnableTask) Run(parent context.Context) {
	l := log.With().Str("task", t.def.Name).Logger()

	run, ok := t.begin()
	if !ok {
		l.Warn().Msg("task is already running, skipping execution")
		return
	}

	taskLogger := NewCompositeLogger(t, run, l.With().Int("run", run).Logger())
	taskLogger.Info("starting run #%d", run)

	timeout := t.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	err := t.def.Handler(ctx, taskLogger)
	t.finish(start, err)

	if err != nil {
		taskLogger.Error("run #%d failed after %s: %v", run, time.Since(start), err)
		return
	}
	taskLogger.Info("run #%d completed in %s", run, time.Since(start))
}

func (t *RunnableTask) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := TaskStatus{
		Name:         t.def.Name,
		Description:  t.def.Description,
		Interval:     t.def.Interval,
		Running:      t.running,
		Runs:         t.runs,
		LastRun:      t.lastRun,
		LastDuration: t.lastDuration,
	}
	if t.def.Interval > 0 {
		from := t.registeredAt
		if !t.lastRun.IsZero() {
			from = t.lastRun
		}
		s.NextRun = from.Add(t.def.Interval)
	}
	switch {
	case t.lastErr != nil:
		s.LastResult = fmt.Sprintf("failed: %v", t.lastErr)
	case !t.lastRun.IsZero():
		s.LastResult = "success"
	}
	return s
}

func (t *RunnableTask) GetLogs() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cpy := make([]LogEntry, len(t.logs))
	copy(cpy, t.logs)
	return cpy
}

func (t *RunnableTask) AppendLog(run int, level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logs = append(t.logs, LogEntry{
		Time:    time.Now(),
		Run:     run,
		Level:   level,
		Message: msg,
	})
	if over := len(t.logs) - MaxLogsPerTask; over > 0 {
		t.logs = append(t.logs[:0], t.logs[over:]...)
	}
}
