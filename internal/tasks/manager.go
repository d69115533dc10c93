package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxLogsPerTask bounds the log kept for each task across all of its runs.
const MaxLogsPerTask = 500

// DefaultTimeout bounds a single task execution.
const DefaultTimeout = 5 * time.Minute

// Manager runs the background maintenance of the approval engine, such as
// the request expiry sweep. Tasks run on an interval, on trigger, or both.
type Manager struct {
	ctx     context.Context
	timeout time.Duration

	mu    sync.RWMutex
	tasks map[string]*RunnableTask
}

// NewManager creates a task manager. Scheduled tasks stop when ctx is cancelled.
func NewManager(ctx context.Context) *Manager {
	return &Manager{
		ctx:     ctx,
		timeout: DefaultTimeout,
		tasks:   make(map[string]*RunnableTask),
	}
}

// SetTimeout changes the execution timeout of tasks registered afterwards.
func (m *Manager) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		m.timeout = timeout
	}
}

// Register adds a task. Registering a name twice replaces the definition,
// but a schedule already started for the old definition keeps running.
func (m *Manager) Register(def TaskDefinition) {
	task := newRunnableTask(def, m.timeout)

	m.mu.Lock()
	m.tasks[def.Name] = task
	m.mu.Unlock()

	log.Debug().
		Str("task", def.Name).
		Dur("interval", def.Interval).
		Msg("registered background task")

	if def.Interval > 0 {
		go m.scheduler(task)
	}
}

func (m *Manager) get(name string) (*RunnableTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[name]
	if !ok {
		return nil, TaskNotFoundError{Name: name}
	}
	return task, nil
}

// Trigger runs a task in the background, outside its schedule.
func (m *Manager) Trigger(name string) error {
	task, err := m.get(name)
	if err != nil {
		return err
	}
	if task.Status().Running {
		return TaskRunningError{Name: name}
	}
	go task.Run(m.ctx)
	return nil
}

// RunNow runs a task and waits for it to finish.
func (m *Manager) RunNow(name string) (TaskStatus, error) {
	task, err := m.get(name)
	if err != nil {
		return TaskStatus{}, err
	}
	task.Run(m.ctx)
	return task.Status(), nil
}

// ListStatus returns the status of every task, sorted by name.
func (m *Manager) ListStatus() []TaskStatus {
	m.mu.RLock()
	list := make([]TaskStatus, 0, len(m.tasks))
	for _, task := range m.tasks {
		list = append(list, task.Status())
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func (m *Manager) GetLogs(name string) ([]LogEntry, error) {
	task, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return task.GetLogs(), nil
}

func (m *Manager) scheduler(task *RunnableTask) {
	ticker := time.NewTicker(task.def.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			task.Run(m.ctx)
		}
	}
}
