package tasks

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/logging"
)

var _ logging.InternalLogger = (*runLogger)(nil)

// runLogger stores messages in the log of one task run.
type runLogger struct {
	task *RunnableTask
	run  int
}

func (r runLogger) Info(format string, args ...any) {
	r.task.AppendLog(r.run, "info", fmt.Sprintf(format, args...))
}

func (r runLogger) Warn(format string, args ...any) {
	r.task.AppendLog(r.run, "warn", fmt.Sprintf(format, args...))
}

func (r runLogger) Error(format string, args ...any) {
	r.task.AppendLog(r.run, "error", fmt.Sprintf(format, args...))
}

// NewCompositeLogger logs a run to zerolog first and then to the task's own log.
func NewCompositeLogger(task *RunnableTask, run int, zlog zerolog.Logger) logging.MultiLogger {
	return logging.NewMultiLogger(
		logging.NewZLogger(zlog),
		runLogger{task: task, run: run},
	)
}
