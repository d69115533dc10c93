package tasks

import "fmt"

type TaskNotFoundError struct {
	Name string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task '%s' not found", e.Name)
}

// TaskRunningError is returned when a task is triggered while a run is in progress.
type TaskRunningError struct {
	Name string
}

func (e TaskRunningError) Error() string {
	return fmt.Sprintf("task '%s' is already running", e.Name)
}
