package main

import (
	"os"

	"github.com/chelnak/ysmrr"
)

// TaskManager shows one spinner per processed file on stderr. When disabled
// every call is a no-op.
type TaskManager struct {
	sm      ysmrr.SpinnerManager
	enabled bool
}

// Task is the progress handle of one file.
type Task struct {
	spinner *ysmrr.Spinner
	title   string
}

func newTaskManager(enabled bool) *TaskManager {
	tm := &TaskManager{enabled: enabled}
	if enabled {
		tm.sm = ysmrr.NewSpinnerManager(ysmrr.WithWriter(os.Stderr))
		tm.sm.Start()
	}
	return tm
}

// Start adds a spinner for title.
func (tm *TaskManager) Start(title string) *Task {
	t := &Task{title: title}
	if tm.enabled {
		t.spinner = tm.sm.AddSpinner(title)
	}
	return t
}

// Stop halts the spinner manager.
func (tm *TaskManager) Stop() {
	if tm.enabled {
		tm.sm.Stop()
	}
}

// Done marks the task complete.
func (t *Task) Done(frames int) {
	if t.spinner == nil {
		return
	}
	t.spinner.UpdateMessagef("%s: %d frames", t.title, frames)
	t.spinner.Complete()
}

// Fail marks the task failed.
func (t *Task) Fail(err error) {
	if t.spinner == nil {
		return
	}
	t.spinner.UpdateMessagef("%s: %v", t.title, err)
	t.spinner.Error()
}
