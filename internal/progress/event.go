package progress

import "time"

// Status indicates the state of a task.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusAborted Status = "aborted"
)

// Event reports a task lifecycle transition. Session events travel on the
// same feed as their own types.
type Event struct {
	TaskID    string
	Task      string // human name, e.g. "scan"
	Message   string
	Status    Status
	Err       error
	Timestamp time.Time
}

// Terminal reports whether the task has finished.
func (e Event) Terminal() bool {
	switch e.Status {
	case StatusDone, StatusError, StatusAborted:
		return true
	}
	return false
}
