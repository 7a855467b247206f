package models

import "time"

type TaskStatus string

const (
	StatusQueued  TaskStatus = "queued"
	StatusRunning TaskStatus = "running"
	StatusDone    TaskStatus = "done"
	StatusFailed  TaskStatus = "failed"
)

// Finished is true for done and failed tasks.
func (s TaskStatus) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// TaskRequest is what a client submits: a named UCI script.
type TaskRequest struct {
	Name  string `json:"name"`
	Input string `json:"input"`
}

type TaskCreated struct {
	TaskID string `json:"task_id"`
}

// Task is the server's view of one submitted computation.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Input     string     `json:"input,omitempty"`
	Status    TaskStatus `json:"status"`
	Progress  float64    `json:"progress"`
	Outputs   []string   `json:"outputs,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ProgressUpdate struct {
	Progress float64 `json:"progress"`
}

// TaskResult is posted by a worker when it is done with a task. A non-empty
// Error marks the task failed.
type TaskResult struct {
	Outputs []string `json:"outputs"`
	Error   string   `json:"error,omitempty"`
}

type QueueStatus struct {
	QueueLength int      `json:"queue_length"`
	Pending     []string `json:"pending"`
}

// Receipt is written to the client data directory after a submission.
type Receipt struct {
	TaskID      string    `json:"task_id"`
	Server      string    `json:"server"`
	Workspace   string    `json:"workspace"`
	SubmittedAt time.Time `json:"submitted_at"`
}
