package domain

import "time"

// Task activity actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionMoved   = "moved"
	ActionDeleted = "deleted"
)

// TaskEvent records a change applied to a task.
type TaskEvent struct {
	ID        string            `json:"id"`
	TaskID    string            `json:"task_id"`
	ProjectID string            `json:"project_id"`
	ActorID   string            `json:"actor_id"`
	Action    string            `json:"action"`
	Detail    map[string]string `json:"detail,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (e *TaskEvent) Touch() {
	if e == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}
