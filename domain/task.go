package domain

import "time"

// Task is a node of a project's task forest. An empty ParentTaskID marks a root.
// Times are stored as UTC instants.
type Task struct {
	ID           string     `json:"task_id"`
	ProjectID    string     `json:"project_id"`
	CreatorID    string     `json:"creator_id"`
	AssigneeID   string     `json:"assignee_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	FinishTime   *time.Time `json:"finish_time,omitempty"`
	ParentTaskID string     `json:"parent_task_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (t *Task) IsRoot() bool {
	return t != nil && t.ParentTaskID == ""
}

func (t *Task) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.CreatorID == userID
}

// TaskNode is a task with its direct children attached, as returned by tree listings.
type TaskNode struct {
	Task
	Children []*TaskNode `json:"children,omitempty"`
}

// TaskChanges is a partial update. Nil fields are left untouched; a non-nil
// ParentTaskID pointing at "" moves the task to the root level. The Clear
// flags unset a time and take precedence over the matching time field.
type TaskChanges struct {
	Title           *string
	Description     *string
	AssigneeID      *string
	StartTime       *time.Time
	FinishTime      *time.Time
	ClearStartTime  bool
	ClearFinishTime bool
	ParentTaskID    *string
}

func (c TaskChanges) IsEmpty() bool {
	return c.Title == nil &&
		c.Description == nil &&
		c.AssigneeID == nil &&
		c.StartTime == nil &&
		c.FinishTime == nil &&
		!c.ClearStartTime &&
		!c.ClearFinishTime &&
		c.ParentTaskID == nil
}

// ApplyTimes returns the time range the task would have after the change.
func (c TaskChanges) ApplyTimes(start, finish *time.Time) (*time.Time, *time.Time) {
	switch {
	case c.ClearStartTime:
		start = nil
	case c.StartTime != nil:
		start = c.StartTime
	}
	switch {
	case c.ClearFinishTime:
		finish = nil
	case c.FinishTime != nil:
		finish = c.FinishTime
	}
	return start, finish
}

// CheckTimeRange rejects a range whose finish is not strictly after its start.
// Open ranges always pass.
func CheckTimeRange(start, finish *time.Time) error {
	if start == nil || finish == nil {
		return nil
	}
	if !finish.After(*start) {
		return ValidationFault("finish time must be later than start time")
	}
	return nil
}
