package task

// AddPayload describes a new task. Times are display-zone wall clock or RFC 3339.
type AddPayload struct {
	ProjectID    string
	Title        string
	Description  string
	StartTime    string
	FinishTime   string
	ParentTaskID string
}

type DeletePayload struct {
	TaskID string
}

// UpdatePayload is a patch: nil fields are not touched. A ParentTaskID
// pointing at "" moves the task to the root level.
type UpdatePayload struct {
	TaskID           string
	Title            *string
	Description      *string
	AssigneeID       *string
	StartTime        *string
	FinishTime       *string
	ParentTaskID     *string
	MoveWithChildren bool
}

type ListPayload struct {
	ProjectID string
}

type DetailPayload struct {
	TaskID string
}
