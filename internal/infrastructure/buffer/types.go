package buffer

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/dailywork/domain"
)

// Entry is a task event waiting to reach the activity table.
type Entry struct {
	Event    domain.TaskEvent `json:"event"`
	Retries  int              `json:"retries"`
	QueuedAt time.Time        `json:"queued_at"`

	key []byte
}

func (e *Entry) normalize() {
	if e.Event.ID == "" {
		e.Event.ID = uuid.NewString()
	}
	e.Event.Touch()
	if e.QueuedAt.IsZero() {
		e.QueuedAt = time.Now().UTC()
	}
}

// entryKey orders entries by queue time so batches drain oldest first.
func entryKey(e Entry) []byte {
	return []byte(e.QueuedAt.UTC().Format("20060102T150405.000000000") + "_" + e.Event.ID)
}
