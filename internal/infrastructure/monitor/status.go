package monitor

import "time"

// Status is the last observed state of the backing stores.
type Status struct {
	PostgreSQL     bool      `json:"postgresql"`
	Redis          bool      `json:"redis"`
	Journal        bool      `json:"journal"`
	JournalBacklog int       `json:"journal_backlog"`
	LastCheck      time.Time `json:"last_check"`
}

// Healthy reports whether every store answered.
func (s Status) Healthy() bool {
	return s.PostgreSQL && s.Redis && s.Journal
}
