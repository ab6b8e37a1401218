package repository

import (
	"context"

	"github.com/fastygo/dailywork/domain"
)

type ActivityFilter struct {
	TaskID string
	Limit  int
}

type ActivityRepository interface {
	Append(ctx context.Context, event domain.TaskEvent) error
	List(ctx context.Context, filter ActivityFilter) ([]domain.TaskEvent, error)
}
