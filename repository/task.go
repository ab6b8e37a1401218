package repository

import (
	"context"

	"github.com/fastygo/dailywork/domain"
)

// TaskRepository persists the task forest. Lookups of a missing row return
// domain.ErrTaskNotFound.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListRoots(ctx context.Context, projectID string) ([]domain.Task, error)
	ListChildren(ctx context.Context, parentID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id string, changes domain.TaskChanges) error
	// Reparent points every listed task at parentID and reports how many rows moved.
	Reparent(ctx context.Context, ids []string, parentID string) (int64, error)
	Delete(ctx context.Context, id string) error
	// WithinTx runs fn against a repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx TaskRepository) error) error
}
