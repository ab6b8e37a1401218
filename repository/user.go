package repository

import (
	"context"

	"github.com/fastygo/dailywork/domain"
)

// UserRepository persists accounts. Lookups of a missing row return
// domain.ErrUserNotFound; unique violations wrap domain.ErrDuplicate.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
