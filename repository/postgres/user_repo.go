package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/repository"
)

const (
	usersEmailKey    = "users_email_key"
	usersUsernameKey = "users_username_key"
)

type userRepository struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool, builder: newBuilder()}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, sq.Eq{"username": username})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email})
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, sq.Eq{"email": email})
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, sq.Eq{"username": username})
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query, args, err := r.builder.
		Insert("users").
		Columns("id", "username", "email", "password_hash").
		Values(user.ID, user.Username, user.Email, user.PasswordHash).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			return nil, duplicateError(constraint, err)
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) findOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := r.builder.
		Select("id", "username", "email", "password_hash", "created_at", "updated_at").
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) exists(ctx context.Context, where sq.Eq) (bool, error) {
	inner, args, err := r.builder.Select("1").From("users").Where(where).ToSql()
	if err != nil {
		return false, err
	}
	var found bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+inner+")", args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func duplicateError(constraint string, cause error) error {
	switch constraint {
	case usersEmailKey:
		return fmt.Errorf("%w: %v", domain.ErrEmailTaken, cause)
	case usersUsernameKey:
		return fmt.Errorf("%w: %v", domain.ErrUsernameTaken, cause)
	default:
		return fmt.Errorf("%w: %v", domain.ErrDuplicate, cause)
	}
}
