package postgres

import (
	"context"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/repository"
)

type activityRepository struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

// NewActivityRepository creates a Postgres-backed ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) repository.ActivityRepository {
	return &activityRepository{pool: pool, builder: newBuilder()}
}

// Append is idempotent on the event id so a journal item replayed after a
// partial drain does not duplicate history.
func (r *activityRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	if event.ID == "" || event.TaskID == "" {
		return domain.ErrInvalidPayload
	}

	query, args, err := r.builder.
		Insert("task_activity").
		Columns("id", "task_id", "project_id", "actor_id", "action", "detail", "created_at").
		Values(
			event.ID,
			event.TaskID,
			event.ProjectID,
			event.ActorID,
			event.Action,
			marshalMap(event.Detail),
			sq.Expr("COALESCE(?, NOW())", nullTime(event.CreatedAt)),
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

func (r *activityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]domain.TaskEvent, error) {
	query, args, err := r.builder.
		Select("id", "task_id", "project_id", "actor_id", "action", "detail", "created_at").
		From("task_activity").
		Where(sq.Eq{"task_id": filter.TaskID}).
		OrderBy("created_at DESC").
		Limit(uint64(clampLimit(filter.Limit))).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TaskEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func scanEvent(row scanner) (*domain.TaskEvent, error) {
	var event domain.TaskEvent
	var detail []byte

	if err := row.Scan(
		&event.ID,
		&event.TaskID,
		&event.ProjectID,
		&event.ActorID,
		&event.Action,
		&detail,
		&event.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(detail) > 0 {
		_ = json.Unmarshal(detail, &event.Detail)
	}
	return &event, nil
}
