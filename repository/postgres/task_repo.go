package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/repository"
)

var taskColumns = []string{
	"task_id",
	"project_id",
	"creator_id",
	"assignee_id",
	"title",
	"description",
	"start_time",
	"finish_time",
	"COALESCE(parent_task_id, '')",
	"created_at",
	"updated_at",
}

type taskRepository struct {
	pool    *pgxpool.Pool
	db      querier
	builder sq.StatementBuilderType
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool, db: pool, builder: newBuilder()}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query, args, err := r.builder.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"task_id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanTask(r.db.QueryRow(ctx, query, args...))
}

func (r *taskRepository) ListRoots(ctx context.Context, projectID string) ([]domain.Task, error) {
	return r.list(ctx, sq.And{
		sq.Eq{"project_id": projectID},
		sq.Eq{"parent_task_id": nil},
	})
}

func (r *taskRepository) ListChildren(ctx context.Context, parentID string) ([]domain.Task, error) {
	if parentID == "" {
		return nil, nil
	}
	return r.list(ctx, sq.Eq{"parent_task_id": parentID})
}

func (r *taskRepository) list(ctx context.Context, where sq.Sqlizer) ([]domain.Task, error) {
	query, args, err := r.builder.
		Select(taskColumns...).
		From("tasks").
		Where(where).
		OrderBy("created_at ASC", "task_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	query, args, err := r.builder.
		Insert("tasks").
		Columns("task_id", "project_id", "creator_id", "assignee_id", "title", "description",
			"start_time", "finish_time", "parent_task_id").
		Values(
			task.ID,
			task.ProjectID,
			task.CreatorID,
			task.AssigneeID,
			task.Title,
			task.Description,
			nullTimePtr(task.StartTime),
			nullTimePtr(task.FinishTime),
			nullString(task.ParentTaskID),
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, changes domain.TaskChanges) error {
	query, args, err := buildTaskUpdate(r.builder, id, changes)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Reparent(ctx context.Context, ids []string, parentID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := r.builder.
		Update("tasks").
		Set("parent_task_id", nullString(parentID)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"task_id": ids}).
		ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.builder.
		Delete("tasks").
		Where(sq.Eq{"task_id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) WithinTx(ctx context.Context, fn func(tx repository.TaskRepository) error) error {
	if _, inTx := r.db.(pgx.Tx); inTx {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&taskRepository{pool: r.pool, db: tx, builder: r.builder})
	})
}

func buildTaskUpdate(builder sq.StatementBuilderType, id string, changes domain.TaskChanges) (string, []interface{}, error) {
	stmt := builder.Update("tasks")
	if changes.Title != nil {
		stmt = stmt.Set("title", *changes.Title)
	}
	if changes.Description != nil {
		stmt = stmt.Set("description", *changes.Description)
	}
	if changes.AssigneeID != nil {
		stmt = stmt.Set("assignee_id", *changes.AssigneeID)
	}
	switch {
	case changes.ClearStartTime:
		stmt = stmt.Set("start_time", nil)
	case changes.StartTime != nil:
		stmt = stmt.Set("start_time", changes.StartTime.UTC())
	}
	switch {
	case changes.ClearFinishTime:
		stmt = stmt.Set("finish_time", nil)
	case changes.FinishTime != nil:
		stmt = stmt.Set("finish_time", changes.FinishTime.UTC())
	}
	if changes.ParentTaskID != nil {
		stmt = stmt.Set("parent_task_id", nullString(*changes.ParentTaskID))
	}
	return stmt.
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"task_id": id}).
		ToSql()
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	var start, finish *time.Time

	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.CreatorID,
		&task.AssigneeID,
		&task.Title,
		&task.Description,
		&start,
		&finish,
		&task.ParentTaskID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	if start != nil {
		utc := start.UTC()
		task.StartTime = &utc
	}
	if finish != nil {
		utc := finish.UTC()
		task.FinishTime = &utc
	}
	return &task, nil
}
