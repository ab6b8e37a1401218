//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/internal/config"
	pgInfra "github.com/fastygo/dailywork/internal/infrastructure/postgres"
	"github.com/fastygo/dailywork/repository"
)

// Run with: DATABASE_URL=postgres://... go test -tags integration ./repository/postgres/
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, pgInfra.RunMigrations(&config.Config{
		Database:   config.DatabaseConfig{URL: url, Name: "dailywork"},
		Migrations: config.MigrationsConfig{Enabled: true, Path: "../../assets/migrations"},
	}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// seedChain stores A -> B -> C in a fresh project and returns the task ids.
func seedChain(t *testing.T, pool *pgxpool.Pool, repo repository.TaskRepository) (a, b, c string) {
	t.Helper()
	ctx := context.Background()

	userID := uuid.NewString()
	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, 'x')`,
		userID, "it-"+userID, userID+"@example.test")
	require.NoError(t, err)

	projectID := uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `UPDATE tasks SET parent_task_id = NULL WHERE project_id = $1`, projectID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM tasks WHERE project_id = $1`, projectID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, userID)
	})

	parent := ""
	ids := make([]string, 0, 3)
	for _, title := range []string{"A", "B", "C"} {
		created, err := repo.Create(ctx, &domain.Task{
			ProjectID:    projectID,
			CreatorID:    userID,
			Title:        title,
			ParentTaskID: parent,
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
		parent = created.ID
	}
	return ids[0], ids[1], ids[2]
}

func TestWithinTxCommitsPromotionAndDelete(t *testing.T) {
	pool := integrationPool(t)
	repo := NewTaskRepository(pool)
	a, b, c := seedChain(t, pool, repo)
	ctx := context.Background()

	err := repo.WithinTx(ctx, func(tx repository.TaskRepository) error {
		moved, err := tx.Reparent(ctx, []string{c}, a)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), moved)
		return tx.Delete(ctx, b)
	})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, b)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	child, err := repo.GetByID(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, a, child.ParentTaskID)
}

func TestWithinTxRollsBackOnCallbackError(t *testing.T) {
	pool := integrationPool(t)
	repo := NewTaskRepository(pool)
	a, b, c := seedChain(t, pool, repo)
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := repo.WithinTx(ctx, func(tx repository.TaskRepository) error {
		if _, err := tx.Reparent(ctx, []string{c}, a); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	child, err := repo.GetByID(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, b, child.ParentTaskID)
}

func TestWithinTxRollsBackOnStatementFailure(t *testing.T) {
	pool := integrationPool(t)
	repo := NewTaskRepository(pool)
	a, b, c := seedChain(t, pool, repo)
	ctx := context.Background()

	// Deleting A while B still references it violates the parent FK.
	err := repo.WithinTx(ctx, func(tx repository.TaskRepository) error {
		if _, err := tx.Reparent(ctx, []string{c}, ""); err != nil {
			return err
		}
		return tx.Delete(ctx, a)
	})
	require.Error(t, err)

	_, err = repo.GetByID(ctx, a)
	require.NoError(t, err)
	child, err := repo.GetByID(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, b, child.ParentTaskID, "promotion is undone with the failed delete")
}

func TestUpdateClearsStoredTimes(t *testing.T) {
	pool := integrationPool(t)
	repo := NewTaskRepository(pool)
	a, _, _ := seedChain(t, pool, repo)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, a, domain.TaskChanges{StartTime: &start}))
	stored, err := repo.GetByID(ctx, a)
	require.NoError(t, err)
	require.NotNil(t, stored.StartTime)
	assert.True(t, start.Equal(*stored.StartTime))

	require.NoError(t, repo.Update(ctx, a, domain.TaskChanges{ClearStartTime: true}))
	stored, err = repo.GetByID(ctx, a)
	require.NoError(t, err)
	assert.Nil(t, stored.StartTime)
}

func TestUpdateMissingTaskReportsNotFound(t *testing.T) {
	pool := integrationPool(t)
	repo := NewTaskRepository(pool)

	err := repo.Update(context.Background(), uuid.NewString(), domain.TaskChanges{Title: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
