// Package activity serves the per-task change history.
package activity

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/logger"
	"github.com/fastygo/dailywork/pkg/timeconv"
	"github.com/fastygo/dailywork/repository"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	msgListed     = "task activity retrieved"
	msgListFailed = "task activity retrieval failed"
)

type UseCase struct {
	events repository.ActivityRepository
	clock  *timeconv.Converter
	logger *zap.Logger
}

func New(events repository.ActivityRepository, clock *timeconv.Converter, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = timeconv.MustNew(timeconv.DefaultZone)
	}
	return &UseCase{
		events: events,
		clock:  clock,
		logger: logger,
	}
}

// ListTaskActivity returns the newest events of a task. Events of deleted
// tasks stay listable.
func (uc *UseCase) ListTaskActivity(ctx context.Context, taskID string, limit int) (domain.Result, error) {
	log := logger.WithRequestID(ctx, uc.logger)

	events, err := uc.events.List(ctx, repository.ActivityFilter{TaskID: taskID, Limit: ClampLimit(limit)})
	if err != nil {
		log.Error(msgListFailed, zap.String("task_id", taskID), zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgListFailed, err)
	}

	out := make([]domain.TaskEvent, 0, len(events))
	for _, event := range events {
		event.CreatedAt = event.CreatedAt.In(uc.clock.Location())
		out = append(out, event)
	}
	return domain.OK(msgListed, out), nil
}

// ClampLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
