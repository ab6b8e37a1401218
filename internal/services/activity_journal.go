package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/internal/infrastructure/buffer"
	"github.com/fastygo/dailywork/pkg/logger"
	"github.com/fastygo/dailywork/repository"
	"github.com/fastygo/dailywork/usecase"
)

// ConnectionHealth abstracts the connection monitor.
type ConnectionHealth interface {
	IsOnline() bool
}

// JournalConfig controls how often and how much of the journal is drained.
type JournalConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// ActivityJournal writes task events to Postgres, parking them in the bbolt
// journal while the database is unreachable. A cron job drains the journal.
type ActivityJournal struct {
	store   *buffer.Store
	monitor ConnectionHealth
	events  repository.ActivityRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     JournalConfig
}

var _ usecase.ActivityRecorder = (*ActivityJournal)(nil)

func NewActivityJournal(
	store *buffer.Store,
	monitor ConnectionHealth,
	events repository.ActivityRepository,
	logger *zap.Logger,
	cfg JournalConfig,
) *ActivityJournal {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &ActivityJournal{
		store:   store,
		monitor: monitor,
		events:  events,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(),
	}

	j.cron.Schedule(cron.Every(cfg.Interval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := j.Drain(ctx); err != nil {
			j.logger.Error("journal drain failed", zap.Error(err))
		}
	}))

	return j
}

func (j *ActivityJournal) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("activity journal started", zap.Duration("interval", j.cfg.Interval))
}

// Stop waits for a running drain or for ctx, whichever ends first.
func (j *ActivityJournal) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("activity journal stopped", zap.Int("pending", j.Pending()))
}

// Record appends the event directly when Postgres is up and journals it
// otherwise, or when the direct write fails.
func (j *ActivityJournal) Record(ctx context.Context, event domain.TaskEvent) error {
	if j == nil || j.store == nil {
		return fmt.Errorf("activity journal not configured")
	}
	event.Touch()

	if j.monitor == nil || j.monitor.IsOnline() {
		err := j.events.Append(ctx, event)
		if err == nil {
			return nil
		}
		logger.WithRequestID(ctx, j.logger).Warn("direct activity write failed, journaling",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
	return j.store.Append(buffer.Entry{Event: event})
}

// Drain flushes one batch. Failed entries go to the back of the queue until
// they reach MaxRetries, then they are dropped.
func (j *ActivityJournal) Drain(ctx context.Context) error {
	if j == nil || j.store == nil {
		return nil
	}
	if j.monitor != nil && !j.monitor.IsOnline() {
		j.logger.Debug("skipping journal drain (offline)")
		return nil
	}

	if j.cfg.Retention > 0 {
		pruned, err := j.store.Prune(time.Now().Add(-j.cfg.Retention))
		if err != nil {
			j.logger.Warn("journal prune failed", zap.Error(err))
		} else if pruned > 0 {
			j.logger.Warn("dropped stale journal entries", zap.Int("count", pruned))
		}
	}

	entries, err := j.store.Batch(j.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := j.events.Append(ctx, entry.Event); err != nil {
			j.logger.Error("failed to flush journal entry",
				zap.String("event_id", entry.Event.ID),
				zap.String("task_id", entry.Event.TaskID),
				zap.Error(err))

			entry.Retries++
			if entry.Retries >= j.cfg.MaxRetries {
				j.logger.Warn("dropping journal entry (max retries reached)", zap.String("event_id", entry.Event.ID))
				_ = j.store.Remove(entry)
				continue
			}
			if err := j.store.Requeue(entry); err != nil {
				j.logger.Error("failed to requeue journal entry", zap.Error(err))
			}
			continue
		}

		if err := j.store.Remove(entry); err != nil {
			j.logger.Warn("failed to purge flushed journal entry", zap.Error(err))
		}
	}
	if len(entries) > 0 {
		j.logger.Debug("journal batch drained", zap.Int("batch", len(entries)), zap.Int("pending", j.Pending()))
	}
	return nil
}

// Pending returns the journal backlog, or 0 when it cannot be read.
func (j *ActivityJournal) Pending() int {
	if j == nil || j.store == nil {
		return 0
	}
	size, err := j.store.Len()
	if err != nil {
		return 0
	}
	return size
}
