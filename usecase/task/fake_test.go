package task

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/repository"
)

// memTasks is an in-memory TaskRepository. WithinTx works on a copy of the
// rows that replaces the original only when fn succeeds.
type memTasks struct {
	mu    sync.Mutex
	rows  map[string]domain.Task
	seq   int
	fail  map[string]error
	calls map[string]int
}

func newMemTasks(tasks ...domain.Task) *memTasks {
	m := &memTasks{
		rows:  make(map[string]domain.Task),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
	for i, task := range tasks {
		if task.CreatedAt.IsZero() {
			task.CreatedAt = time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC)
		}
		m.rows[task.ID] = task
	}
	return m
}

func (m *memTasks) hit(op string) error {
	m.calls[op]++
	return m.fail[op]
}

func (m *memTasks) get(id string) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.rows[id]
	return task, ok
}

func (m *memTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("GetByID"); err != nil {
		return nil, err
	}
	task, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (m *memTasks) ListRoots(_ context.Context, projectID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("ListRoots"); err != nil {
		return nil, err
	}
	return m.filter(func(t domain.Task) bool { return t.ProjectID == projectID && t.ParentTaskID == "" }), nil
}

func (m *memTasks) ListChildren(_ context.Context, parentID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("ListChildren"); err != nil {
		return nil, err
	}
	return m.filter(func(t domain.Task) bool { return t.ParentTaskID == parentID }), nil
}

func (m *memTasks) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("Create"); err != nil {
		return nil, err
	}
	m.seq++
	if task.ID == "" {
		task.ID = "task-" + strconv.Itoa(m.seq)
	}
	task.CreatedAt = time.Now().UTC()
	task.UpdatedAt = task.CreatedAt
	m.rows[task.ID] = *task
	return task, nil
}

func (m *memTasks) Update(_ context.Context, id string, c domain.TaskChanges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("Update"); err != nil {
		return err
	}
	task, ok := m.rows[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if c.Title != nil {
		task.Title = *c.Title
	}
	if c.Description != nil {
		task.Description = *c.Description
	}
	if c.AssigneeID != nil {
		task.AssigneeID = *c.AssigneeID
	}
	start, finish := c.ApplyTimes(task.StartTime, task.FinishTime)
	task.StartTime, task.FinishTime = utcPtr(start), utcPtr(finish)
	if c.ParentTaskID != nil {
		task.ParentTaskID = *c.ParentTaskID
	}
	m.rows[id] = task
	return nil
}

func (m *memTasks) Reparent(_ context.Context, ids []string, parentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("Reparent"); err != nil {
		return 0, err
	}
	var moved int64
	for _, id := range ids {
		if task, ok := m.rows[id]; ok {
			task.ParentTaskID = parentID
			m.rows[id] = task
			moved++
		}
	}
	return moved, nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("Delete"); err != nil {
		return err
	}
	if _, ok := m.rows[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTasks) WithinTx(ctx context.Context, fn func(tx repository.TaskRepository) error) error {
	m.mu.Lock()
	m.calls["WithinTx"]++
	tx := &memTasks{
		rows:  make(map[string]domain.Task, len(m.rows)),
		fail:  m.fail,
		calls: m.calls,
	}
	for id, task := range m.rows {
		tx.rows[id] = task
	}
	m.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.rows = tx.rows
	m.mu.Unlock()
	return nil
}

func (m *memTasks) filter(keep func(domain.Task) bool) []domain.Task {
	var out []domain.Task
	for _, task := range m.rows {
		if keep(task) {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type recordedActivity struct {
	events []domain.TaskEvent
	err    error
}

func (r *recordedActivity) Record(_ context.Context, event domain.TaskEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
