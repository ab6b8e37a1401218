// Package task maintains the per-project task forest: creation, patching,
// re-parenting on move or delete, and tree retrieval.
package task

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/logger"
	"github.com/fastygo/dailywork/pkg/timeconv"
	"github.com/fastygo/dailywork/repository"
	"github.com/fastygo/dailywork/usecase"
)

const (
	msgCreated        = "task created"
	msgDeleted        = "task deleted"
	msgUpdated        = "task updated"
	msgListed         = "task list retrieved"
	msgDetail         = "task detail retrieved"
	msgCreateFailed   = "task creation failed"
	msgDeleteFailed   = "task deletion failed"
	msgUpdateFailed   = "task update failed"
	msgListFailed     = "task list retrieval failed"
	msgDetailFailed   = "task detail retrieval failed"
	msgTaskNotFound   = "task not found"
	msgNoDeleteRights = "only the creator may delete this task"
	msgNoUpdateRights = "only the creator may modify this task"
)

// Tree is the task use case. Storage is injected; every multi-row change runs
// through TaskRepository.WithinTx.
type Tree struct {
	tasks    repository.TaskRepository
	activity usecase.ActivityRecorder
	clock    *timeconv.Converter
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, activity usecase.ActivityRecorder, clock *timeconv.Converter, logger *zap.Logger) *Tree {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = timeconv.MustNew(timeconv.DefaultZone)
	}
	return &Tree{
		tasks:    tasks,
		activity: activity,
		clock:    clock,
		logger:   logger,
	}
}

// Add creates a task owned and assigned to the acting user.
func (t *Tree) Add(ctx context.Context, user *domain.User, p AddPayload) (domain.Result, error) {
	log := logger.WithRequestID(ctx, t.logger)

	start, err := t.parseTime("start time", p.StartTime)
	if err != nil {
		return domain.Result{}, err
	}
	finish, err := t.parseTime("finish time", p.FinishTime)
	if err != nil {
		return domain.Result{}, err
	}
	if err := domain.CheckTimeRange(start, finish); err != nil {
		return domain.Result{}, err
	}

	if p.ParentTaskID != "" {
		if _, err := t.loadParent(ctx, p.ParentTaskID, p.ProjectID, msgCreateFailed); err != nil {
			return domain.Result{}, err
		}
	}

	created, err := t.tasks.Create(ctx, &domain.Task{
		ProjectID:    p.ProjectID,
		CreatorID:    user.ID,
		AssigneeID:   user.ID,
		Title:        p.Title,
		Description:  p.Description,
		StartTime:    start,
		FinishTime:   finish,
		ParentTaskID: p.ParentTaskID,
	})
	if err != nil || created == nil {
		log.Error(msgCreateFailed, zap.String("project_id", p.ProjectID), zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgCreateFailed, err)
	}

	t.record(ctx, created, user.ID, domain.ActionCreated, nil)
	return domain.OK(msgCreated, t.localize(*created)), nil
}

// Delete removes a task. Its direct children are promoted to the task's own
// parent in the same transaction as the delete.
func (t *Tree) Delete(ctx context.Context, user *domain.User, p DeletePayload) (domain.Result, error) {
	log := logger.WithRequestID(ctx, t.logger)

	task, err := t.loadOwned(ctx, user, p.TaskID, msgNoDeleteRights, msgDeleteFailed)
	if err != nil {
		return domain.Result{}, err
	}

	children, err := t.tasks.ListChildren(ctx, task.ID)
	if err != nil {
		log.Error("child lookup failed", zap.String("task_id", task.ID), zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgDeleteFailed, err)
	}

	if len(children) > 0 {
		err = t.tasks.WithinTx(ctx, func(tx repository.TaskRepository) error {
			if _, err := tx.Reparent(ctx, taskIDs(children), task.ParentTaskID); err != nil {
				return err
			}
			return tx.Delete(ctx, task.ID)
		})
	} else {
		err = t.tasks.Delete(ctx, task.ID)
	}
	if err != nil {
		log.Error(msgDeleteFailed, zap.String("task_id", task.ID), zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgDeleteFailed, err)
	}

	t.record(ctx, task, user.ID, domain.ActionDeleted, map[string]string{
		"promoted_children": strconv.Itoa(len(children)),
		"parent_task_id":    task.ParentTaskID,
	})
	return domain.OK(msgDeleted, nil), nil
}

// Update patches a task. Moving to a new parent without MoveWithChildren
// leaves the task's children behind, attached to its previous parent.
func (t *Tree) Update(ctx context.Context, user *domain.User, p UpdatePayload) (domain.Result, error) {
	log := logger.WithRequestID(ctx, t.logger)

	task, err := t.loadOwned(ctx, user, p.TaskID, msgNoUpdateRights, msgUpdateFailed)
	if err != nil {
		return domain.Result{}, err
	}

	changes, err := t.changesFrom(p)
	if err != nil {
		return domain.Result{}, err
	}

	if changes.IsEmpty() {
		return domain.OK(msgUpdated, nil), nil
	}

	start, finish := changes.ApplyTimes(task.StartTime, task.FinishTime)
	if err := domain.CheckTimeRange(start, finish); err != nil {
		return domain.Result{}, err
	}

	moving := changes.ParentTaskID != nil && *changes.ParentTaskID != task.ParentTaskID
	if moving {
		if err := t.checkMoveTarget(ctx, task, *changes.ParentTaskID, p.MoveWithChildren); err != nil {
			return domain.Result{}, err
		}
	}

	detail := t.timeDetail(changes)
	if moving {
		detail["from_parent_task_id"] = task.ParentTaskID
		detail["to_parent_task_id"] = *changes.ParentTaskID
		detail["with_children"] = strconv.FormatBool(p.MoveWithChildren)
	}

	if moving && !p.MoveWithChildren {
		children, err := t.tasks.ListChildren(ctx, task.ID)
		if err != nil {
			log.Error("child lookup failed", zap.String("task_id", task.ID), zap.Error(err))
			return domain.Result{}, domain.InternalFault(msgUpdateFailed, err)
		}
		if len(children) > 0 {
			err = t.tasks.WithinTx(ctx, func(tx repository.TaskRepository) error {
				if _, err := tx.Reparent(ctx, taskIDs(children), task.ParentTaskID); err != nil {
					return err
				}
				return tx.Update(ctx, task.ID, changes)
			})
			if err != nil {
				log.Error(msgUpdateFailed, zap.String("task_id", task.ID), zap.Error(err))
				return domain.Result{}, domain.InternalFault(msgUpdateFailed, err)
			}
			detail["detached_children"] = strconv.Itoa(len(children))
			t.record(ctx, task, user.ID, domain.ActionMoved, detail)
			return domain.OK(msgUpdated, nil), nil
		}
	}

	if err := t.tasks.Update(ctx, task.ID, changes); err != nil {
		log.Error(msgUpdateFailed, zap.String("task_id", task.ID), zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgUpdateFailed, err)
	}

	action := domain.ActionUpdated
	if moving {
		action = domain.ActionMoved
	}
	t.record(ctx, task, user.ID, action, detail)
	return domain.OK(msgUpdated, nil), nil
}

// ListProjectTasks returns the project's roots with their subtrees attached.
func (t *Tree) ListProjectTasks(ctx context.Context, p ListPayload) (domain.Result, error) {
	log := logger.WithRequestID(ctx, t.logger)

	roots, err := t.tasks.ListRoots(ctx, p.ProjectID)
	if err != nil {
		log.Error(msgListFailed, zap.String("project_id", p.ProjectID), zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgListFailed, err)
	}

	visited := make(map[string]struct{}, len(roots))
	nodes := make([]*domain.TaskNode, 0, len(roots))
	for _, root := range roots {
		node, err := t.subtree(ctx, root, visited)
		if err != nil {
			log.Error(msgListFailed, zap.String("project_id", p.ProjectID), zap.Error(err))
			return domain.Result{}, domain.InternalFault(msgListFailed, err)
		}
		nodes = append(nodes, node)
	}
	return domain.OK(msgListed, nodes), nil
}

// GetTaskDetail returns a single task with display-zone times.
func (t *Tree) GetTaskDetail(ctx context.Context, p DetailPayload) (domain.Result, error) {
	task, err := t.load(ctx, p.TaskID, msgDetailFailed)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.OK(msgDetail, t.localize(*task)), nil
}

// subtree fetches children depth-first. visited guards against a stored cycle.
func (t *Tree) subtree(ctx context.Context, task domain.Task, visited map[string]struct{}) (*domain.TaskNode, error) {
	visited[task.ID] = struct{}{}
	node := &domain.TaskNode{Task: t.localize(task)}

	children, err := t.tasks.ListChildren(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if _, seen := visited[child.ID]; seen {
			logger.WithRequestID(ctx, t.logger).Warn("task cycle detected",
				zap.String("task_id", child.ID),
				zap.String("parent_task_id", task.ID))
			continue
		}
		childNode, err := t.subtree(ctx, child, visited)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

// checkMoveTarget validates a new parent. Moving with children must not put
// the task under its own subtree; moving alone cannot create a cycle because
// the children are detached first.
func (t *Tree) checkMoveTarget(ctx context.Context, task *domain.Task, parentID string, withChildren bool) error {
	if parentID == "" {
		return nil
	}
	if parentID == task.ID {
		return domain.ValidationFault("a task cannot be its own parent")
	}

	parent, err := t.loadParent(ctx, parentID, task.ProjectID, msgUpdateFailed)
	if err != nil {
		return err
	}
	if !withChildren {
		return nil
	}

	seen := map[string]struct{}{parent.ID: {}}
	for current := parent; !current.IsRoot(); {
		if current.ParentTaskID == task.ID {
			return domain.ValidationFault("a task cannot be moved under its own subtree")
		}
		if _, loop := seen[current.ParentTaskID]; loop {
			return nil
		}
		seen[current.ParentTaskID] = struct{}{}

		next, err := t.tasks.GetByID(ctx, current.ParentTaskID)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil
		}
		if err != nil {
			return domain.InternalFault(msgUpdateFailed, err)
		}
		current = next
	}
	return nil
}

func (t *Tree) loadParent(ctx context.Context, parentID, projectID, failMsg string) (*domain.Task, error) {
	parent, err := t.tasks.GetByID(ctx, parentID)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, domain.ValidationFault("parent task does not exist")
	}
	if err != nil {
		return nil, domain.InternalFault(failMsg, err)
	}
	if parent.ProjectID != projectID {
		return nil, domain.ValidationFault("parent task belongs to another project")
	}
	return parent, nil
}

func (t *Tree) load(ctx context.Context, id, failMsg string) (*domain.Task, error) {
	task, err := t.tasks.GetByID(ctx, id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, domain.NotFoundFault(msgTaskNotFound)
	}
	if err != nil {
		logger.WithRequestID(ctx, t.logger).Error("task lookup failed", zap.String("task_id", id), zap.Error(err))
		return nil, domain.InternalFault(failMsg, err)
	}
	return task, nil
}

func (t *Tree) loadOwned(ctx context.Context, user *domain.User, id, deniedMsg, failMsg string) (*domain.Task, error) {
	task, err := t.load(ctx, id, failMsg)
	if err != nil {
		return nil, err
	}
	if user == nil || !task.OwnedBy(user.ID) {
		return nil, domain.PermissionFault(deniedMsg)
	}
	return task, nil
}

func (t *Tree) changesFrom(p UpdatePayload) (domain.TaskChanges, error) {
	changes := domain.TaskChanges{
		Title:        p.Title,
		Description:  p.Description,
		AssigneeID:   p.AssigneeID,
		ParentTaskID: p.ParentTaskID,
	}
	// A supplied empty time clears the stored one.
	if p.StartTime != nil {
		start, err := t.parseTime("start time", *p.StartTime)
		if err != nil {
			return changes, err
		}
		changes.StartTime = start
		changes.ClearStartTime = start == nil
	}
	if p.FinishTime != nil {
		finish, err := t.parseTime("finish time", *p.FinishTime)
		if err != nil {
			return changes, err
		}
		changes.FinishTime = finish
		changes.ClearFinishTime = finish == nil
	}
	return changes, nil
}

func (t *Tree) timeDetail(changes domain.TaskChanges) map[string]string {
	detail := map[string]string{}
	switch {
	case changes.ClearStartTime:
		detail["start_time"] = ""
	case changes.StartTime != nil:
		detail["start_time"] = t.clock.FormatLocal(*changes.StartTime)
	}
	switch {
	case changes.ClearFinishTime:
		detail["finish_time"] = ""
	case changes.FinishTime != nil:
		detail["finish_time"] = t.clock.FormatLocal(*changes.FinishTime)
	}
	return detail
}

func (t *Tree) parseTime(field, value string) (*time.Time, error) {
	parsed, err := t.clock.ParseLocal(value)
	if err != nil {
		return nil, domain.ValidationFault("invalid " + field)
	}
	return parsed, nil
}

func (t *Tree) localize(task domain.Task) domain.Task {
	task.StartTime = t.clock.ToLocal(task.StartTime)
	task.FinishTime = t.clock.ToLocal(task.FinishTime)
	task.CreatedAt = task.CreatedAt.In(t.clock.Location())
	task.UpdatedAt = task.UpdatedAt.In(t.clock.Location())
	return task
}

func (t *Tree) record(ctx context.Context, task *domain.Task, actorID, action string, detail map[string]string) {
	if t.activity == nil || task == nil {
		return
	}
	if len(detail) == 0 {
		detail = nil
	}
	event := domain.TaskEvent{
		ID:        uuid.NewString(),
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		ActorID:   actorID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.activity.Record(ctx, event); err != nil {
		logger.WithRequestID(ctx, t.logger).Warn("task activity not recorded",
			zap.String("task_id", task.ID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}
