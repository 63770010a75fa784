package service

import (
	"time"

	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/pkg/errors"
)

// Actor is the authenticated caller of an operation, resolved upstream
// from a bearer credential.
type Actor struct {
	ID    int64
	Admin bool
}

// TaskPatch carries the fields UpdateTask may change; nil means "leave as
// is".
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	AssigneeID  *int64
	WorkflowID  *int64
	DueDate     *time.Time
}

type TaskService struct {
	store  storage.Store
	logger Logger
}

func NewTaskService(store storage.Store, logger Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

// CreateTask persists a new task and its initial assignment history row.
func (ts *TaskService) CreateTask(title, description, status string, assigneeID int64, workflowID *int64, dueDate *time.Time) (task models.Task, err error) {
	if title == "" {
		return models.Task{}, errors.New("task title cannot be empty")
	}
	if description == "" {
		return models.Task{}, errors.New("task description cannot be empty")
	}
	if status == "" {
		return models.Task{}, errors.New("task status cannot be empty")
	}
	txStore, err := ts.store.Begin()
	if err != nil {
		return models.Task{}, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			ts.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if _, err = txStore.GetUser(assigneeID); err != nil {
		if err == storage.ErrNotFound {
			return models.Task{}, notFoundf("user %d", assigneeID)
		}
		return models.Task{}, err
	}
	if workflowID != nil {
		if _, err = txStore.GetWorkflow(*workflowID); err != nil {
			if err == storage.ErrNotFound {
				return models.Task{}, notFoundf("workflow %d", *workflowID)
			}
			return models.Task{}, err
		}
	}

	now := time.Now()
	task = models.Task{
		Title:       title,
		Description: description,
		Status:      status,
		AssigneeID:  assigneeID,
		WorkflowID:  workflowID,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.ID, err = txStore.SaveTask(task)
	if err != nil {
		return models.Task{}, err
	}
	if _, err = txStore.SaveAssignment(models.Assignment{TaskID: task.ID, UserID: assigneeID, AssignedAt: now}); err != nil {
		return models.Task{}, err
	}
	ts.logger.Infof("Created task '%s' with ID %d assigned to user %d", title, task.ID, assigneeID)
	return task, nil
}

func (ts *TaskService) GetTask(taskID int64) (models.Task, error) {
	task, err := ts.store.GetTask(taskID)
	if err == storage.ErrNotFound {
		return models.Task{}, notFoundf("task %d", taskID)
	}
	return task, err
}

// UpdateTask applies a patch under the caller's authorization. Three axes
// gate independently:
//
//   - status: a change is allowed only when every task this task depends
//     on has status "Completed";
//   - workflow: only an admin may move the task; the target must exist;
//   - assignee: an admin or the current assignee may hand the task off; a
//     permitted change appends an assignment history row.
//
// A requested change the actor may not apply is not an error: the call
// returns (nil, nil) and nothing is written. Permitted changes commit
// atomically with UpdatedAt refreshed.
func (ts *TaskService) UpdateTask(taskID int64, patch TaskPatch, actor Actor) (updated *models.Task, err error) {
	txStore, err := ts.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			ts.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	task, err := txStore.GetTask(taskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, notFoundf("task %d", taskID)
		}
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}

	if patch.Status != nil && *patch.Status != task.Status {
		ok, err := ts.canTransitionStatus(txStore, taskID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, conflictf("dependent tasks not completed for task %d", taskID)
		}
		task.Status = *patch.Status
	}

	if patch.WorkflowID != nil && !task.InWorkflow(*patch.WorkflowID) {
		if !actor.Admin {
			ts.logger.Infof("Actor %d is not permitted to move task %d to workflow %d", actor.ID, taskID, *patch.WorkflowID)
			return nil, nil
		}
		if _, err = txStore.GetWorkflow(*patch.WorkflowID); err != nil {
			if err == storage.ErrNotFound {
				return nil, notFoundf("workflow %d", *patch.WorkflowID)
			}
			return nil, err
		}
		task.WorkflowID = patch.WorkflowID
	}

	assigneeChanged := patch.AssigneeID != nil && *patch.AssigneeID != task.AssigneeID
	if assigneeChanged {
		if !actor.Admin && actor.ID != task.AssigneeID {
			ts.logger.Infof("Actor %d is not permitted to reassign task %d", actor.ID, taskID)
			return nil, nil
		}
		if _, err = txStore.GetUser(*patch.AssigneeID); err != nil {
			if err == storage.ErrNotFound {
				return nil, notFoundf("user %d", *patch.AssigneeID)
			}
			return nil, err
		}
		task.AssigneeID = *patch.AssigneeID
	}

	task.UpdatedAt = time.Now()
	if err = txStore.UpdateTask(task); err != nil {
		return nil, err
	}
	if assigneeChanged {
		if _, err = txStore.SaveAssignment(models.Assignment{TaskID: taskID, UserID: task.AssigneeID, AssignedAt: task.UpdatedAt}); err != nil {
			return nil, err
		}
	}
	ts.logger.Infof("Updated task %d", taskID)
	return &task, nil
}

// canTransitionStatus reports whether every task this task depends on has
// status exactly "Completed". No dependencies means always allowed.
func (ts *TaskService) canTransitionStatus(tx storage.Store, taskID int64) (bool, error) {
	deps, err := tx.ListDependenciesOf(taskID)
	if err != nil {
		return false, err
	}
	for _, dep := range deps {
		prereq, err := tx.GetTask(dep.DependsOn)
		if err != nil {
			return false, errors.Wrapf(err, "failed to retrieve dependency task %d", dep.DependsOn)
		}
		if prereq.Status != models.StatusCompleted {
			ts.logger.Infof("Task %d cannot change status: dependency %d is '%s'", taskID, prereq.ID, prereq.Status)
			return false, nil
		}
	}
	return true, nil
}

// DeleteTask removes a task, its assignment history included. A task that
// is a workflow member with any dependency edge left, in either direction,
// cannot be deleted.
func (ts *TaskService) DeleteTask(taskID int64) (err error) {
	txStore, err := ts.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			ts.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	task, err := txStore.GetTask(taskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", taskID)
		}
		return err
	}
	if task.WorkflowID != nil {
		dependsOn, err := txStore.ListDependenciesOf(taskID)
		if err != nil {
			return err
		}
		dependents, err := txStore.ListDependentsOn(taskID)
		if err != nil {
			return err
		}
		if len(dependsOn) > 0 || len(dependents) > 0 {
			return conflictf("task %d has dependencies", taskID)
		}
		task.WorkflowID = nil
		if err = txStore.UpdateTask(task); err != nil {
			return err
		}
	}
	if err = txStore.DeleteTaskAssignments(taskID); err != nil {
		return err
	}
	if err = txStore.DeleteTask(taskID); err != nil {
		return err
	}
	ts.logger.Infof("Deleted task %d", taskID)
	return nil
}

// AssignUser sets the task's current assignee and appends a history row.
// It always appends, a re-assignment to the same user included;
// authorization is the caller's responsibility.
func (ts *TaskService) AssignUser(taskID, userID int64) (err error) {
	txStore, err := ts.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			ts.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	task, err := txStore.GetTask(taskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", taskID)
		}
		return err
	}
	if _, err = txStore.GetUser(userID); err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("user %d", userID)
		}
		return err
	}
	now := time.Now()
	task.AssigneeID = userID
	task.UpdatedAt = now
	if err = txStore.UpdateTask(task); err != nil {
		return err
	}
	if _, err = txStore.SaveAssignment(models.Assignment{TaskID: taskID, UserID: userID, AssignedAt: now}); err != nil {
		return err
	}
	ts.logger.Infof("Assigned task %d to user %d", taskID, userID)
	return nil
}

// ListAssignments returns the task's assignment history, oldest first.
func (ts *TaskService) ListAssignments(taskID int64) ([]models.Assignment, error) {
	if _, err := ts.store.GetTask(taskID); err != nil {
		if err == storage.ErrNotFound {
			return nil, notFoundf("task %d", taskID)
		}
		return nil, err
	}
	return ts.store.ListTaskAssignments(taskID)
}
