package service

import (
	"time"

	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for the services.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// WorkflowService manages workflows, their task membership and the
// dependency edges between member tasks. Every mutating operation runs as
// one transaction against the store: precondition reads and the writes
// they gate commit or roll back together.
type WorkflowService struct {
	store  storage.Store
	logger Logger
}

func NewWorkflowService(store storage.Store, logger Logger) *WorkflowService {
	return &WorkflowService{store: store, logger: logger}
}

func (s *WorkflowService) CreateWorkflow(name, description string) (id int64, err error) {
	if name == "" {
		return 0, errors.New("workflow name cannot be empty")
	}
	if len(name) > 100 {
		return 0, errors.New("workflow name too long (max 100 characters)")
	}
	txStore, err := s.store.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	now := time.Now()
	wf := models.Workflow{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err = txStore.SaveWorkflow(wf)
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Created workflow '%s' with ID %d", name, id)
	return id, nil
}

// GetWorkflow fetches a workflow together with its member tasks and the
// dependency edges between them.
func (s *WorkflowService) GetWorkflow(workflowID int64) (models.Workflow, error) {
	wf, err := s.store.GetWorkflow(workflowID)
	if err == storage.ErrNotFound {
		return models.Workflow{}, notFoundf("workflow %d", workflowID)
	}
	if err != nil {
		return models.Workflow{}, err
	}
	if wf.Tasks, err = s.store.ListWorkflowTasks(workflowID); err != nil {
		return models.Workflow{}, errors.Wrapf(err, "failed to load tasks of workflow %d", workflowID)
	}
	if wf.Dependencies, err = s.store.ListWorkflowDependencies(workflowID); err != nil {
		return models.Workflow{}, errors.Wrapf(err, "failed to load dependencies of workflow %d", workflowID)
	}
	return wf, nil
}

func (s *WorkflowService) ListWorkflows() ([]models.Workflow, error) {
	return s.store.ListWorkflows()
}

// AddTaskToWorkflow makes taskID a member of workflowID. Adding a task that
// is already a member is idempotent; a task attached to a different
// workflow is a conflict. When dependsOn names an existing member, the
// member is recorded as depending on the task just added, so the new task
// has to complete first.
func (s *WorkflowService) AddTaskToWorkflow(workflowID, taskID int64, dependsOn *int64) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if err = s.addTaskTx(txStore, workflowID, taskID, dependsOn); err != nil {
		return err
	}
	s.logger.Infof("Added task %d to workflow %d", taskID, workflowID)
	return nil
}

// addTaskTx is AddTaskToWorkflow inside an already running transaction, so
// composite operations can reuse it.
func (s *WorkflowService) addTaskTx(tx storage.Store, workflowID, taskID int64, dependsOn *int64) error {
	if _, err := tx.GetWorkflow(workflowID); err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("workflow %d", workflowID)
		}
		return err
	}
	task, err := tx.GetTask(taskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", taskID)
		}
		return err
	}
	if task.WorkflowID != nil && *task.WorkflowID != workflowID {
		return conflictf("task %d is already in another workflow (%d)", taskID, *task.WorkflowID)
	}

	if !task.InWorkflow(workflowID) {
		task.WorkflowID = &workflowID
		task.UpdatedAt = time.Now()
		if err := tx.UpdateTask(task); err != nil {
			return err
		}
	}

	if dependsOn == nil {
		return nil
	}
	member, err := tx.GetTask(*dependsOn)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", *dependsOn)
		}
		return err
	}
	if !member.InWorkflow(workflowID) {
		return conflictf("task %d is not a member of workflow %d", *dependsOn, workflowID)
	}
	// The existing member ends up depending on the newly added task.
	return insertDependency(tx, member.ID, taskID)
}

// AddDependency records that taskID depends on dependsOnID. Both tasks must
// be members of the same workflow and the edge must pass the cycle check.
func (s *WorkflowService) AddDependency(taskID, dependsOnID int64) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
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
	prereq, err := txStore.GetTask(dependsOnID)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", dependsOnID)
		}
		return err
	}
	if task.WorkflowID == nil || prereq.WorkflowID == nil || *task.WorkflowID != *prereq.WorkflowID {
		return conflictf("tasks %d and %d are not members of the same workflow", taskID, dependsOnID)
	}
	if err = insertDependency(txStore, taskID, dependsOnID); err != nil {
		return err
	}
	s.logger.Infof("Task %d now depends on task %d", taskID, dependsOnID)
	return nil
}

// ReplaceTaskInWorkflow swaps oldTaskID for newTaskID: every dependency
// edge referencing the old task is rewritten to the new one, the new task
// becomes a member if it was not already, and the old task is evicted.
func (s *WorkflowService) ReplaceTaskInWorkflow(workflowID, oldTaskID, newTaskID int64) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if _, err = txStore.GetWorkflow(workflowID); err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("workflow %d", workflowID)
		}
		return err
	}
	oldTask, err := txStore.GetTask(oldTaskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", oldTaskID)
		}
		return err
	}
	newTask, err := txStore.GetTask(newTaskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", newTaskID)
		}
		return err
	}
	if !oldTask.InWorkflow(workflowID) {
		return conflictf("task %d is not a member of workflow %d", oldTaskID, workflowID)
	}
	if newTask.WorkflowID != nil && *newTask.WorkflowID != workflowID {
		return conflictf("task %d is already in another workflow (%d)", newTaskID, *newTask.WorkflowID)
	}

	if !newTask.InWorkflow(workflowID) {
		if err = s.addTaskTx(txStore, workflowID, newTaskID, nil); err != nil {
			return err
		}
	}
	if err = txStore.RewriteDependencyEndpoints(oldTaskID, newTaskID); err != nil {
		return err
	}
	oldTask.WorkflowID = nil
	oldTask.UpdatedAt = time.Now()
	if err = txStore.UpdateTask(oldTask); err != nil {
		return err
	}
	s.logger.Infof("Replaced task %d with task %d in workflow %d", oldTaskID, newTaskID, workflowID)
	return nil
}

// DeleteWorkflow removes the workflow: every member task loses its
// membership and its dependency edges, then the workflow row is deleted.
func (s *WorkflowService) DeleteWorkflow(workflowID int64) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if _, err = txStore.GetWorkflow(workflowID); err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("workflow %d", workflowID)
		}
		return err
	}
	tasks, err := txStore.ListWorkflowTasks(workflowID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err = cascadeRemoveDependencies(txStore, task.ID); err != nil {
			return err
		}
		task.WorkflowID = nil
		task.UpdatedAt = time.Now()
		if err = txStore.UpdateTask(task); err != nil {
			return err
		}
	}
	if err = txStore.DeleteWorkflow(workflowID); err != nil {
		return err
	}
	s.logger.Infof("Deleted workflow %d and evicted %d tasks", workflowID, len(tasks))
	return nil
}

// DeleteTaskFromWorkflow evicts taskID from the workflow and removes every
// edge touching it. Tasks that depended on taskID and are left without any
// other dependency are evicted as well; the cascade stops there, it is not
// transitive.
func (s *WorkflowService) DeleteTaskFromWorkflow(workflowID, taskID int64) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
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
	if !task.InWorkflow(workflowID) {
		return conflictf("task %d is not a member of workflow %d", taskID, workflowID)
	}

	dependents, err := txStore.ListDependentsOn(taskID)
	if err != nil {
		return err
	}
	for _, edge := range dependents {
		remaining, err := txStore.ListDependenciesOf(edge.TaskID)
		if err != nil {
			return err
		}
		outstanding := 0
		for _, other := range remaining {
			if other.DependsOn != taskID {
				outstanding++
			}
		}
		if outstanding > 0 {
			continue
		}
		dependent, err := txStore.GetTask(edge.TaskID)
		if err != nil {
			return err
		}
		dependent.WorkflowID = nil
		dependent.UpdatedAt = time.Now()
		if err = txStore.UpdateTask(dependent); err != nil {
			return err
		}
	}

	if err = cascadeRemoveDependencies(txStore, taskID); err != nil {
		return err
	}
	task.WorkflowID = nil
	task.UpdatedAt = time.Now()
	if err = txStore.UpdateTask(task); err != nil {
		return err
	}
	s.logger.Infof("Removed task %d from workflow %d", taskID, workflowID)
	return nil
}

// ReassignDependencyChain rebuilds the workflow's dependency chain around
// an anchor task. Tasks in newOrder that are not yet members are added;
// every edge touching the anchor is dropped; a linear chain is re-created
// across newOrder (each task depends on the next); members absent from
// newOrder are evicted. Edges owned by evicted non-anchor tasks are left
// in place — only the anchor's edges are purged here.
func (s *WorkflowService) ReassignDependencyChain(workflowID, anchorTaskID int64, newOrder []int64) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if _, err = txStore.GetWorkflow(workflowID); err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("workflow %d", workflowID)
		}
		return err
	}
	anchor, err := txStore.GetTask(anchorTaskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return notFoundf("task %d", anchorTaskID)
		}
		return err
	}
	if !anchor.InWorkflow(workflowID) {
		return notFoundf("anchor task %d is not in workflow %d", anchorTaskID, workflowID)
	}

	for _, id := range newOrder {
		task, err := txStore.GetTask(id)
		if err != nil {
			if err == storage.ErrNotFound {
				return notFoundf("task %d", id)
			}
			return err
		}
		if !task.InWorkflow(workflowID) {
			if err = s.addTaskTx(txStore, workflowID, id, nil); err != nil {
				return err
			}
		}
	}

	if err = cascadeRemoveDependencies(txStore, anchorTaskID); err != nil {
		return err
	}
	for i := 0; i+1 < len(newOrder); i++ {
		if err = insertDependency(txStore, newOrder[i], newOrder[i+1]); err != nil {
			return err
		}
	}

	keep := make(map[int64]struct{}, len(newOrder))
	for _, id := range newOrder {
		keep[id] = struct{}{}
	}
	members, err := txStore.ListWorkflowTasks(workflowID)
	if err != nil {
		return err
	}
	for _, member := range members {
		if _, ok := keep[member.ID]; ok {
			continue
		}
		member.WorkflowID = nil
		member.UpdatedAt = time.Now()
		if err = txStore.UpdateTask(member); err != nil {
			return err
		}
	}
	s.logger.Infof("Reassigned dependency chain of workflow %d around task %d (%d tasks)", workflowID, anchorTaskID, len(newOrder))
	return nil
}
