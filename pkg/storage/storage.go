package storage

import (
	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (e.g. user email).
var ErrDuplicate = errors.New("duplicate")

// ErrTxConflict is returned when a transaction cannot commit because of a
// concurrent modification. It is retryable; retry policy belongs to the
// caller.
var ErrTxConflict = errors.New("transaction conflict")

// Store defines the storage operations for the task-management engine.
// Begin returns a transactional view of the same store; every read and
// write of one engine operation goes through a single such view so the
// whole operation commits or rolls back as a unit.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// User operations
	SaveUser(u models.User) (int64, error)
	GetUser(id int64) (models.User, error)
	GetUserByEmail(email string) (models.User, error)

	// Workflow operations
	SaveWorkflow(w models.Workflow) (int64, error)
	GetWorkflow(id int64) (models.Workflow, error)
	ListWorkflows() ([]models.Workflow, error)
	UpdateWorkflow(w models.Workflow) error
	DeleteWorkflow(id int64) error

	// Task operations
	SaveTask(t models.Task) (int64, error)
	GetTask(id int64) (models.Task, error)
	ListWorkflowTasks(workflowID int64) ([]models.Task, error)
	UpdateTask(t models.Task) error
	DeleteTask(id int64) error

	// Dependency operations
	SaveDependency(d models.Dependency) (int64, error)
	// HasDependency reports whether the edge "taskID depends on dependsOn"
	// exists.
	HasDependency(taskID, dependsOn int64) (bool, error)
	// ListDependenciesOf returns the edges where taskID is the depending
	// side (taskID depends on ...).
	ListDependenciesOf(taskID int64) ([]models.Dependency, error)
	// ListDependentsOn returns the edges where taskID is the prerequisite
	// (... depend on taskID).
	ListDependentsOn(taskID int64) ([]models.Dependency, error)
	// ListWorkflowDependencies returns every edge whose endpoints are
	// members of the workflow.
	ListWorkflowDependencies(workflowID int64) ([]models.Dependency, error)
	// DeleteDependenciesTouching removes every edge with taskID as either
	// endpoint.
	DeleteDependenciesTouching(taskID int64) error
	// RewriteDependencyEndpoints replaces oldTaskID with newTaskID on
	// every edge referencing it, on either side.
	RewriteDependencyEndpoints(oldTaskID, newTaskID int64) error

	// Assignment operations
	SaveAssignment(a models.Assignment) (int64, error)
	ListTaskAssignments(taskID int64) ([]models.Assignment, error)
	DeleteTaskAssignments(taskID int64) error
}
