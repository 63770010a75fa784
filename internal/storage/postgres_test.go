package storage_test

import (
	"testing"
	"time"

	internal_storage "github.com/Rajatchopra3/Task-Management-System/internal/storage"
	"github.com/Rajatchopra3/Task-Management-System/internal/testutil"
	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	// Helper to create a transactional store; each subtest works in its own
	// transaction and rolls it back on cleanup.
	newTxStore := func(t *testing.T) storage.Store {
		store, err := internal_storage.NewPostgresStore(testDB.ConnStr)
		assert.NoError(t, err)
		txStore, err := store.Begin()
		assert.NoError(t, err)
		t.Cleanup(func() {
			txStore.Rollback()
			store.Close()
		})
		return txStore
	}

	seedUser := func(t *testing.T, store storage.Store, email string) int64 {
		id, err := store.SaveUser(models.User{
			Username:     "ana",
			Email:        email,
			PasswordHash: "hash",
			Role:         models.UserRole,
		})
		assert.NoError(t, err)
		return id
	}

	seedWorkflow := func(t *testing.T, store storage.Store, name string) int64 {
		now := time.Now()
		id, err := store.SaveWorkflow(models.Workflow{Name: name, CreatedAt: now, UpdatedAt: now})
		assert.NoError(t, err)
		return id
	}

	seedTask := func(t *testing.T, store storage.Store, title string, assigneeID int64, workflowID *int64) int64 {
		now := time.Now()
		id, err := store.SaveTask(models.Task{
			Title:       title,
			Description: "desc",
			Status:      "Open",
			AssigneeID:  assigneeID,
			WorkflowID:  workflowID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		assert.NoError(t, err)
		return id
	}

	t.Run("SaveAndGetUser", func(t *testing.T) {
		store := newTxStore(t)
		id := seedUser(t, store, "ana@example.com")

		u, err := store.GetUser(id)
		assert.NoError(t, err)
		assert.Equal(t, "ana", u.Username)
		assert.Equal(t, models.UserRole, u.Role)

		byEmail, err := store.GetUserByEmail("ana@example.com")
		assert.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)

		_, err = store.GetUser(id + 1)
		assert.Equal(t, storage.ErrNotFound, err)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		store := newTxStore(t)
		seedUser(t, store, "ana@example.com")
		_, err := store.SaveUser(models.User{Username: "other", Email: "ana@example.com", PasswordHash: "hash", Role: models.UserRole})
		assert.Equal(t, storage.ErrDuplicate, err)
	})

	t.Run("SaveAndGetWorkflow", func(t *testing.T) {
		store := newTxStore(t)
		id := seedWorkflow(t, store, "release")

		wf, err := store.GetWorkflow(id)
		assert.NoError(t, err)
		assert.Equal(t, "release", wf.Name)

		wf.Description = "updated"
		wf.UpdatedAt = time.Now()
		assert.NoError(t, store.UpdateWorkflow(wf))

		wf, err = store.GetWorkflow(id)
		assert.NoError(t, err)
		assert.Equal(t, "updated", wf.Description)

		list, err := store.ListWorkflows()
		assert.NoError(t, err)
		assert.Len(t, list, 1)

		assert.NoError(t, store.DeleteWorkflow(id))
		_, err = store.GetWorkflow(id)
		assert.Equal(t, storage.ErrNotFound, err)
	})

	t.Run("SaveAndUpdateTask", func(t *testing.T) {
		store := newTxStore(t)
		userID := seedUser(t, store, "ana@example.com")
		wfID := seedWorkflow(t, store, "release")
		taskID := seedTask(t, store, "write docs", userID, &wfID)

		task, err := store.GetTask(taskID)
		assert.NoError(t, err)
		assert.Equal(t, "write docs", task.Title)
		assert.NotNil(t, task.WorkflowID)
		assert.Equal(t, wfID, *task.WorkflowID)

		task.Status = "In Review"
		task.WorkflowID = nil
		task.UpdatedAt = time.Now()
		assert.NoError(t, store.UpdateTask(task))

		task, err = store.GetTask(taskID)
		assert.NoError(t, err)
		assert.Equal(t, "In Review", task.Status)
		assert.Nil(t, task.WorkflowID)

		members, err := store.ListWorkflowTasks(wfID)
		assert.NoError(t, err)
		assert.Empty(t, members)

		assert.NoError(t, store.DeleteTask(taskID))
		_, err = store.GetTask(taskID)
		assert.Equal(t, storage.ErrNotFound, err)
	})

	t.Run("Dependencies", func(t *testing.T) {
		store := newTxStore(t)
		userID := seedUser(t, store, "ana@example.com")
		wfID := seedWorkflow(t, store, "release")
		a := seedTask(t, store, "a", userID, &wfID)
		b := seedTask(t, store, "b", userID, &wfID)
		c := seedTask(t, store, "c", userID, &wfID)

		_, err := store.SaveDependency(models.Dependency{TaskID: a, DependsOn: b})
		assert.NoError(t, err)
		_, err = store.SaveDependency(models.Dependency{TaskID: b, DependsOn: c})
		assert.NoError(t, err)

		exists, err := store.HasDependency(a, b)
		assert.NoError(t, err)
		assert.True(t, exists)
		exists, err = store.HasDependency(b, a)
		assert.NoError(t, err)
		assert.False(t, exists)

		of, err := store.ListDependenciesOf(a)
		assert.NoError(t, err)
		assert.Len(t, of, 1)
		assert.Equal(t, b, of[0].DependsOn)

		on, err := store.ListDependentsOn(c)
		assert.NoError(t, err)
		assert.Len(t, on, 1)
		assert.Equal(t, b, on[0].TaskID)

		all, err := store.ListWorkflowDependencies(wfID)
		assert.NoError(t, err)
		assert.Len(t, all, 2)
	})

	// A unique violation aborts the surrounding transaction, so the
	// duplicate insert gets a transaction of its own.
	t.Run("DuplicateDependency", func(t *testing.T) {
		store := newTxStore(t)
		userID := seedUser(t, store, "ana@example.com")
		wfID := seedWorkflow(t, store, "release")
		a := seedTask(t, store, "a", userID, &wfID)
		b := seedTask(t, store, "b", userID, &wfID)

		_, err := store.SaveDependency(models.Dependency{TaskID: a, DependsOn: b})
		assert.NoError(t, err)
		_, err = store.SaveDependency(models.Dependency{TaskID: a, DependsOn: b})
		assert.Equal(t, storage.ErrDuplicate, err)
	})

	t.Run("RewriteDependencyEndpoints", func(t *testing.T) {
		store := newTxStore(t)
		userID := seedUser(t, store, "ana@example.com")
		wfID := seedWorkflow(t, store, "release")
		a := seedTask(t, store, "a", userID, &wfID)
		b := seedTask(t, store, "b", userID, &wfID)
		c := seedTask(t, store, "c", userID, &wfID)
		replacement := seedTask(t, store, "replacement", userID, &wfID)

		_, err := store.SaveDependency(models.Dependency{TaskID: a, DependsOn: b})
		assert.NoError(t, err)
		_, err = store.SaveDependency(models.Dependency{TaskID: b, DependsOn: c})
		assert.NoError(t, err)

		assert.NoError(t, store.RewriteDependencyEndpoints(b, replacement))

		of, err := store.ListDependenciesOf(a)
		assert.NoError(t, err)
		assert.Len(t, of, 1)
		assert.Equal(t, replacement, of[0].DependsOn)

		of, err = store.ListDependenciesOf(replacement)
		assert.NoError(t, err)
		assert.Len(t, of, 1)
		assert.Equal(t, c, of[0].DependsOn)

		orphaned, err := store.ListDependentsOn(b)
		assert.NoError(t, err)
		assert.Empty(t, orphaned)
	})

	t.Run("DeleteDependenciesTouching", func(t *testing.T) {
		store := newTxStore(t)
		userID := seedUser(t, store, "ana@example.com")
		wfID := seedWorkflow(t, store, "release")
		a := seedTask(t, store, "a", userID, &wfID)
		b := seedTask(t, store, "b", userID, &wfID)
		c := seedTask(t, store, "c", userID, &wfID)

		_, err := store.SaveDependency(models.Dependency{TaskID: a, DependsOn: b})
		assert.NoError(t, err)
		_, err = store.SaveDependency(models.Dependency{TaskID: b, DependsOn: c})
		assert.NoError(t, err)

		assert.NoError(t, store.DeleteDependenciesTouching(b))

		all, err := store.ListWorkflowDependencies(wfID)
		assert.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Assignments", func(t *testing.T) {
		store := newTxStore(t)
		userID := seedUser(t, store, "ana@example.com")
		taskID := seedTask(t, store, "a", userID, nil)

		_, err := store.SaveAssignment(models.Assignment{TaskID: taskID, UserID: userID, AssignedAt: time.Now()})
		assert.NoError(t, err)
		_, err = store.SaveAssignment(models.Assignment{TaskID: taskID, UserID: userID, AssignedAt: time.Now()})
		assert.NoError(t, err)

		history, err := store.ListTaskAssignments(taskID)
		assert.NoError(t, err)
		assert.Len(t, history, 2)
		assert.Equal(t, userID, history[0].UserID)

		assert.NoError(t, store.DeleteTaskAssignments(taskID))
		history, err = store.ListTaskAssignments(taskID)
		assert.NoError(t, err)
		assert.Empty(t, history)
	})
}
