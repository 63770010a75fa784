package service

import (
	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
)

// hasCycle reports whether inserting the edge "taskID depends on dependsOn"
// would close a cycle. The policy is a one-hop check: the edge is rejected
// only when the direct reverse edge (dependsOn depends on taskID) already
// exists. Longer cycles (A->B->C->A) are not caught; the behavior is pinned
// by tests and must not be upgraded to full reachability without changing
// them.
func hasCycle(tx storage.Store, taskID, dependsOn int64) (bool, error) {
	return tx.HasDependency(dependsOn, taskID)
}

// insertDependency records the edge "taskID depends on dependsOn" after the
// cycle check. Same-workflow and existence checks are the caller's job.
func insertDependency(tx storage.Store, taskID, dependsOn int64) error {
	cyclic, err := hasCycle(tx, taskID, dependsOn)
	if err != nil {
		return err
	}
	if cyclic {
		return conflictf("cyclic dependency between tasks %d and %d", taskID, dependsOn)
	}
	_, err = tx.SaveDependency(models.Dependency{TaskID: taskID, DependsOn: dependsOn})
	if err == storage.ErrDuplicate {
		// The edge is already there; re-chaining may revisit it.
		return nil
	}
	return err
}

// cascadeRemoveDependencies removes every edge with taskID as either
// endpoint. Used when a task leaves a workflow or the workflow is deleted.
func cascadeRemoveDependencies(tx storage.Store, taskID int64) error {
	return tx.DeleteDependenciesTouching(taskID)
}
