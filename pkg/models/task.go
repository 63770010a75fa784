package models

import "time"

// StatusCompleted is the privileged status literal: a task may only change
// status once every task it depends on carries exactly this value.
const StatusCompleted = "Completed"

// Task represents a unit of work, optionally grouped into a workflow.
type Task struct {
	ID          int64      `json:"id" db:"id"`                             // Unique identifier (PostgreSQL auto-increment)
	Title       string     `json:"title" db:"title"`                       // Short summary (e.g., "Ship release notes")
	Description string     `json:"description" db:"description"`           // Longer free-form description
	Status      string     `json:"status" db:"status"`                     // Free-form; "Completed" is semantically special
	AssigneeID  int64      `json:"assignee_id" db:"assignee_id"`           // Current assignee (history lives in Assignment)
	WorkflowID  *int64     `json:"workflow_id,omitempty" db:"workflow_id"` // At most one workflow; nil when unattached
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`       // Nullable deadline
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`             // Creation timestamp
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`             // Last update timestamp
}

// InWorkflow reports whether the task is a member of the given workflow.
func (t Task) InWorkflow(workflowID int64) bool {
	return t.WorkflowID != nil && *t.WorkflowID == workflowID
}
