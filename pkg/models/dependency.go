package models

// Dependency is a directed edge between two tasks of the same workflow:
// TaskID depends on DependsOn, i.e. DependsOn must complete first.
type Dependency struct {
	ID        int64 `json:"id" db:"id"`                 // Auto-incremented edge ID
	TaskID    int64 `json:"task_id" db:"task_id"`       // Task that depends on another
	DependsOn int64 `json:"depends_on" db:"depends_on"` // Prerequisite task
}
