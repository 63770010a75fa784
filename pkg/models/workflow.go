package models

import "time"

// Workflow represents a named container of tasks with ordering dependencies.
// Membership is a back-reference: a task belongs to the workflow its
// WorkflowID points at, never to more than one at a time.
type Workflow struct {
	ID           int64        `json:"id" db:"id"`                     // Unique identifier (PostgreSQL auto-increment)
	Name         string       `json:"name" db:"name"`                 // Descriptive name (e.g., "Q3 Launch")
	Description  string       `json:"description" db:"description"`   // Free-form description
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`     // Creation timestamp
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`     // Last update timestamp
	Tasks        []Task       `json:"tasks,omitempty" db:"-"`         // Member tasks (populated on read)
	Dependencies []Dependency `json:"dependencies,omitempty" db:"-"`  // Edges between member tasks (populated on read)
}
