package models

import "time"

// Assignment is one entry of a task's append-only assignment history.
// A row is written on task creation and on every (re)assignment; rows are
// never updated, and only deleted together with their task.
type Assignment struct {
	ID         int64     `json:"id" db:"id"`                   // Auto-incremented history ID
	TaskID     int64     `json:"task_id" db:"task_id"`         // Task being assigned
	UserID     int64     `json:"user_id" db:"user_id"`         // User it was assigned to
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"` // Timestamp of the assignment event
}
