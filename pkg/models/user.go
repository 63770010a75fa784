package models

type Role string

const (
	AdminRole Role = "ADMIN"
	UserRole  Role = "USER"
)

// User is an account that tasks are assigned to. Mutation beyond
// registration and lookup happens outside this module.
type User struct {
	ID           int64  `json:"id" db:"id"`                // Unique identifier (PostgreSQL auto-increment)
	Username     string `json:"username" db:"username"`    // Display name
	Email        string `json:"email" db:"email"`          // Unique
	PasswordHash string `json:"-" db:"password_hash"`      // bcrypt hash; never serialized
	Role         Role   `json:"role" db:"role"`            // "ADMIN" or "USER"
}
