package storage

import (
	"database/sql"
	"fmt"

	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return mapError(tx.Commit())
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// mapError translates driver errors into the storage sentinels: missing
// rows, uniqueness violations and serialization/deadlock failures (the
// latter are retryable for the caller).
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return storage.ErrDuplicate
		case "40001", "40P01":
			return storage.ErrTxConflict
		}
	}
	return err
}

func (s *PostgresStore) SaveUser(u models.User) (int64, error) {
	var id int64
	err := s.db.QueryRowx("INSERT INTO users (username, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id",
		u.Username, u.Email, u.PasswordHash, u.Role).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (s *PostgresStore) GetUser(id int64) (models.User, error) {
	var u models.User
	err := s.db.Get(&u, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(email string) (models.User, error) {
	var u models.User
	err := s.db.Get(&u, "SELECT * FROM users WHERE email = $1", email)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return u, nil
}

// SaveWorkflow creates a new workflow and returns its ID
func (s *PostgresStore) SaveWorkflow(w models.Workflow) (int64, error) {
	var id int64
	err := s.db.QueryRowx("INSERT INTO workflows (name, description, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id",
		w.Name, w.Description, w.CreatedAt, w.UpdatedAt).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// GetWorkflow retrieves the bare workflow row; member tasks and edges are
// loaded by the service when needed.
func (s *PostgresStore) GetWorkflow(id int64) (models.Workflow, error) {
	var wf models.Workflow
	err := s.db.Get(&wf, "SELECT * FROM workflows WHERE id = $1", id)
	if err != nil {
		return models.Workflow{}, mapError(err)
	}
	return wf, nil
}

func (s *PostgresStore) ListWorkflows() ([]models.Workflow, error) {
	workflows := []models.Workflow{}
	err := s.db.Select(&workflows, "SELECT * FROM workflows ORDER BY created_at DESC")
	if err != nil {
		return nil, mapError(err)
	}
	return workflows, nil
}

func (s *PostgresStore) UpdateWorkflow(w models.Workflow) error {
	res, err := s.db.Exec("UPDATE workflows SET name = $1, description = $2, updated_at = $3 WHERE id = $4",
		w.Name, w.Description, w.UpdatedAt, w.ID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeleteWorkflow(id int64) error {
	res, err := s.db.Exec("DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) SaveTask(t models.Task) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO tasks (title, description, status, assignee_id, workflow_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		t.Title, t.Description, t.Status, t.AssigneeID, t.WorkflowID, t.DueDate, t.CreatedAt, t.UpdatedAt).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (s *PostgresStore) GetTask(id int64) (models.Task, error) {
	var task models.Task
	err := s.db.Get(&task, "SELECT * FROM tasks WHERE id = $1", id)
	if err != nil {
		return models.Task{}, mapError(err)
	}
	return task, nil
}

func (s *PostgresStore) ListWorkflowTasks(workflowID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.Select(&tasks, "SELECT * FROM tasks WHERE workflow_id = $1 ORDER BY id", workflowID)
	if err != nil {
		return nil, mapError(err)
	}
	return tasks, nil
}

func (s *PostgresStore) UpdateTask(t models.Task) error {
	res, err := s.db.Exec(`
		UPDATE tasks
		SET title = $1, description = $2, status = $3, assignee_id = $4, workflow_id = $5, due_date = $6, updated_at = $7
		WHERE id = $8`,
		t.Title, t.Description, t.Status, t.AssigneeID, t.WorkflowID, t.DueDate, t.UpdatedAt, t.ID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeleteTask(id int64) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) SaveDependency(d models.Dependency) (int64, error) {
	var id int64
	err := s.db.QueryRowx("INSERT INTO task_dependencies (task_id, depends_on) VALUES ($1, $2) RETURNING id",
		d.TaskID, d.DependsOn).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (s *PostgresStore) HasDependency(taskID, dependsOn int64) (bool, error) {
	var exists bool
	err := s.db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM task_dependencies WHERE task_id = $1 AND depends_on = $2)",
		taskID, dependsOn)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (s *PostgresStore) ListDependenciesOf(taskID int64) ([]models.Dependency, error) {
	var deps []models.Dependency
	err := s.db.Select(&deps, "SELECT * FROM task_dependencies WHERE task_id = $1 ORDER BY id", taskID)
	if err != nil {
		return nil, mapError(err)
	}
	return deps, nil
}

func (s *PostgresStore) ListDependentsOn(taskID int64) ([]models.Dependency, error) {
	var deps []models.Dependency
	err := s.db.Select(&deps, "SELECT * FROM task_dependencies WHERE depends_on = $1 ORDER BY id", taskID)
	if err != nil {
		return nil, mapError(err)
	}
	return deps, nil
}

func (s *PostgresStore) ListWorkflowDependencies(workflowID int64) ([]models.Dependency, error) {
	var deps []models.Dependency
	err := s.db.Select(&deps, `
		SELECT d.id, d.task_id, d.depends_on
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.workflow_id = $1
		ORDER BY d.id`, workflowID)
	if err != nil {
		return nil, mapError(err)
	}
	return deps, nil
}

func (s *PostgresStore) DeleteDependenciesTouching(taskID int64) error {
	_, err := s.db.Exec("DELETE FROM task_dependencies WHERE task_id = $1 OR depends_on = $1", taskID)
	return mapError(err)
}

func (s *PostgresStore) RewriteDependencyEndpoints(oldTaskID, newTaskID int64) error {
	_, err := s.db.Exec(`
		UPDATE task_dependencies
		SET task_id    = CASE WHEN task_id = $1 THEN $2 ELSE task_id END,
		    depends_on = CASE WHEN depends_on = $1 THEN $2 ELSE depends_on END
		WHERE task_id = $1 OR depends_on = $1`,
		oldTaskID, newTaskID)
	return mapError(err)
}

func (s *PostgresStore) SaveAssignment(a models.Assignment) (int64, error) {
	var id int64
	err := s.db.QueryRowx("INSERT INTO task_assignments (task_id, user_id, assigned_at) VALUES ($1, $2, $3) RETURNING id",
		a.TaskID, a.UserID, a.AssignedAt).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (s *PostgresStore) ListTaskAssignments(taskID int64) ([]models.Assignment, error) {
	var history []models.Assignment
	err := s.db.Select(&history, "SELECT * FROM task_assignments WHERE task_id = $1 ORDER BY id", taskID)
	if err != nil {
		return nil, mapError(err)
	}
	return history, nil
}

func (s *PostgresStore) DeleteTaskAssignments(taskID int64) error {
	_, err := s.db.Exec("DELETE FROM task_assignments WHERE task_id = $1", taskID)
	return mapError(err)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
