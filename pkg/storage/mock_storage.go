package storage

import (
	"sort"

	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/pkg/errors"
)

// mockData is one version of the store's state. Transactions work on a
// clone and publish it back on commit, so a rolled-back operation leaves
// no partial effect behind.
type mockData struct {
	users       map[int64]models.User
	workflows   map[int64]models.Workflow
	tasks       map[int64]models.Task
	deps        map[int64]models.Dependency
	assignments map[int64]models.Assignment
	nextID      int64
}

func newMockData() *mockData {
	return &mockData{
		users:       make(map[int64]models.User),
		workflows:   make(map[int64]models.Workflow),
		tasks:       make(map[int64]models.Task),
		deps:        make(map[int64]models.Dependency),
		assignments: make(map[int64]models.Assignment),
	}
}

func (d *mockData) clone() *mockData {
	c := newMockData()
	c.nextID = d.nextID
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.workflows {
		c.workflows[k] = v
	}
	for k, v := range d.tasks {
		if v.WorkflowID != nil {
			wid := *v.WorkflowID
			v.WorkflowID = &wid
		}
		if v.DueDate != nil {
			due := *v.DueDate
			v.DueDate = &due
		}
		c.tasks[k] = v
	}
	for k, v := range d.deps {
		c.deps[k] = v
	}
	for k, v := range d.assignments {
		c.assignments[k] = v
	}
	return c
}

// mockStore implements Store with in-memory storage
type mockStore struct {
	data *mockData // committed state, shared with the root store
	tx   *mockData // transaction copy; nil on the root store
	done bool      // transaction already committed or rolled back
}

// NewMockStore returns an empty in-memory Store for tests and examples.
func NewMockStore() Store {
	return &mockStore{data: newMockData()}
}

func (m *mockStore) Begin() (Store, error) {
	return &mockStore{data: m.data, tx: m.data.clone()}, nil
}

func (m *mockStore) Commit() error {
	if m.tx == nil {
		return errors.New("not in a transaction")
	}
	if m.done {
		return errors.New("already committed")
	}
	*m.data = *m.tx
	m.done = true
	return nil
}

func (m *mockStore) Rollback() error {
	if m.tx == nil {
		return errors.New("not in a transaction")
	}
	if m.done {
		return errors.New("cannot rollback committed transaction")
	}
	m.done = true
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

// view returns the state this handle reads and writes.
func (m *mockStore) view() *mockData {
	if m.tx != nil {
		return m.tx
	}
	return m.data
}

func (m *mockStore) SaveUser(u models.User) (int64, error) {
	d := m.view()
	for _, existing := range d.users {
		if existing.Email == u.Email {
			return 0, ErrDuplicate
		}
	}
	d.nextID++
	u.ID = d.nextID
	d.users[u.ID] = u
	return u.ID, nil
}

func (m *mockStore) GetUser(id int64) (models.User, error) {
	u, ok := m.view().users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *mockStore) GetUserByEmail(email string) (models.User, error) {
	for _, u := range m.view().users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *mockStore) SaveWorkflow(w models.Workflow) (int64, error) {
	d := m.view()
	d.nextID++
	w.ID = d.nextID
	d.workflows[w.ID] = w
	return w.ID, nil
}

func (m *mockStore) GetWorkflow(id int64) (models.Workflow, error) {
	w, ok := m.view().workflows[id]
	if !ok {
		return models.Workflow{}, ErrNotFound
	}
	return w, nil
}

func (m *mockStore) ListWorkflows() ([]models.Workflow, error) {
	d := m.view()
	workflows := make([]models.Workflow, 0, len(d.workflows))
	for _, w := range d.workflows {
		workflows = append(workflows, w)
	}
	sort.Slice(workflows, func(i, j int) bool { return workflows[i].ID < workflows[j].ID })
	return workflows, nil
}

func (m *mockStore) UpdateWorkflow(w models.Workflow) error {
	d := m.view()
	if _, ok := d.workflows[w.ID]; !ok {
		return ErrNotFound
	}
	d.workflows[w.ID] = w
	return nil
}

func (m *mockStore) DeleteWorkflow(id int64) error {
	d := m.view()
	if _, ok := d.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(d.workflows, id)
	return nil
}

func (m *mockStore) SaveTask(t models.Task) (int64, error) {
	d := m.view()
	d.nextID++
	t.ID = d.nextID
	d.tasks[t.ID] = t
	return t.ID, nil
}

func (m *mockStore) GetTask(id int64) (models.Task, error) {
	t, ok := m.view().tasks[id]
	if !ok {
		return models.Task{}, ErrNotFound
	}
	return t, nil
}

func (m *mockStore) ListWorkflowTasks(workflowID int64) ([]models.Task, error) {
	var tasks []models.Task
	for _, t := range m.view().tasks {
		if t.InWorkflow(workflowID) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (m *mockStore) UpdateTask(t models.Task) error {
	d := m.view()
	if _, ok := d.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	d.tasks[t.ID] = t
	return nil
}

func (m *mockStore) DeleteTask(id int64) error {
	d := m.view()
	if _, ok := d.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(d.tasks, id)
	return nil
}

func (m *mockStore) SaveDependency(dep models.Dependency) (int64, error) {
	d := m.view()
	for _, existing := range d.deps {
		if existing.TaskID == dep.TaskID && existing.DependsOn == dep.DependsOn {
			return 0, ErrDuplicate
		}
	}
	d.nextID++
	dep.ID = d.nextID
	d.deps[dep.ID] = dep
	return dep.ID, nil
}

func (m *mockStore) HasDependency(taskID, dependsOn int64) (bool, error) {
	for _, dep := range m.view().deps {
		if dep.TaskID == taskID && dep.DependsOn == dependsOn {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) ListDependenciesOf(taskID int64) ([]models.Dependency, error) {
	var deps []models.Dependency
	for _, dep := range m.view().deps {
		if dep.TaskID == taskID {
			deps = append(deps, dep)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	return deps, nil
}

func (m *mockStore) ListDependentsOn(taskID int64) ([]models.Dependency, error) {
	var deps []models.Dependency
	for _, dep := range m.view().deps {
		if dep.DependsOn == taskID {
			deps = append(deps, dep)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	return deps, nil
}

func (m *mockStore) ListWorkflowDependencies(workflowID int64) ([]models.Dependency, error) {
	d := m.view()
	var deps []models.Dependency
	for _, dep := range d.deps {
		t, ok := d.tasks[dep.TaskID]
		if ok && t.InWorkflow(workflowID) {
			deps = append(deps, dep)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	return deps, nil
}

func (m *mockStore) DeleteDependenciesTouching(taskID int64) error {
	d := m.view()
	for id, dep := range d.deps {
		if dep.TaskID == taskID || dep.DependsOn == taskID {
			delete(d.deps, id)
		}
	}
	return nil
}

func (m *mockStore) RewriteDependencyEndpoints(oldTaskID, newTaskID int64) error {
	d := m.view()
	for id, dep := range d.deps {
		if dep.TaskID == oldTaskID {
			dep.TaskID = newTaskID
		}
		if dep.DependsOn == oldTaskID {
			dep.DependsOn = newTaskID
		}
		d.deps[id] = dep
	}
	return nil
}

func (m *mockStore) SaveAssignment(a models.Assignment) (int64, error) {
	d := m.view()
	d.nextID++
	a.ID = d.nextID
	d.assignments[a.ID] = a
	return a.ID, nil
}

func (m *mockStore) ListTaskAssignments(taskID int64) ([]models.Assignment, error) {
	var history []models.Assignment
	for _, a := range m.view().assignments {
		if a.TaskID == taskID {
			history = append(history, a)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].ID < history[j].ID })
	return history, nil
}

func (m *mockStore) DeleteTaskAssignments(taskID int64) error {
	d := m.view()
	for id, a := range d.assignments {
		if a.TaskID == taskID {
			delete(d.assignments, id)
		}
	}
	return nil
}
