package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	internal_http "github.com/Rajatchopra3/Task-Management-System/internal/http"
	"github.com/Rajatchopra3/Task-Management-System/internal/log"
	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/service"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestServer(t *testing.T) {
	type env struct {
		srv    *httptest.Server
		userID int64
		tasks  *service.TaskService
		wf     *service.WorkflowService
	}

	newEnv := func(t *testing.T) *env {
		store := storage.NewMockStore()
		logger := log.GetLogger()
		wfSvc := service.NewWorkflowService(store, logger)
		taskSvc := service.NewTaskService(store, logger)
		userSvc := service.NewUserService(store, logger)

		userID, err := userSvc.RegisterUser("ana", "ana@example.com", "s3cretpass", models.UserRole)
		assert.NoError(t, err)

		mux := http.NewServeMux()
		mux.HandleFunc("/health", internal_http.HealthHandler)
		mux.HandleFunc("/workflows", internal_http.WorkflowsHandler(wfSvc))
		mux.HandleFunc("/workflows/", internal_http.WorkflowByIDHandler(wfSvc))
		mux.HandleFunc("/tasks", internal_http.TasksHandler(taskSvc))
		mux.HandleFunc("/tasks/", internal_http.TaskByIDHandler(taskSvc))
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)
		return &env{srv: srv, userID: userID, tasks: taskSvc, wf: wfSvc}
	}

	postJSON := func(t *testing.T, url string, payload string) *http.Response {
		resp, err := http.Post(url, "application/json", bytes.NewBufferString(payload))
		assert.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("HealthCheck", func(t *testing.T) {
		e := newEnv(t)
		resp, err := http.Get(e.srv.URL + "/health")
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "Task-management server is running", string(body))
	})

	t.Run("CreateWorkflow", func(t *testing.T) {
		e := newEnv(t)
		resp := postJSON(t, e.srv.URL+"/workflows", `{"name": "release", "description": "ship it"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, `{"id":2,"message":"Created workflow 'release' with ID 2"}`+"\n", string(body))
	})

	t.Run("CreateWorkflowMissingName", func(t *testing.T) {
		e := newEnv(t)
		resp := postJSON(t, e.srv.URL+"/workflows", `{"description": "no name"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("CreateAndGetTask", func(t *testing.T) {
		e := newEnv(t)
		resp := postJSON(t, e.srv.URL+"/tasks",
			fmt.Sprintf(`{"title": "write docs", "description": "d", "status": "Open", "assignee_id": %d}`, e.userID))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var created models.Task
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		assert.Equal(t, "write docs", created.Title)

		getResp, err := http.Get(fmt.Sprintf("%s/tasks/%d", e.srv.URL, created.ID))
		assert.NoError(t, err)
		defer getResp.Body.Close()
		assert.Equal(t, http.StatusOK, getResp.StatusCode)

		var got models.Task
		assert.NoError(t, json.NewDecoder(getResp.Body).Decode(&got))
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, e.userID, got.AssigneeID)
	})

	t.Run("CreateTaskUnknownAssignee", func(t *testing.T) {
		e := newEnv(t)
		resp := postJSON(t, e.srv.URL+"/tasks", `{"title": "t", "description": "d", "status": "Open", "assignee_id": 999}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("AddTaskToWorkflow", func(t *testing.T) {
		e := newEnv(t)
		wfID, err := e.wf.CreateWorkflow("release", "")
		assert.NoError(t, err)
		task, err := e.tasks.CreateTask("write docs", "d", "Open", e.userID, nil, nil)
		assert.NoError(t, err)

		resp := postJSON(t, fmt.Sprintf("%s/workflows/%d/tasks", e.srv.URL, wfID),
			fmt.Sprintf(`{"task_id": %d}`, task.ID))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		getResp, err := http.Get(fmt.Sprintf("%s/workflows/%d", e.srv.URL, wfID))
		assert.NoError(t, err)
		defer getResp.Body.Close()

		var wf models.Workflow
		assert.NoError(t, json.NewDecoder(getResp.Body).Decode(&wf))
		assert.Len(t, wf.Tasks, 1)
		assert.Equal(t, task.ID, wf.Tasks[0].ID)
	})

	t.Run("CyclicDependencyConflicts", func(t *testing.T) {
		e := newEnv(t)
		wfID, err := e.wf.CreateWorkflow("release", "")
		assert.NoError(t, err)
		a, err := e.tasks.CreateTask("a", "d", "Open", e.userID, nil, nil)
		assert.NoError(t, err)
		b, err := e.tasks.CreateTask("b", "d", "Open", e.userID, nil, nil)
		assert.NoError(t, err)
		assert.NoError(t, e.wf.AddTaskToWorkflow(wfID, b.ID, nil))

		resp := postJSON(t, fmt.Sprintf("%s/workflows/%d/tasks", e.srv.URL, wfID),
			fmt.Sprintf(`{"task_id": %d, "depends_on": %d}`, a.ID, b.ID))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = postJSON(t, fmt.Sprintf("%s/workflows/%d/tasks", e.srv.URL, wfID),
			fmt.Sprintf(`{"task_id": %d, "depends_on": %d}`, b.ID, a.ID))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("NonAdminUpdateForbidden", func(t *testing.T) {
		e := newEnv(t)
		wfID, err := e.wf.CreateWorkflow("release", "")
		assert.NoError(t, err)
		task, err := e.tasks.CreateTask("t", "d", "Open", e.userID, nil, nil)
		assert.NoError(t, err)

		req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/tasks/%d", e.srv.URL, task.ID),
			bytes.NewBufferString(fmt.Sprintf(`{"workflow_id": %d}`, wfID)))
		assert.NoError(t, err)
		req.Header.Set("X-Actor-ID", "999")

		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("AdminUpdateMovesTask", func(t *testing.T) {
		e := newEnv(t)
		wfID, err := e.wf.CreateWorkflow("release", "")
		assert.NoError(t, err)
		task, err := e.tasks.CreateTask("t", "d", "Open", e.userID, nil, nil)
		assert.NoError(t, err)

		req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/tasks/%d", e.srv.URL, task.ID),
			bytes.NewBufferString(fmt.Sprintf(`{"workflow_id": %d}`, wfID)))
		assert.NoError(t, err)
		req.Header.Set("X-Actor-ID", "1")
		req.Header.Set("X-Actor-Admin", "true")

		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated models.Task
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
		assert.NotNil(t, updated.WorkflowID)
		assert.Equal(t, wfID, *updated.WorkflowID)
	})
}
