package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rajatchopra3/Task-Management-System/internal/log"
	"github.com/Rajatchopra3/Task-Management-System/pkg/service"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
)

// StartServer wires the services over the given store and listens on port.
func StartServer(port string, store storage.Store) error {
	logger := log.GetLogger()
	wfSvc := service.NewWorkflowService(store, logger)
	taskSvc := service.NewTaskService(store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/workflows", WorkflowsHandler(wfSvc))
	mux.HandleFunc("/workflows/", WorkflowByIDHandler(wfSvc))
	mux.HandleFunc("/tasks", TasksHandler(taskSvc))
	mux.HandleFunc("/tasks/", TaskByIDHandler(taskSvc))

	logger.Infof("Starting task-management server on :%s", port)
	return http.ListenAndServe(":"+port, mux)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Task-management server is running")
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case service.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case service.IsRetryable(err):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func WorkflowsHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			workflows, err := svc.ListWorkflows()
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(workflows)
		case http.MethodPost:
			var req struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid JSON payload", http.StatusBadRequest)
				return
			}
			if req.Name == "" {
				http.Error(w, "missing 'name'", http.StatusBadRequest)
				return
			}
			id, err := svc.CreateWorkflow(req.Name, req.Description)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":      id,
				"message": fmt.Sprintf("Created workflow '%s' with ID %d", req.Name, id),
			})
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// WorkflowByIDHandler serves /workflows/{id} and /workflows/{id}/tasks.
func WorkflowByIDHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/workflows/"), "/"), "/")
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			http.Error(w, "invalid workflow ID", http.StatusBadRequest)
			return
		}

		if len(parts) == 2 && parts[1] == "tasks" && r.Method == http.MethodPost {
			var req struct {
				TaskID    int64  `json:"task_id"`
				DependsOn *int64 `json:"depends_on,omitempty"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid JSON payload", http.StatusBadRequest)
				return
			}
			if err := svc.AddTaskToWorkflow(id, req.TaskID, req.DependsOn); err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"message": fmt.Sprintf("Added task %d to workflow %d", req.TaskID, id),
			})
			return
		}

		switch r.Method {
		case http.MethodGet:
			wf, err := svc.GetWorkflow(id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(wf)
		case http.MethodDelete:
			if err := svc.DeleteWorkflow(id); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func TasksHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Status      string `json:"status"`
			AssigneeID  int64  `json:"assignee_id"`
			WorkflowID  *int64 `json:"workflow_id,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}
		task, err := svc.CreateTask(req.Title, req.Description, req.Status, req.AssigneeID, req.WorkflowID, nil)
		if err != nil {
			if service.IsNotFound(err) {
				writeServiceError(w, err)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(task)
	}
}

// TaskByIDHandler serves GET/PUT/DELETE on /tasks/{id}. The acting user is
// taken from the X-Actor-ID and X-Actor-Admin headers; resolving them from
// a credential happens upstream.
func TaskByIDHandler(svc *service.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(strings.Trim(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/"), 10, 64)
		if err != nil {
			http.Error(w, "invalid task ID", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			task, err := svc.GetTask(id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(task)
		case http.MethodPut:
			actorID, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
			actor := service.Actor{ID: actorID, Admin: r.Header.Get("X-Actor-Admin") == "true"}
			var req struct {
				Title       *string `json:"title"`
				Description *string `json:"description"`
				Status      *string `json:"status"`
				AssigneeID  *int64  `json:"assignee_id"`
				WorkflowID  *int64  `json:"workflow_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid JSON payload", http.StatusBadRequest)
				return
			}
			patch := service.TaskPatch{
				Title:       req.Title,
				Description: req.Description,
				Status:      req.Status,
				AssigneeID:  req.AssigneeID,
				WorkflowID:  req.WorkflowID,
			}
			updated, err := svc.UpdateTask(id, patch, actor)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if updated == nil {
				// Caller is not permitted to apply the requested change.
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(updated)
		case http.MethodDelete:
			if err := svc.DeleteTask(id); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
