package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	internal_http "github.com/Rajatchopra3/Task-Management-System/internal/http"
	"github.com/Rajatchopra3/Task-Management-System/internal/log"
	internal_storage "github.com/Rajatchopra3/Task-Management-System/internal/storage"
	"github.com/Rajatchopra3/Task-Management-System/pkg/service"
	"github.com/spf13/cobra"
)

func SetupCLI(rootCmd *cobra.Command) {
	createWorkflowCmd := &cobra.Command{
		Use:   "create-workflow [name] [description]",
		Short: "Create a new workflow",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			id, err := svc.CreateWorkflow(args[0], description)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to create workflow: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Created workflow '%s' with ID %d\n", args[0], id)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all workflows",
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			workflows, err := svc.ListWorkflows()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to list workflows: %v\n", err)
				os.Exit(1)
			}
			if len(workflows) == 0 {
				fmt.Fprintf(os.Stdout, "No workflows found.\n")
				return
			}
			fmt.Fprintf(os.Stdout, "Workflows:\n")
			for _, wf := range workflows {
				fmt.Fprintf(os.Stdout, "- ID: %d, Name: %s, Created: %s\n",
					wf.ID, wf.Name, wf.CreatedAt.Format(time.RFC3339))
			}
		},
	}

	createTaskCmd := &cobra.Command{
		Use:   "create-task [title] [description] [status] [assignee-id]",
		Short: "Create a new task",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			assigneeID := parseID(args[3], "assignee-id")
			task, err := svc.CreateTask(args[0], args[1], args[2], assigneeID, nil, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to create task: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Created task '%s' with ID %d\n", task.Title, task.ID)
		},
	}

	addTaskCmd := &cobra.Command{
		Use:   "add-task [workflow-id] [task-id]",
		Short: "Add a task to a workflow, optionally depending on an existing member",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			workflowID := parseID(args[0], "workflow-id")
			taskID := parseID(args[1], "task-id")
			var dependsOn *int64
			if raw, _ := cmd.Flags().GetString("depends-on"); raw != "" {
				id := parseID(raw, "depends-on")
				dependsOn = &id
			}
			if err := svc.AddTaskToWorkflow(workflowID, taskID, dependsOn); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to add task to workflow: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Added task %d to workflow %d\n", taskID, workflowID)
		},
	}
	addTaskCmd.Flags().String("depends-on", "", "ID of an existing member task that will depend on the added task")

	removeTaskCmd := &cobra.Command{
		Use:   "remove-task [workflow-id] [task-id]",
		Short: "Remove a task from a workflow (cascades eviction one level)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			workflowID := parseID(args[0], "workflow-id")
			taskID := parseID(args[1], "task-id")
			if err := svc.DeleteTaskFromWorkflow(workflowID, taskID); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to remove task from workflow: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Removed task %d from workflow %d\n", taskID, workflowID)
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder [workflow-id] [anchor-task-id] [task-id,task-id,...]",
		Short: "Rebuild a workflow's dependency chain around an anchor task",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			workflowID := parseID(args[0], "workflow-id")
			anchorID := parseID(args[1], "anchor-task-id")
			var order []int64
			for _, raw := range strings.Split(args[2], ",") {
				order = append(order, parseID(raw, "task-id"))
			}
			if err := svc.ReassignDependencyChain(workflowID, anchorID, order); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to reorder workflow: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Rebuilt dependency chain of workflow %d across %d tasks\n", workflowID, len(order))
		},
	}

	assignCmd := &cobra.Command{
		Use:   "assign [task-id] [user-id]",
		Short: "Assign or reassign a task to a user",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			taskID := parseID(args[0], "task-id")
			userID := parseID(args[1], "user-id")
			if err := svc.AssignUser(taskID, userID); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to assign task: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Assigned task %d to user %d\n", taskID, userID)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			store := storeFromFlags(cmd)
			defer store.Close()
			port, _ := cmd.Flags().GetString("port")
			if err := internal_http.StartServer(port, store); err != nil {
				fmt.Fprintf(os.Stderr, "Error: server stopped: %v\n", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "8080", "Port to listen on")

	rootCmd.AddCommand(createWorkflowCmd, listCmd, createTaskCmd, addTaskCmd, removeTaskCmd, reorderCmd, assignCmd, serveCmd)
}

func parseID(raw, name string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid %s '%s'\n", name, raw)
		os.Exit(1)
	}
	return id
}

func storeFromFlags(cmd *cobra.Command) *internal_storage.PostgresStore {
	dbConnStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
