package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/lectern-app/lectern/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	client *tasks.Client
}

// NewTasksController creates a new TasksController.
func NewTasksController(client *tasks.Client) *TasksController {
	return &TasksController{client: client}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "cleanup_artifacts",
			Description: "Remove narration audio artifacts past the retention window",
			Queue:       "cleanup_artifacts",
		},
		{
			Type:        "cache_cover",
			Description: "Prefetch a book's external cover image into the local cache",
			Queue:       "cache_cover",
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	BookID           uint   `json:"book_id,omitempty"`
	CoverURL         string `json:"cover_url,omitempty"`
	RetentionMinutes int    `json:"retention_minutes,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run (admin only).
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}

	var task backlite.Task
	switch taskType {
	case "cleanup_artifacts":
		task = tasks.CleanupArtifactsTask{RetentionMinutes: req.RetentionMinutes}

	case "cache_cover":
		if req.BookID == 0 || req.CoverURL == "" {
			respondBadRequest(c, "book_id and cover_url are required for cache_cover task")
			return
		}
		task = tasks.CacheCoverTask{BookID: req.BookID, CoverURL: req.CoverURL}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.client.Add(task).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
