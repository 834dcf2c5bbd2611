package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/tasks"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports readiness of the catalog database and, when the
// background queue is enabled, the tasks database that narration cleanup
// and cover prefetching run on.
type HealthController struct {
	db         *database.Database
	taskClient *tasks.Client
	version    string
}

func NewHealthController(db *database.Database, taskClient *tasks.Client, version string) *HealthController {
	return &HealthController{
		db:         db,
		taskClient: taskClient,
		version:    version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Catalog and library live in the main database
	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	// Background tasks use a separate SQLite database
	if h.taskClient != nil {
		if err := h.taskClient.DB().Ping(); err != nil {
			checks["task_queue"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["task_queue"] = "ok"
		}
	} else {
		checks["task_queue"] = "disabled"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
