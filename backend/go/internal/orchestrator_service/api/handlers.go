package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/orchestrator_service/service"
	"LexiMind/backend/go/pkg/logger"
)

// HealthCheck probes one named dependency of the service.
type HealthCheck func(ctx context.Context) error

// API provides handlers for the orchestrator service.
type API struct {
	orchestrator *service.Orchestrator
	logger       *logger.Logger
	checks       map[string]HealthCheck
}

// NewAPI creates a new API handler. checks maps dependency names to probes
// run by the health endpoint; it may be nil.
func NewAPI(orchestrator *service.Orchestrator, logger *logger.Logger, checks map[string]HealthCheck) *API {
	return &API{
		orchestrator: orchestrator,
		logger:       logger,
		checks:       checks,
	}
}

// SubmitTaskHandler handles the submission of a new analysis task.
func (a *API) SubmitTaskHandler(c *gin.Context) {
	var payload struct {
		Kind       string            `json:"kind"`
		Text       string            `json:"text"`
		DocumentID string            `json:"document_id"`
		Metadata   map[string]string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	taskID, err := a.orchestrator.Submit(models.TaskKind(payload.Kind), models.TaskPayload{
		Text:       payload.Text,
		DocumentID: payload.DocumentID,
		Metadata:   payload.Metadata,
	})
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

// GetTaskHandler handles requests to get a single task's status by its ID.
func (a *API) GetTaskHandler(c *gin.Context) {
	taskID := c.Param("id")

	view, err := a.orchestrator.Status(taskID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetTaskHistoryHandler handles requests for a task's full event history.
func (a *API) GetTaskHistoryHandler(c *gin.Context) {
	taskID := c.Param("id")

	events, err := a.orchestrator.History(taskID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "events": events})
}

// GetTasksHandler handles requests to list recent tasks.
func (a *API) GetTasksHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": a.orchestrator.List(limit)})
}

// HealthHandler probes every registered dependency and reports per-check
// status. Any failing check makes the endpoint return 503.
func (a *API) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	body := gin.H{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
