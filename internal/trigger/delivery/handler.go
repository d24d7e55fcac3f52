package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	execdomain "digest-backend/internal/execution/domain"
	"digest-backend/internal/pipeline"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Invoker is the pipeline surface exposed over HTTP.
type Invoker interface {
	RunDue(ctx context.Context, trigger pipeline.Trigger) (*pipeline.InvocationResult, error)
	RunManual(ctx context.Context, scheduleID string) (*pipeline.RunResult, error)
	History(ctx context.Context, scheduleID string, limit int) ([]*execdomain.ExecutionRecord, error)
}

// TriggerHandler handles invocation requests
type TriggerHandler struct {
	invoker Invoker
	log     *zap.Logger
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(invoker Invoker, log *zap.Logger) *TriggerHandler {
	return &TriggerHandler{invoker: invoker, log: log.Named("http")}
}

// RegisterRoutes mounts the trigger routes on group behind the secret check.
func (h *TriggerHandler) RegisterRoutes(group *gin.RouterGroup, secret string) {
	protected := group.Group("")
	protected.Use(SecretMiddleware(secret))
	{
		protected.GET("/cron/digest", h.RunDigest)
		protected.POST("/cron/digest", h.RunDigest)
		protected.POST("/schedules/:id/run", h.RunSchedule)
		protected.GET("/schedules/:id/executions", h.GetExecutions)
	}
}

// RunDigest runs every due schedule
// GET|POST /api/cron/digest
func (h *TriggerHandler) RunDigest(c *gin.Context) {
	result, err := h.invoker.RunDue(c.Request.Context(), pipeline.TriggerCron)
	if err != nil {
		h.log.Error("Invocation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunSchedule runs one schedule immediately
// POST /api/schedules/:id/run
func (h *TriggerHandler) RunSchedule(c *gin.Context) {
	scheduleID := c.Param("id")

	result, err := h.invoker.RunManual(c.Request.Context(), scheduleID)
	if err != nil {
		if errors.Is(err, pipeline.ErrScheduleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
			return
		}
		h.log.Error("Manual run failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExecutions returns the execution history of a schedule
// GET /api/schedules/:id/executions?limit=20
func (h *TriggerHandler) GetExecutions(c *gin.Context) {
	scheduleID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(pipeline.DefaultHistoryLimit)))

	records, err := h.invoker.History(c.Request.Context(), scheduleID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	executions := make([]gin.H, 0, len(records))
	for _, rec := range records {
		executions = append(executions, gin.H{
			"id":                rec.ID,
			"invocation_slot":   rec.InvocationSlot,
			"executed_at":       rec.ExecutedAt,
			"finished_at":       rec.FinishedAt,
			"status":            rec.Status,
			"stage":             rec.Stage,
			"content_processed": rec.ContentProcessed,
			"context_tag":       rec.ContextTag,
			"error":             rec.Error,
			"manual":            rec.Manual,
			"deliveries":        rec.DeliveryResults,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"executions": executions,
		"total":      len(executions),
	})
}
