package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"digest-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

// StatusHandler reports the effective pipeline configuration. Secrets are
// never included.
type StatusHandler struct {
	backends      []string
	ollamaBaseURL string
	stageTimeout  time.Duration
	pageSize      int
	tickerEnabled bool
	pubsubEnabled bool
	httpClient    *http.Client
}

func NewStatusHandler(backends []string, cfg *config.Config) *StatusHandler {
	return &StatusHandler{
		backends:      backends,
		ollamaBaseURL: strings.TrimRight(cfg.OllamaBaseURL, "/"),
		stageTimeout:  cfg.StageTimeout,
		pageSize:      cfg.NotionPageSize,
		tickerEnabled: cfg.InternalTicker,
		pubsubEnabled: cfg.GoogleProjectID != "",
		httpClient:    &http.Client{Timeout: 5 * time.Second},
	}
}

// GetStatus returns the backend chain and trigger setup
// GET /api/status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ai_backends":     h.backends,
		"stage_timeout":   h.stageTimeout.String(),
		"page_size":       h.pageSize,
		"internal_ticker": h.tickerEnabled,
		"pubsub":          h.pubsubEnabled,
	})
}

// TestOllamaConnection tests if the Ollama server is reachable
// POST /api/status/ollama/test
func (h *StatusHandler) TestOllamaConnection(c *gin.Context) {
	if h.ollamaBaseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"connected": false,
			"error":     "OLLAMA_BASE_URL not configured",
		})
		return
	}

	// Test connection by calling Ollama's /api/tags endpoint
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.ollamaBaseURL+"/api/tags", nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"connected": false, "error": err.Error()})
		return
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":   false,
			"status_code": resp.StatusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": h.ollamaBaseURL,
	})
}
