package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_MODELS", "")
	t.Setenv("STAGE_TIMEOUT", "")
	t.Setenv("NOTION_PAGE_SIZE", "")

	cfg := Load()
	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash"}, cfg.GeminiModels)
	assert.Equal(t, 2*time.Minute, cfg.StageTimeout)
	assert.Equal(t, 20, cfg.NotionPageSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_MODELS", " gemini-2.5-flash , ,gemini-2.0-flash")
	t.Setenv("STAGE_TIMEOUT", "0s")
	t.Setenv("NOTION_PAGE_SIZE", "5")
	t.Setenv("INTERNAL_TICKER", "true")
	t.Setenv("NOTION_FETCH_DELAY", "not-a-duration")

	cfg := Load()
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, cfg.GeminiModels)
	assert.Equal(t, time.Duration(0), cfg.StageTimeout)
	assert.Equal(t, 5, cfg.NotionPageSize)
	assert.True(t, cfg.InternalTicker)
	assert.Equal(t, 350*time.Millisecond, cfg.NotionFetchDelay)
}
