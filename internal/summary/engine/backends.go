package engine

import (
	"context"
	"errors"

	"digest-backend/pkg/ai"
	"digest-backend/pkg/config"
	"digest-backend/pkg/gemini"

	"go.uber.org/zap"
)

// ErrNoBackends is returned when configuration enables no AI backend at all.
var ErrNoBackends = errors.New("no AI backend configured")

// BuildBackends assembles the chain from configuration: one Gemini backend
// per configured model, then Ollama as the legacy tier when a base URL is set.
func BuildBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]ai.Backend, error) {
	var backends []ai.Backend

	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		for _, model := range cfg.GeminiModels {
			backends = append(backends, gemini.NewBackend(client, model))
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, Gemini backends disabled")
	}

	if cfg.OllamaBaseURL != "" {
		backends = append(backends, ai.NewOllamaBackend(cfg.OllamaBaseURL, cfg.OllamaModel))
	}

	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	log.Info("AI backend chain ready", zap.Strings("backends", names))
	return backends, nil
}
