// Package engine turns extracted workspace text into a digest by trying the
// configured AI backends in priority order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"digest-backend/internal/content/extractor"
	"digest-backend/internal/schedule/domain"
	"digest-backend/pkg/ai"
	"digest-backend/pkg/fallback"
	"digest-backend/pkg/metrics"

	"go.uber.org/zap"
)

// ErrAllBackendsFailed is returned when no backend produced a summary.
var ErrAllBackendsFailed = errors.New("all AI backends failed")

// SummaryResult is the generated digest.
type SummaryResult struct {
	Text         string
	Backend      string
	ContentCount int
	ContextTag   ContextTag
}

// Engine summarizes content with an ordered backend chain.
type Engine struct {
	backends []ai.Backend
	genCfg   ai.GenerationConfig
	log      *zap.Logger
}

// New creates an Engine. Backends are tried in the given order.
func New(backends []ai.Backend, log *zap.Logger) *Engine {
	return &Engine{
		backends: backends,
		genCfg:   ai.DefaultGenerationConfig,
		log:      log.Named("summary"),
	}
}

// Backends returns the chain names in order.
func (e *Engine) Backends() []string {
	names := make([]string, len(e.backends))
	for i, b := range e.backends {
		names[i] = b.Name()
	}
	return names
}

// Summarize returns the first non-empty summary from the chain.
func (e *Engine) Summarize(ctx context.Context, content extractor.Content, cfg domain.SummaryConfig, tag ContextTag) (*SummaryResult, error) {
	prompt := buildPrompt(content.Text, cfg, tag)

	strategies := make([]fallback.Strategy[string], 0, len(e.backends))
	for _, b := range e.backends {
		strategies = append(strategies, fallback.Strategy[string]{
			Name: b.Name(),
			Run: func(ctx context.Context) (string, error) {
				return e.attempt(ctx, b, prompt)
			},
		})
	}

	res, err := fallback.TryInOrder(ctx, strategies, func(text string) bool {
		return strings.TrimSpace(text) != ""
	})
	if err != nil {
		if errors.Is(err, fallback.ErrExhausted) {
			return nil, fmt.Errorf("%w: %w", ErrAllBackendsFailed, err)
		}
		return nil, err
	}

	if res.Index > 0 {
		e.log.Info("Summary produced by fallback backend",
			zap.String("backend", res.Name),
			zap.Int("failed_attempts", len(res.Attempts)))
	}

	return &SummaryResult{
		Text:         strings.TrimSpace(res.Value),
		Backend:      res.Name,
		ContentCount: content.DocumentsProcessed,
		ContextTag:   tag,
	}, nil
}

func (e *Engine) attempt(ctx context.Context, b ai.Backend, prompt string) (string, error) {
	text, err := b.Generate(ctx, prompt, e.genCfg)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ai.ErrEmptyResponse
	}

	outcome := ai.Classify(err)
	metrics.RecordBackendAttempt(b.Name(), outcome)
	if err != nil {
		e.log.Warn("AI backend failed, trying next",
			zap.String("backend", b.Name()),
			zap.String("outcome", outcome),
			zap.Error(err))
		return "", err
	}
	return text, nil
}
