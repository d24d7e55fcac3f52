package gemini

import (
	"context"
	"fmt"
	"strings"

	"digest-backend/pkg/ai"

	"google.golang.org/genai"
)

// Backend implements ai.Backend for one Gemini model.
type Backend struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini API client shared by all model backends.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// NewBackend binds a model name to client.
func NewBackend(client *genai.Client, model string) *Backend {
	return &Backend{client: client, model: model}
}

// Name implements ai.Backend
func (b *Backend) Name() string {
	return "gemini:" + b.model
}

// Generate implements ai.Backend
func (b *Backend) Generate(ctx context.Context, prompt string, cfg ai.GenerationConfig) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopP:            genai.Ptr(cfg.TopP),
		MaxOutputTokens: cfg.MaxOutputTokens,
		SafetySettings:  safetySettings(cfg.SafetyThreshold),
	})
	if err != nil {
		if ai.IsQuotaError(err) {
			return "", fmt.Errorf("%w: %s: %v", ai.ErrQuota, b.model, err)
		}
		return "", fmt.Errorf("gemini %s request failed: %w", b.model, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ai.ErrSafetyBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: candidate stopped for safety", ai.ErrSafetyBlocked)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

func safetySettings(threshold string) []*genai.SafetySetting {
	var t genai.HarmBlockThreshold
	switch threshold {
	case "low":
		t = genai.HarmBlockThresholdBlockLowAndAbove
	case "high":
		t = genai.HarmBlockThresholdBlockOnlyHigh
	default:
		t = genai.HarmBlockThresholdBlockMediumAndAbove
	}

	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{Category: c, Threshold: t})
	}
	return settings
}
