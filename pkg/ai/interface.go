package ai

import "context"

// GenerationConfig is the decoding configuration sent with every attempt.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
	// SafetyThreshold is one of "low", "medium", "high" (block at or above)
	SafetyThreshold string
}

// DefaultGenerationConfig is used for every digest summary.
var DefaultGenerationConfig = GenerationConfig{
	Temperature:     0.4,
	TopP:            0.9,
	MaxOutputTokens: 1024,
	SafetyThreshold: "medium",
}

// Backend is one AI text generation provider/model.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}
