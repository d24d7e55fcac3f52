package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestSafetySettings(t *testing.T) {
	settings := safetySettings("medium")
	assert.Len(t, settings, 4)
	for _, s := range settings {
		assert.Equal(t, genai.HarmBlockThresholdBlockMediumAndAbove, s.Threshold)
	}

	assert.Equal(t, genai.HarmBlockThresholdBlockOnlyHigh, safetySettings("high")[0].Threshold)
	assert.Equal(t, genai.HarmBlockThresholdBlockLowAndAbove, safetySettings("low")[0].Threshold)
}

func TestBackendName(t *testing.T) {
	assert.Equal(t, "gemini:gemini-2.5-flash", NewBackend(nil, "gemini-2.5-flash").Name())
}
