package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	none := Stage(-1)
	legal := []struct{ from, to, origin Stage }{
		{StagePending, StageDiscovering, none},
		{StageDiscovering, StageExtracting, none},
		{StageExtracting, StageSummarizing, none},
		{StageSummarizing, StageDelivering, none},
		{StageDelivering, StageRecording, none},
		{StageDiscovering, StageRecording, none},
		{StageSummarizing, StageRecording, none},
		{StageRecording, StageSuccess, StageDelivering},
		{StageRecording, StageFailed, StageDelivering},
		{StageRecording, StageFailed, StageDiscovering},
	}
	for _, tr := range legal {
		assert.NoError(t, transition(tr.from, tr.to, tr.origin), "%s -> %s", tr.from, tr.to)
	}

	illegal := []struct{ from, to, origin Stage }{
		{StagePending, StageRecording, none},
		{StagePending, StageExtracting, none},
		{StageDiscovering, StageSummarizing, none},
		{StageExtracting, StageDelivering, none},
		{StageDelivering, StageSuccess, none},
		{StageSummarizing, StageFailed, none},
		{StageRecording, StageDelivering, StageDelivering},
		{StageRecording, StageSuccess, StageDiscovering},
		{StageRecording, StageSuccess, StageSummarizing},
		{StageRecording, StageSuccess, none},
		{StageSuccess, StageRecording, none},
		{StageFailed, StageSuccess, none},
		{StageDelivering, StageDiscovering, none},
	}
	for _, tr := range illegal {
		assert.ErrorIs(t, transition(tr.from, tr.to, tr.origin), ErrIllegalTransition, "%s -> %s (from %s)", tr.from, tr.to, tr.origin)
	}
}

func TestStageTracker(t *testing.T) {
	tr := newStageTracker()
	require.NoError(t, tr.advance(StageDiscovering))
	require.NoError(t, tr.advance(StageExtracting))

	_, failed := tr.failedAt()
	assert.False(t, failed)

	tr.fail()
	require.NoError(t, tr.advance(StageRecording))
	tr.fail()
	require.NoError(t, tr.advance(StageFailed))

	stage, failed := tr.failedAt()
	assert.True(t, failed)
	assert.Equal(t, StageExtracting, stage)
	assert.Equal(t, []Stage{StagePending, StageDiscovering, StageExtracting, StageRecording, StageFailed}, tr.history)
	assert.Error(t, tr.advance(StageDiscovering))
}

func TestStageTracker_SuccessRequiresDelivering(t *testing.T) {
	tr := newStageTracker()
	require.NoError(t, tr.advance(StageDiscovering))
	require.NoError(t, tr.advance(StageRecording))
	assert.ErrorIs(t, tr.advance(StageSuccess), ErrIllegalTransition)
	assert.Equal(t, StageRecording, tr.current)
	require.NoError(t, tr.advance(StageFailed))

	tr = newStageTracker()
	for _, s := range []Stage{StageDiscovering, StageExtracting, StageSummarizing, StageDelivering, StageRecording, StageSuccess} {
		require.NoError(t, tr.advance(s), "advance to %s", s)
	}
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "summarizing", StageSummarizing.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StageRecording.Terminal())
}
