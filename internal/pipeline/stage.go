package pipeline

import (
	"errors"
	"fmt"
)

// Stage is the position of one schedule run in its state machine.
type Stage int

const (
	StagePending Stage = iota
	StageDiscovering
	StageExtracting
	StageSummarizing
	StageDelivering
	StageRecording
	StageSuccess
	StageFailed
)

var stageNames = [...]string{
	StagePending:     "pending",
	StageDiscovering: "discovering",
	StageExtracting:  "extracting",
	StageSummarizing: "summarizing",
	StageDelivering:  "delivering",
	StageRecording:   "recording",
	StageSuccess:     "success",
	StageFailed:      "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageSuccess || s == StageFailed
}

// ErrIllegalTransition is returned by transition for a move the state
// machine does not allow.
var ErrIllegalTransition = errors.New("illegal stage transition")

// transition validates from -> to. Working stages advance one step at a
// time and any of them may jump to recording after a failure. origin is the
// stage recording was entered from: recording ends in success only when
// origin is delivering, otherwise only in failed.
func transition(from, to, origin Stage) error {
	switch {
	case from.Terminal():
	case from == StageRecording:
		if to == StageFailed || (to == StageSuccess && origin == StageDelivering) {
			return nil
		}
	case to == StageRecording && from >= StageDiscovering:
		return nil
	case to == from+1 && to < StageRecording:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// stageTracker holds the current stage of one run and remembers where it
// failed.
type stageTracker struct {
	current Stage
	failed  Stage
	// origin is the stage recording was entered from.
	origin  Stage
	history []Stage
}

func newStageTracker() *stageTracker {
	return &stageTracker{current: StagePending, failed: -1, origin: -1, history: []Stage{StagePending}}
}

func (t *stageTracker) advance(to Stage) error {
	if err := transition(t.current, to, t.origin); err != nil {
		return err
	}
	if to == StageRecording {
		t.origin = t.current
	}
	t.current = to
	t.history = append(t.history, to)
	return nil
}

// fail marks the current stage as the failing one.
func (t *stageTracker) fail() {
	if t.failed < 0 {
		t.failed = t.current
	}
}

func (t *stageTracker) failedAt() (Stage, bool) {
	return t.failed, t.failed >= 0
}
