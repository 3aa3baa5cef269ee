// Package job models long-running per-trip generation jobs as an explicit
// state machine with a durable record that any consumer can poll and resume.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when an event does not apply to the current state.
var ErrInvalidTransition = errors.New("invalid job transition")

// State is the lifecycle stage of a job.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingInput State = "awaiting_input"
	StateGenerating    State = "generating"
	StateReady         State = "ready"
	StateTimedOut      State = "timed_out"
	StateFailed        State = "failed"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateAwaitingInput, StateGenerating, StateReady, StateTimedOut, StateFailed:
		return true
	}
	return false
}

// Status is the full state of a job. StartedAt is set while generating and
// kept afterwards; Result is set when ready; Reason when failed.
type Status struct {
	State     State           `json:"state"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// Event is an input to Transition.
type Event interface {
	name() string
}

// Open is sent when a consumer opens the feature. Cached carries a previously
// stored result, if any.
type Open struct{ Cached json.RawMessage }

// Submit starts generation.
type Submit struct{ At time.Time }

// Complete delivers the generated result.
type Complete struct{ Result json.RawMessage }

// Fail reports that generation failed.
type Fail struct{ Reason string }

// Timeout reports that polling gave up.
type Timeout struct{}

// Reset returns the job to idle, discarding any result.
type Reset struct{}

func (Open) name() string     { return "open" }
func (Submit) name() string   { return "submit" }
func (Complete) name() string { return "complete" }
func (Fail) name() string     { return "fail" }
func (Timeout) name() string  { return "timeout" }
func (Reset) name() string    { return "reset" }

// Transition applies ev to s and returns the new status. It has no side
// effects; s is never modified.
func Transition(s Status, ev Event) (Status, error) {
	if s.State == "" {
		s.State = StateIdle
	}

	switch e := ev.(type) {
	case Reset:
		return Status{State: StateIdle}, nil

	case Open:
		switch s.State {
		case StateIdle, StateAwaitingInput, StateTimedOut, StateFailed:
			if len(e.Cached) > 0 {
				return Status{State: StateReady, Result: e.Cached}, nil
			}
			return Status{State: StateAwaitingInput}, nil
		case StateGenerating, StateReady:
			// Reopening resumes whatever is in progress or already done.
			return s, nil
		}

	case Submit:
		switch s.State {
		case StateIdle, StateAwaitingInput, StateReady, StateTimedOut, StateFailed:
			at := e.At.UTC()
			return Status{State: StateGenerating, StartedAt: &at}, nil
		}

	case Complete:
		if s.State == StateGenerating {
			if len(e.Result) == 0 {
				return s, fmt.Errorf("complete without a result: %w", ErrInvalidTransition)
			}
			return Status{State: StateReady, StartedAt: s.StartedAt, Result: e.Result}, nil
		}

	case Fail:
		if s.State == StateGenerating {
			reason := e.Reason
			if reason == "" {
				reason = "generation failed"
			}
			return Status{State: StateFailed, StartedAt: s.StartedAt, Reason: reason}, nil
		}

	case Timeout:
		if s.State == StateGenerating {
			return Status{State: StateTimedOut, StartedAt: s.StartedAt, Reason: "gave up waiting for a result"}, nil
		}
	}

	name := "unknown"
	if ev != nil {
		name = ev.name()
	}
	return s, fmt.Errorf("%s from %s: %w", name, s.State, ErrInvalidTransition)
}
