package session

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/metrics"
)

// Lifecycle states.
const (
	StateUninitialized = "uninitialized"
	StateInitializing  = "initializing"
	StateActive        = "active"
	StateError         = "error"
)

// Lifecycle events.
const (
	EventStart = "start"
	EventReady = "ready"
	EventFail  = "fail"
	EventStop  = "stop"
)

var lifecycleStates = []string{StateUninitialized, StateInitializing, StateActive, StateError}

func newLifecycle() *fsm.FSM {
	events := fsm.Events{
		{Name: EventStart, Src: []string{StateUninitialized}, Dst: StateInitializing},
		{Name: EventReady, Src: []string{StateInitializing}, Dst: StateActive},
		// Configuration errors are terminal until the next start.
		{Name: EventFail, Src: []string{StateInitializing, StateActive}, Dst: StateError},
		{Name: EventStop, Src: []string{StateInitializing, StateActive, StateError}, Dst: StateUninitialized},
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			log.Info("Session state changed", "from", e.Src, "to", e.Dst, "event", e.Event)
			setStateGauge(e.Dst)
		},
	}

	setStateGauge(StateUninitialized)
	return fsm.NewFSM(StateUninitialized, events, callbacks)
}

func setStateGauge(current string) {
	for _, s := range lifecycleStates {
		v := 0.0
		if s == current {
			v = 1
		}
		metrics.SessionState.WithLabelValues(s).Set(v)
	}
}
