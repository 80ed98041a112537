package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/i474232898/marine-forecast/internal/signalk"
)

// Alert state machine events.
const (
	EventToOK       = "to_ok"
	EventToWarning  = "to_warning"
	EventToCritical = "to_critical"
)

var allStates = []string{string(StatusOK), string(StatusWarning), string(StatusCritical)}

// Alerts emits a notification only when the usage band changes. The first
// band entered from OK is the only way to get a clearing notification later.
type Alerts struct {
	*fsm.FSM
}

// NewAlerts returns an alert machine in the OK band.
func NewAlerts() *Alerts {
	a := &Alerts{}

	events := fsm.Events{
		{Name: EventToOK, Src: allStates, Dst: string(StatusOK)},
		{Name: EventToWarning, Src: allStates, Dst: string(StatusWarning)},
		{Name: EventToCritical, Src: allStates, Dst: string(StatusCritical)},
	}

	callbacks := fsm.Callbacks{
		"enter_" + string(StatusOK): func(_ context.Context, e *fsm.Event) {
			notify(e, signalk.StateNormal, []string{signalk.MethodVisual}, "Forecast API usage back to normal")
		},
		"enter_" + string(StatusWarning): func(_ context.Context, e *fsm.Event) {
			notify(e, signalk.StateWarn, []string{signalk.MethodVisual}, "Forecast API usage warning")
		},
		"enter_" + string(StatusCritical): func(_ context.Context, e *fsm.Event) {
			notify(e, signalk.StateAlarm, []string{signalk.MethodVisual, signalk.MethodSound}, "Forecast API usage critical")
		},
	}

	a.FSM = fsm.NewFSM(string(StatusOK), events, callbacks)
	return a
}

// Evaluate moves the machine to the band of s and returns the notification
// for that transition, or nil when the band is unchanged.
func (a *Alerts) Evaluate(ctx context.Context, s Summary) (*signalk.Notification, error) {
	var n *signalk.Notification
	err := a.Event(ctx, "to_"+string(s.Status), s, &n)

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("usage alert transition: %w", err)
	}
	return n, nil
}

// Reset returns the machine to the OK band without notifying.
func (a *Alerts) Reset() {
	a.SetState(string(StatusOK))
}

func notify(e *fsm.Event, state signalk.NotificationState, method []string, title string) {
	s := e.Args[0].(Summary)
	out := e.Args[1].(**signalk.Notification)
	msg := fmt.Sprintf("%s: %d%% used, %d of %d credits remaining", title, s.UsagePercentage, s.Remaining, s.EstimatedLimit)
	*out = &signalk.Notification{
		State:     state,
		Method:    method,
		Message:   msg,
		Timestamp: s.CheckedAt,
	}
}
