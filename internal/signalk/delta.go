// Package signalk defines the messages exchanged with the vessel data bus
// and an MQTT-backed implementation of that bus.
package signalk

import (
	"context"
	"encoding/json"
	"time"
)

// SelfContext addresses the own vessel.
const SelfContext = "vessels.self"

// Published paths and source labels.
const (
	PathForecastRoot    = "environment.forecast"
	PathMetadata        = PathForecastRoot + ".metadata"
	PathAccount         = PathForecastRoot + ".account"
	PathMovingEngaged   = PathForecastRoot + ".movingForecastEngaged"
	PathUsageAlert      = "notifications." + PathForecastRoot + ".usage"
	PathPosition        = "navigation.position"
	PathHeadingTrue     = "navigation.headingTrue"
	PathSpeedOverGround = "navigation.speedOverGround"

	SourceMetadata = "metadata-api"
	SourceAccount  = "account-api"
	SourceControl  = "control-api"
	SourceUsage    = "usage-api"
)

// Delta is a SignalK delta message.
type Delta struct {
	Context string   `json:"context"`
	Updates []Update `json:"updates"`
}

// Update groups values produced by one source at one instant.
type Update struct {
	Source    string      `json:"$source"`
	Timestamp time.Time   `json:"timestamp"`
	Values    []PathValue `json:"values"`
}

// PathValue is a single value at a path. Value is any JSON-encodable value.
type PathValue struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// NewDelta builds a single-update delta for the own vessel.
func NewDelta(source string, ts time.Time, values ...PathValue) Delta {
	return Delta{
		Context: SelfContext,
		Updates: []Update{{Source: source, Timestamp: ts.UTC(), Values: values}},
	}
}

// Publisher sends deltas to the bus.
type Publisher interface {
	Publish(ctx context.Context, d Delta) error
}

// NotificationState is the SignalK alarm state.
type NotificationState string

const (
	StateNormal NotificationState = "normal"
	StateWarn   NotificationState = "warn"
	StateAlarm  NotificationState = "alarm"
)

// Notification methods.
const (
	MethodVisual = "visual"
	MethodSound  = "sound"
)

// Notification is the value published under a notifications.* path.
type Notification struct {
	State     NotificationState `json:"state"`
	Method    []string          `json:"method"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}

// PutRequest asks the service to change a writable path.
type PutRequest struct {
	RequestID string          `json:"requestId"`
	Context   string          `json:"context,omitempty"`
	Path      string          `json:"path"`
	Value     json.RawMessage `json:"value"`
}

// PutResponse acknowledges a PutRequest.
type PutResponse struct {
	RequestID  string `json:"requestId"`
	State      string `json:"state"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message,omitempty"`
}

// Put outcome states.
const (
	PutCompleted = "COMPLETED"
	PutFailed    = "FAILED"
)
