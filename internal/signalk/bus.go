package signalk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/marine-forecast/internal/geo"
	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/mqtt"
	"github.com/i474232898/marine-forecast/internal/mqtt/topic"
)

const qos = 1

// Handler receives navigation observations and PUT requests from the bus.
type Handler interface {
	HandlePosition(p geo.Position)
	HandleHeading(radians float64)
	HandleSpeed(metersPerSecond float64)
	HandlePut(ctx context.Context, path string, value json.RawMessage) error
}

// Bus is the vessel data bus carried over MQTT.
type Bus struct {
	client mqtt.Client
	topics *topic.Builder
	vessel string
	now    func() time.Time
}

// NewBus returns a Bus for vesselID.
func NewBus(client mqtt.Client, topics *topic.Builder, vesselID string) *Bus {
	return &Bus{client: client, topics: topics, vessel: vesselID, now: time.Now}
}

// Publish sends d on the vessel delta topic.
func (b *Bus) Publish(ctx context.Context, d Delta) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode delta: %w", err)
	}
	return b.client.Publish(ctx, b.topics.Delta(b.vessel), qos, false, payload)
}

// Start subscribes h to the navigation and PUT topics.
func (b *Bus) Start(ctx context.Context, h Handler) error {
	if err := b.client.Subscribe(ctx, b.topics.Navigation(b.vessel), qos, b.navigationHandler(h)); err != nil {
		return fmt.Errorf("subscribe navigation: %w", err)
	}
	if err := b.client.Subscribe(ctx, b.topics.Put(b.vessel), qos, b.putHandler(h)); err != nil {
		return fmt.Errorf("subscribe put: %w", err)
	}
	return nil
}

type latLon struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (b *Bus) navigationHandler(h Handler) mqtt.MessageHandler {
	return func(_ context.Context, name string, payload []byte) {
		var d Delta
		if err := json.Unmarshal(payload, &d); err != nil {
			log.Warn("Ignoring malformed navigation delta", "topic", name, "reason", err.Error())
			return
		}

		for _, u := range d.Updates {
			ts := u.Timestamp
			if ts.IsZero() {
				ts = b.now()
			}
			for _, v := range u.Values {
				raw, err := json.Marshal(v.Value)
				if err != nil {
					continue
				}
				switch v.Path {
				case PathPosition:
					var p latLon
					if err := json.Unmarshal(raw, &p); err != nil || p.Latitude == nil || p.Longitude == nil {
						log.Warn("Ignoring malformed position", "value", string(raw))
						continue
					}
					h.HandlePosition(geo.Position{Latitude: *p.Latitude, Longitude: *p.Longitude, Timestamp: ts})
				case PathHeadingTrue:
					if f, ok := number(raw); ok {
						h.HandleHeading(f)
					}
				case PathSpeedOverGround:
					if f, ok := number(raw); ok {
						h.HandleSpeed(f)
					}
				}
			}
		}
	}
}

func number(raw []byte) (float64, bool) {
	var f *float64
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return 0, false
	}
	return *f, true
}

func (b *Bus) putHandler(h Handler) mqtt.MessageHandler {
	return func(ctx context.Context, name string, payload []byte) {
		var req PutRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Warn("Ignoring malformed PUT request", "topic", name, "reason", err.Error())
			return
		}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}

		resp := PutResponse{RequestID: req.RequestID, State: PutCompleted, StatusCode: 200}
		if err := h.HandlePut(ctx, req.Path, req.Value); err != nil {
			resp.State = PutFailed
			resp.StatusCode = 400
			resp.Message = err.Error()
		}

		out, err := json.Marshal(resp)
		if err != nil {
			log.Error(err, "Failed to encode PUT response", "requestId", req.RequestID)
			return
		}
		if err := b.client.Publish(ctx, b.topics.PutAck(b.vessel), qos, false, out); err != nil {
			log.Error(err, "Failed to publish PUT response", "requestId", req.RequestID)
		}
	}
}
