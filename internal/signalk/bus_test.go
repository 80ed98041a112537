package signalk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/marine-forecast/internal/geo"
	"github.com/i474232898/marine-forecast/internal/mqtt"
	"github.com/i474232898/marine-forecast/internal/mqtt/topic"
)

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	published []published
	handlers  map[string]mqtt.MessageHandler
}

func (c *fakeClient) Start(context.Context) error           { return nil }
func (c *fakeClient) Disconnect(context.Context)            {}
func (c *fakeClient) AwaitConnection(context.Context) error { return nil }

func (c *fakeClient) Publish(_ context.Context, topic string, _ int, _ bool, payload []byte) error {
	c.published = append(c.published, published{topic: topic, payload: payload})
	return nil
}

func (c *fakeClient) Subscribe(_ context.Context, topic string, _ int, h mqtt.MessageHandler) error {
	if c.handlers == nil {
		c.handlers = make(map[string]mqtt.MessageHandler)
	}
	c.handlers[topic] = h
	return nil
}

func (c *fakeClient) deliver(t *testing.T, topic string, v any) {
	t.Helper()
	h, ok := c.handlers[topic]
	if !ok {
		t.Fatalf("no subscription for %s", topic)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	h(context.Background(), topic, b)
}

type recordingHandler struct {
	positions []geo.Position
	headings  []float64
	speeds    []float64
	puts      []string
	putErr    error
}

func (h *recordingHandler) HandlePosition(p geo.Position) { h.positions = append(h.positions, p) }
func (h *recordingHandler) HandleHeading(r float64)       { h.headings = append(h.headings, r) }
func (h *recordingHandler) HandleSpeed(s float64)         { h.speeds = append(h.speeds, s) }

func (h *recordingHandler) HandlePut(_ context.Context, path string, _ json.RawMessage) error {
	h.puts = append(h.puts, path)
	return h.putErr
}

func newTestBus() (*Bus, *fakeClient) {
	c := &fakeClient{}
	return NewBus(c, topic.NewBuilder("signalk/v1"), "self"), c
}

func TestBusPublishesDeltaTopic(t *testing.T) {
	bus, c := newTestBus()
	d := NewDelta(SourceAccount, time.Now(), PathValue{Path: PathAccount, Value: 42})

	if err := bus.Publish(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.published) != 1 || c.published[0].topic != "signalk/v1/delta/self" {
		t.Fatalf("unexpected publishes %+v", c.published)
	}

	var got Delta
	if err := json.Unmarshal(c.published[0].payload, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Context != SelfContext || got.Updates[0].Source != SourceAccount {
		t.Fatalf("unexpected delta %+v", got)
	}
}

func TestBusRoutesNavigation(t *testing.T) {
	bus, c := newTestBus()
	h := &recordingHandler{}
	if err := bus.Start(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	c.deliver(t, "signalk/v1/nav/self", Delta{
		Context: SelfContext,
		Updates: []Update{{
			Source:    "gps",
			Timestamp: ts,
			Values: []PathValue{
				{Path: PathPosition, Value: map[string]float64{"latitude": 60.1, "longitude": 24.9}},
				{Path: PathHeadingTrue, Value: 1.57},
				{Path: PathSpeedOverGround, Value: 3.2},
				{Path: "navigation.courseOverGroundTrue", Value: 1.2},
			},
		}},
	})

	if len(h.positions) != 1 || h.positions[0].Latitude != 60.1 || !h.positions[0].Timestamp.Equal(ts) {
		t.Fatalf("unexpected positions %+v", h.positions)
	}
	if len(h.headings) != 1 || h.headings[0] != 1.57 {
		t.Fatalf("unexpected headings %v", h.headings)
	}
	if len(h.speeds) != 1 || h.speeds[0] != 3.2 {
		t.Fatalf("unexpected speeds %v", h.speeds)
	}
}

func TestBusIgnoresMalformedNavigation(t *testing.T) {
	bus, c := newTestBus()
	h := &recordingHandler{}
	if err := bus.Start(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.handlers["signalk/v1/nav/self"](context.Background(), "signalk/v1/nav/self", []byte("{not json"))
	c.deliver(t, "signalk/v1/nav/self", Delta{Updates: []Update{{Values: []PathValue{
		{Path: PathPosition, Value: map[string]float64{"latitude": 1}},
		{Path: PathSpeedOverGround, Value: nil},
	}}}})

	if len(h.positions) != 0 || len(h.speeds) != 0 {
		t.Fatalf("malformed values must be ignored: %+v", h)
	}
}

func TestBusAcknowledgesPut(t *testing.T) {
	bus, c := newTestBus()
	h := &recordingHandler{}
	if err := bus.Start(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.deliver(t, "signalk/v1/put/self", map[string]any{
		"requestId": "req-1",
		"path":      PathMovingEngaged,
		"value":     true,
	})
	h.putErr = errors.New("value must be a boolean")
	c.deliver(t, "signalk/v1/put/self", map[string]any{
		"path":  PathMovingEngaged,
		"value": "yes",
	})

	if len(c.published) != 2 {
		t.Fatalf("expected two acknowledgements, got %d", len(c.published))
	}
	var ok, failed PutResponse
	_ = json.Unmarshal(c.published[0].payload, &ok)
	_ = json.Unmarshal(c.published[1].payload, &failed)

	if c.published[0].topic != "signalk/v1/put/ack/self" {
		t.Fatalf("unexpected ack topic %s", c.published[0].topic)
	}
	if ok.RequestID != "req-1" || ok.State != PutCompleted || ok.StatusCode != 200 {
		t.Fatalf("unexpected success ack %+v", ok)
	}
	if failed.RequestID == "" || failed.State != PutFailed || failed.StatusCode != 400 || failed.Message == "" {
		t.Fatalf("unexpected failure ack %+v", failed)
	}
}
