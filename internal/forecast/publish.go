package forecast

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/i474232898/marine-forecast/internal/metrics"
	"github.com/i474232898/marine-forecast/internal/signalk"
)

// Store keeps the most recently published set per selection.
type Store interface {
	SaveForecast(sel Selection, records []Record)
	SaveMetadata(m Metadata)
}

// Publisher turns processed records into bus deltas.
type Publisher struct {
	bus   signalk.Publisher
	store Store
	now   func() time.Time
}

// NewPublisher returns a Publisher; store may be nil.
func NewPublisher(bus signalk.Publisher, store Store) *Publisher {
	return &Publisher{bus: bus, store: store, now: time.Now}
}

// PublishMetadata publishes the forecast location and model run.
func (p *Publisher) PublishMetadata(ctx context.Context, m Metadata) error {
	if p.store != nil {
		p.store.SaveMetadata(m)
	}
	value := map[string]any{
		"name":       m.Name,
		"latitude":   m.Latitude,
		"longitude":  m.Longitude,
		"height":     m.Height,
		"timezone":   m.TimezoneAbbreviation,
		"utcOffset":  m.UTCOffset,
		"modelRun":   m.ModelRunUTC,
		"modelRunAt": m.ModelRunUpdateUTC,
	}
	d := signalk.NewDelta(signalk.SourceMetadata, p.now(), signalk.PathValue{Path: signalk.PathMetadata, Value: value})
	return p.bus.Publish(ctx, d)
}

// PublishRecords publishes one value per parameter per period, labelled
// with the package source, in a single delta.
func (p *Publisher) PublishRecords(ctx context.Context, sel Selection, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	var values []signalk.PathValue
	for _, r := range records {
		values = append(values, recordValues(r)...)
	}

	d := signalk.NewDelta(sel.Package.Source(), p.now(), values...)
	if err := p.bus.Publish(ctx, d); err != nil {
		return fmt.Errorf("publish %s: %w", sel, err)
	}
	if p.store != nil {
		p.store.SaveForecast(sel, records)
	}
	metrics.RecordsPublished.WithLabelValues(string(sel.Package), string(sel.Cadence)).Add(float64(len(records)))
	return nil
}

// ParamPath is the bus path of one parameter at one period index.
func ParamPath(c Cadence, param string, index int) string {
	return signalk.PathForecastRoot + "." + string(c) + "." + param + "." + strconv.Itoa(index)
}

func recordValues(r Record) []signalk.PathValue {
	pv := func(name string, v any) signalk.PathValue {
		return signalk.PathValue{Path: ParamPath(r.Cadence, name, r.Index), Value: v}
	}

	out := make([]signalk.PathValue, 0, len(r.Values)+len(r.Labels)+5)
	if r.Cadence == Daily {
		out = append(out, pv("date", r.Date), pv("dayOfWeek", r.DayOfWeek))
	} else {
		out = append(out, pv("timestamp", r.Time.UTC().Format(time.RFC3339)), pv("relativeHour", r.RelativeHour))
	}
	for name, v := range r.Values {
		out = append(out, pv(name, v))
	}
	for name, v := range r.Labels {
		out = append(out, pv(name, v))
	}
	if r.Predicted != nil {
		out = append(out,
			pv("predictedLatitude", r.Predicted.Latitude),
			pv("predictedLongitude", r.Predicted.Longitude),
			pv("vesselMoving", true),
		)
	}
	return out
}
