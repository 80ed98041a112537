package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/metrics"
	"github.com/i474232898/marine-forecast/internal/signalk"
)

// UsageSource fetches the provider usage report.
type UsageSource interface {
	Usage(ctx context.Context) (*UsageReport, error)
}

// Monitor checks usage, publishes the summary and drives the alerts.
type Monitor struct {
	source UsageSource
	bus    signalk.Publisher
	alerts *Alerts
	limit  int64
	now    func() time.Time

	mu   sync.RWMutex
	last *Summary
}

// NewMonitor returns a Monitor measuring usage against limit credits.
func NewMonitor(source UsageSource, bus signalk.Publisher, limit int64) *Monitor {
	return &Monitor{
		source: source,
		bus:    bus,
		alerts: NewAlerts(),
		limit:  limit,
		now:    time.Now,
	}
}

// Check fetches and summarizes the usage report. On fetch failure the last
// known summary is kept and the error returned.
func (m *Monitor) Check(ctx context.Context) (Summary, error) {
	report, err := m.source.Usage(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("check usage: %w", err)
	}

	s := Summarize(report, m.limit, m.now())
	m.mu.Lock()
	m.last = &s
	m.mu.Unlock()
	metrics.QuotaUsage.Set(float64(s.UsagePercentage))

	log.Info("Checked forecast API usage",
		"credits", s.CreditsUsed,
		"limit", s.EstimatedLimit,
		"percent", s.UsagePercentage,
		"status", string(s.Status),
	)

	var errs []error
	account := signalk.NewDelta(signalk.SourceAccount, s.CheckedAt, signalk.PathValue{Path: signalk.PathAccount, Value: s})
	if err := m.bus.Publish(ctx, account); err != nil {
		errs = append(errs, fmt.Errorf("publish usage summary: %w", err))
	}

	n, err := m.alerts.Evaluate(ctx, s)
	if err != nil {
		errs = append(errs, err)
	}
	if n != nil {
		log.Warn("Forecast API usage changed band", "state", string(n.State), "percent", s.UsagePercentage)
		d := signalk.NewDelta(signalk.SourceUsage, s.CheckedAt, signalk.PathValue{Path: signalk.PathUsageAlert, Value: n})
		if err := m.bus.Publish(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("publish usage notification: %w", err))
		}
	}
	return s, errors.Join(errs...)
}

// Last returns the most recent summary, if any.
func (m *Monitor) Last() (Summary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return Summary{}, false
	}
	return *m.last, true
}

// Reset forgets the last summary and alert band.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.last = nil
	m.mu.Unlock()
	m.alerts.Reset()
}
