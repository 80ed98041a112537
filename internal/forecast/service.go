package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/i474232898/marine-forecast/internal/geo"
	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/metrics"
)

var (
	// ErrNoPackages is returned when a fetch is attempted with an empty selection.
	ErrNoPackages = errors.New("no forecast packages enabled")
	// ErrMissingSeries is returned when the provider omitted a requested series.
	ErrMissingSeries = errors.New("provider response lacks requested series")
)

const (
	maxProviderDays = 14
	// bufferHours pads each moving-path request past the target hour.
	bufferHours = 2
)

// Provider fetches raw forecasts for a single position.
type Provider interface {
	Forecast(ctx context.Context, req Request) (*RawForecastResponse, error)
}

// Request is one provider call.
type Request struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Packages  Selections
	// Days asks for this many provider days; 0 leaves the provider default.
	Days int
}

// Params configures one fetch cycle.
type Params struct {
	Selections Selections
	Altitude   float64
	MaxHours   int
	MaxDays    int
}

// Motion is the vessel state a moving-vessel cycle projects from.
type Motion struct {
	Position geo.Position
	Heading  float64 // radians true
	Speed    float64 // m/s over ground
}

// Result summarizes a completed cycle.
type Result struct {
	Moving   bool
	FellBack bool
	Records  int
	Location string
}

// Service runs stationary and moving-vessel fetch cycles.
type Service struct {
	provider Provider
	pub      *Publisher
	pacer    *rate.Limiter
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock used to trim series.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRequestInterval sets the minimum spacing between per-hour provider
// requests in the moving path. Zero disables spacing.
func WithRequestInterval(d time.Duration) Option {
	return func(s *Service) { s.pacer = rate.NewLimiter(rate.Every(d), 1) }
}

// NewService creates a Service.
func NewService(provider Provider, pub *Publisher, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		pub:      pub,
		pacer:    rate.NewLimiter(rate.Every(time.Second), 1),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FetchStationary requests every selected package once at pos and publishes
// the normalized series.
func (s *Service) FetchStationary(ctx context.Context, pos geo.Position, p Params) (Result, error) {
	if len(p.Selections) == 0 {
		return Result{}, ErrNoPackages
	}
	now := s.now()

	resp, err := s.provider.Forecast(ctx, Request{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Altitude:  p.Altitude,
		Packages:  p.Selections,
		Days:      requestDays(now, p),
	})
	if err != nil {
		return Result{}, fmt.Errorf("fetch forecast: %w", err)
	}

	res := Result{Location: resp.Metadata.Name}
	var errs []error
	if err := s.pub.PublishMetadata(ctx, resp.Metadata); err != nil {
		errs = append(errs, err)
	}

	for _, sel := range p.Selections {
		var records []Record
		switch sel.Cadence {
		case Hourly:
			if resp.Hourly == nil {
				log.Warn("Provider returned no hourly series", "package", sel)
				continue
			}
			records = NormalizeHourly(resp.Hourly, p.MaxHours, sel.Package, now)
		case Daily:
			if resp.Daily == nil {
				log.Warn("Provider returned no daily series", "package", sel)
				continue
			}
			records = NormalizeDaily(resp.Daily, p.MaxDays, sel.Package)
		}
		if err := s.pub.PublishRecords(ctx, sel, records); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Records += len(records)
	}
	return res, errors.Join(errs...)
}

// FetchMoving projects the vessel track hour by hour, requesting each hour
// at its predicted position. Any failure in the per-hour loop abandons the
// track and falls back to one stationary fetch at the current position.
// Daily packages are always fetched at the current position.
func (s *Service) FetchMoving(ctx context.Context, m Motion, p Params) (Result, error) {
	hourly := p.Selections.Filter(Hourly)
	if len(hourly) == 0 {
		return s.FetchStationary(ctx, m.Position, p)
	}

	res, err := s.movingHourly(ctx, m, p, hourly)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Error(err, "Moving-vessel forecast failed, falling back to stationary fetch")
		metrics.MovingFallbacks.Inc()
		res, err = s.FetchStationary(ctx, m.Position, p)
		res.FellBack = true
		if err != nil {
			return res, fmt.Errorf("stationary fallback: %w", err)
		}
		return res, nil
	}

	if daily := p.Selections.Filter(Daily); len(daily) > 0 {
		dp := p
		dp.Selections = daily
		dres, err := s.FetchStationary(ctx, m.Position, dp)
		res.Records += dres.Records
		if err != nil {
			return res, fmt.Errorf("daily forecast: %w", err)
		}
	}
	return res, nil
}

func (s *Service) movingHourly(ctx context.Context, m Motion, p Params, hourly Selections) (Result, error) {
	now := s.now()

	tracks := make(map[Selection][]Record, len(hourly))
	var meta *Metadata

	for h := 0; h < p.MaxHours; h++ {
		if h > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				return Result{}, err
			}
		}

		predicted := geo.Predict(m.Position, m.Heading, m.Speed, float64(h))

		resp, err := s.provider.Forecast(ctx, Request{
			Latitude:  predicted.Latitude,
			Longitude: predicted.Longitude,
			Altitude:  p.Altitude,
			Packages:  hourly,
			Days:      daysCovering(now, h+bufferHours),
		})
		if err != nil {
			return Result{}, fmt.Errorf("hour %d: %w", h, err)
		}
		if resp.Hourly == nil {
			return Result{}, fmt.Errorf("hour %d: %w", h, ErrMissingSeries)
		}
		target := resp.Hourly.currentHour(now).Add(time.Duration(h) * time.Hour)
		if meta == nil {
			md := resp.Metadata
			meta = &md
		}

		for _, sel := range hourly {
			records := NormalizeHourly(resp.Hourly, h+bufferHours+1, sel.Package, now)
			rec, ok := matchHour(records, target)
			if !ok {
				log.Debug("No period for target hour, leaving gap", "package", sel, "hour", h, "target", target)
				continue
			}
			pos := predicted
			rec.Index = h
			rec.Predicted = &pos
			tracks[sel] = append(tracks[sel], rec)
		}
	}

	res := Result{Moving: true}
	if meta != nil {
		res.Location = meta.Name
		if err := s.pub.PublishMetadata(ctx, *meta); err != nil {
			return res, err
		}
	}
	for _, sel := range hourly {
		if err := s.pub.PublishRecords(ctx, sel, tracks[sel]); err != nil {
			return res, err
		}
		res.Records += len(tracks[sel])
	}
	return res, nil
}

// matchHour finds the record for target. Both are in the series zone.
func matchHour(records []Record, target time.Time) (Record, bool) {
	t := target
	for _, r := range records {
		rt := r.Time.In(t.Location())
		if rt.Year() == t.Year() && rt.Month() == t.Month() && rt.Day() == t.Day() && rt.Hour() == t.Hour() {
			return r, true
		}
	}
	return Record{}, false
}

// daysCovering returns how many provider days reach hours past now. The
// provider's day starts at its local midnight, which may be up to a day
// away from UTC, hence the extra day.
func daysCovering(now time.Time, hours int) int {
	days := (now.UTC().Hour()+hours)/24 + 2
	return min(max(days, 1), maxProviderDays)
}

func requestDays(now time.Time, p Params) int {
	var days int
	if len(p.Selections.Filter(Hourly)) > 0 {
		days = daysCovering(now, p.MaxHours)
	}
	if len(p.Selections.Filter(Daily)) > 0 {
		days = max(days, p.MaxDays)
	}
	return min(days, maxProviderDays)
}
