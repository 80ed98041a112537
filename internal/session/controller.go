// Package session owns the lifecycle of one forecasting session: it
// consumes navigation observations, runs the timers and decides when and
// how to fetch.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"

	"github.com/i474232898/marine-forecast/internal/forecast"
	"github.com/i474232898/marine-forecast/internal/geo"
	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/quota"
	"github.com/i474232898/marine-forecast/internal/signalk"
)

var (
	ErrNoAPIKey       = errors.New("API key not configured")
	ErrNoPackages     = errors.New("no forecast packages enabled")
	ErrInvalidCommand = errors.New("value must be a boolean")
	ErrUnsupportedPut = errors.New("path is not writable")
)

// Job names.
const (
	JobInitialQuota    = "quota-initial"
	JobInitialForecast = "forecast-initial"
	JobForecast        = "forecast"
	JobQuota           = "quota"
)

// Settings configures a session.
type Settings struct {
	APIKey     string
	Interval   time.Duration
	Selections forecast.Selections
	Altitude   float64
	MaxHours   int
	MaxDays    int

	// PositionSubscription lets position observations trigger fetches.
	PositionSubscription bool
	AutoEngage           bool
	ThresholdKnots       float64

	QuotaInterval     time.Duration
	InitialQuotaDelay time.Duration
	InitialFetchDelay time.Duration
	CycleTimeout      time.Duration
}

func (s *Settings) setDefaults() {
	if s.QuotaInterval == 0 {
		s.QuotaInterval = 6 * time.Hour
	}
	if s.InitialQuotaDelay == 0 {
		s.InitialQuotaDelay = 5 * time.Second
	}
	if s.InitialFetchDelay == 0 {
		s.InitialFetchDelay = 10 * time.Second
	}
}

// Fetcher runs forecast cycles.
type Fetcher interface {
	FetchStationary(ctx context.Context, pos geo.Position, p forecast.Params) (forecast.Result, error)
	FetchMoving(ctx context.Context, m forecast.Motion, p forecast.Params) (forecast.Result, error)
}

// UsageChecker runs quota checks.
type UsageChecker interface {
	Check(ctx context.Context) (quota.Summary, error)
	Reset()
}

// Scheduler runs the session timers.
type Scheduler interface {
	Every(name string, interval time.Duration, fn func()) error
	After(name string, delay time.Duration, fn func()) error
	Start()
	Stop()
}

type trigger string

const (
	triggerInitial  trigger = "initial"
	triggerTimer    trigger = "timer"
	triggerPosition trigger = "position"
)

// Controller is the session. All state lives behind mu; fetch cycles run
// on their own goroutine with a snapshot taken when they were dispatched.
type Controller struct {
	settings Settings
	fetcher  Fetcher
	usage    UsageChecker
	sched    Scheduler
	bus      signalk.Publisher
	now      func() time.Time

	lifecycle *fsm.FSM

	mu     sync.Mutex
	state  State
	status string
	ctx    context.Context
	cancel context.CancelFunc

	fetching atomic.Bool
	wg       sync.WaitGroup
}

var _ signalk.Handler = (*Controller)(nil)

// NewController creates a stopped session.
func NewController(settings Settings, fetcher Fetcher, usage UsageChecker, sched Scheduler, bus signalk.Publisher) *Controller {
	settings.setDefaults()
	return &Controller{
		settings:  settings,
		fetcher:   fetcher,
		usage:     usage,
		sched:     sched,
		bus:       bus,
		now:       time.Now,
		lifecycle: newLifecycle(),
		status:    "Not started",
	}
}

// Start validates the configuration and schedules the timers. ctx bounds
// the whole session; Stop cancels it early.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lifecycle.Event(ctx, EventStart); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	if err := c.validate(); err != nil {
		c.status = err.Error()
		_ = c.lifecycle.Event(ctx, EventFail)
		log.Error(err, "Session configuration invalid")
		return err
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	jobs := []struct {
		name   string
		period bool
		d      time.Duration
		fn     func()
	}{
		{JobInitialQuota, false, c.settings.InitialQuotaDelay, c.checkUsage},
		{JobForecast, true, c.settings.Interval, func() { c.dispatch(triggerTimer) }},
		{JobQuota, true, c.settings.QuotaInterval, c.checkUsage},
		{JobInitialForecast, false, c.settings.InitialFetchDelay, func() { c.dispatch(triggerInitial) }},
	}
	for _, j := range jobs {
		var err error
		if j.period {
			err = c.sched.Every(j.name, j.d, j.fn)
		} else {
			err = c.sched.After(j.name, j.d, j.fn)
		}
		if err != nil {
			c.sched.Stop()
			c.cancel()
			c.status = "Failed to schedule " + j.name
			_ = c.lifecycle.Event(ctx, EventFail)
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	c.sched.Start()

	if err := c.lifecycle.Event(ctx, EventReady); err != nil {
		return fmt.Errorf("activate session: %w", err)
	}
	c.status = "Started"
	log.Info("Session started",
		"interval", c.settings.Interval,
		"packages", c.settings.Selections.ProviderIDs(),
		"maxHours", c.settings.MaxHours,
		"maxDays", c.settings.MaxDays,
	)
	return nil
}

func (c *Controller) validate() error {
	if c.settings.APIKey == "" {
		return ErrNoAPIKey
	}
	if len(c.settings.Selections) == 0 {
		return ErrNoPackages
	}
	return nil
}

// Stop cancels the timers and any in-flight cycle and resets the state.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sched.Stop()
	c.usage.Reset()
	c.state = State{}
	c.status = "Stopped"

	if c.lifecycle.Can(EventStop) {
		_ = c.lifecycle.Event(context.Background(), EventStop)
	}
}

// Wait blocks until every dispatched cycle has returned.
func (c *Controller) Wait() { c.wg.Wait() }

// Current returns the lifecycle state.
func (c *Controller) Current() string { return c.lifecycle.Current() }

// Status is a human-readable summary of the last thing the session did.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// HandlePosition records a position observation and, when position
// subscription is enabled, may trigger a fetch.
func (c *Controller) HandlePosition(p geo.Position) {
	c.mu.Lock()
	c.state.Position = &p
	sub := c.settings.PositionSubscription
	c.mu.Unlock()

	if sub {
		c.dispatch(triggerPosition)
	}
}

// HandleHeading records the true heading in radians.
func (c *Controller) HandleHeading(radians float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Heading = &radians
}

// HandleSpeed records speed over ground in m/s and auto-engages the moving
// forecast once the vessel starts moving. It never disengages.
func (c *Controller) HandleSpeed(metersPerSecond float64) {
	c.mu.Lock()
	c.state.Speed = &metersPerSecond
	engage := c.settings.AutoEngage && !c.state.Engaged && geo.IsMoving(metersPerSecond, c.settings.ThresholdKnots)
	if engage {
		c.state.Engaged = true
	}
	ctx := c.sessionContext()
	c.mu.Unlock()

	if engage {
		log.Info("Vessel moving, engaging moving forecast", "speed", metersPerSecond)
		c.echoEngagement(ctx, true)
	}
}

// SetEngagement sets the moving-forecast flag. Only booleans are accepted.
func (c *Controller) SetEngagement(ctx context.Context, v any) error {
	engaged, ok := v.(bool)
	if !ok {
		return ErrInvalidCommand
	}

	c.mu.Lock()
	c.state.Engaged = engaged
	c.mu.Unlock()

	log.Info("Moving forecast engagement set", "engaged", engaged)
	c.echoEngagement(ctx, engaged)
	return nil
}

// HandlePut applies a bus PUT request.
func (c *Controller) HandlePut(ctx context.Context, path string, value json.RawMessage) error {
	if path != signalk.PathMovingEngaged {
		return fmt.Errorf("%w: %s", ErrUnsupportedPut, path)
	}
	v, err := decodeValue(value)
	if err != nil {
		return ErrInvalidCommand
	}
	return c.SetEngagement(ctx, v)
}

func decodeValue(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Controller) echoEngagement(ctx context.Context, engaged bool) {
	d := signalk.NewDelta(signalk.SourceControl, c.now(), signalk.PathValue{Path: signalk.PathMovingEngaged, Value: engaged})
	if err := c.bus.Publish(ctx, d); err != nil {
		log.Error(err, "Failed to publish engagement state")
	}
}

// sessionContext must be called with mu held.
func (c *Controller) sessionContext() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// dispatch is the single fetch decision point for every trigger.
func (c *Controller) dispatch(t trigger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lifecycle.Current() != StateActive {
		return
	}
	if c.state.Position == nil {
		c.status = "Waiting for vessel position"
		log.Debug("No position yet, skipping forecast", "trigger", t)
		return
	}
	st := c.state.clone()
	if t == triggerPosition && !ShouldUpdate(*st.Position, st, c.settings.Interval, c.now()) {
		return
	}
	if !c.fetching.CompareAndSwap(false, true) {
		log.Debug("Forecast cycle in flight, skipping trigger", "trigger", t)
		return
	}

	ctx := c.ctx
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.fetching.Store(false)
		c.runCycle(ctx, t, st)
	}()
}

func (c *Controller) params() forecast.Params {
	return forecast.Params{
		Selections: c.settings.Selections,
		Altitude:   c.settings.Altitude,
		MaxHours:   c.settings.MaxHours,
		MaxDays:    c.settings.MaxDays,
	}
}

// movingEligible decides between the moving and stationary paths.
func (c *Controller) movingEligible(st State) bool {
	return st.Heading != nil && st.Speed != nil &&
		geo.IsMoving(*st.Speed, c.settings.ThresholdKnots) && st.Engaged
}

func (c *Controller) runCycle(sessionCtx context.Context, t trigger, st State) {
	ctx := sessionCtx
	if c.settings.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.CycleTimeout)
		defer cancel()
	}

	var (
		res    forecast.Result
		err    error
		moving = c.movingEligible(st)
	)
	log.Info("Fetching forecast", "trigger", t, "moving", moving,
		"lat", st.Position.Latitude, "lon", st.Position.Longitude)

	if moving {
		res, err = c.fetcher.FetchMoving(ctx, forecast.Motion{
			Position: *st.Position,
			Heading:  *st.Heading,
			Speed:    *st.Speed,
		}, c.params())
	} else {
		res, err = c.fetcher.FetchStationary(ctx, *st.Position, c.params())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stopped while in flight: the state has already been reset.
	if sessionCtx.Err() != nil || c.lifecycle.Current() != StateActive {
		return
	}
	if err != nil && res.Records == 0 {
		c.status = "Forecast failed: " + err.Error()
		log.Error(err, "Forecast cycle failed", "trigger", t)
		return
	}

	// A partly published cycle still counts, so the next position update
	// does not repeat the whole request set.
	now := c.now()
	c.state.LastForecast = now
	c.state.LastForecastPosition = st.Position
	if err != nil {
		c.status = "Forecast partially updated: " + err.Error()
		log.Error(err, "Forecast cycle partially failed", "trigger", t, "records", res.Records)
		return
	}
	c.status = cycleStatus(res, c.settings.Selections, now)
	log.Info("Forecast published", "records", res.Records, "moving", res.Moving, "fallback", res.FellBack, "location", res.Location)
}

func cycleStatus(res forecast.Result, sels forecast.Selections, now time.Time) string {
	var pkgs []string
	seen := make(map[forecast.Package]bool)
	for _, s := range sels {
		if !seen[s.Package] {
			seen[s.Package] = true
			pkgs = append(pkgs, string(s.Package))
		}
	}
	at := now.UTC().Format("15:04 UTC")
	switch {
	case res.FellBack:
		return fmt.Sprintf("Moving forecast failed, used stationary fallback (%s) at %s", strings.Join(pkgs, ", "), at)
	case res.Moving:
		return fmt.Sprintf("Moving forecast updated (%s) at %s", strings.Join(pkgs, ", "), at)
	default:
		return fmt.Sprintf("Forecast updated (%s) at %s", strings.Join(pkgs, ", "), at)
	}
}

func (c *Controller) checkUsage() {
	c.mu.Lock()
	if c.lifecycle.Current() != StateActive {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	s, err := c.usage.Check(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.lifecycle.Current() != StateActive {
		return
	}
	if err != nil && s.CheckedAt.IsZero() {
		log.Error(err, "Usage check failed")
		return
	}
	if err != nil {
		log.Error(err, "Usage check partially failed")
	}
	c.state.LastAccountCheck = c.now()
	c.state.Usage = &s
}
