package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/i474232898/marine-forecast/internal/api/http"
	"github.com/i474232898/marine-forecast/internal/config"
	"github.com/i474232898/marine-forecast/internal/forecast"
	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/meteoblue"
	"github.com/i474232898/marine-forecast/internal/metrics"
	"github.com/i474232898/marine-forecast/internal/mqtt"
	"github.com/i474232898/marine-forecast/internal/mqtt/topic"
	"github.com/i474232898/marine-forecast/internal/quota"
	"github.com/i474232898/marine-forecast/internal/scheduler"
	"github.com/i474232898/marine-forecast/internal/session"
	"github.com/i474232898/marine-forecast/internal/signalk"
	"github.com/i474232898/marine-forecast/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server owns every long-lived component of the process.
type Server struct {
	opts       *config.Options
	broker     mqtt.Client
	bus        *signalk.Bus
	controller *session.Controller
	http       *fiber.App
}

// NewServer assembles the components described by opts. Nothing connects
// until Run.
func NewServer(opts *config.Options) (*Server, error) {
	broker, err := mqtt.NewClient(&mqtt.ClientConfig{
		BrokerURL:          opts.MQTT.Broker,
		ClientID:           opts.MQTT.ClientID,
		Username:           opts.MQTT.Username,
		Password:           opts.MQTT.Password,
		KeepAlive:          uint16(opts.MQTT.KeepAlive / time.Second),
		ConnectTimeout:     opts.MQTT.ConnectTimeout,
		InsecureSkipVerify: opts.MQTT.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}
	bus := signalk.NewBus(broker, topic.NewBuilder(opts.MQTT.TopicRoot), opts.MQTT.VesselID)

	provider := meteoblue.NewClient(&http.Client{Timeout: opts.Provider.HTTPTimeout}, meteoblue.Config{
		APIKey:   opts.APIKey,
		BaseURL:  opts.Provider.BaseURL,
		UsageURL: opts.Provider.UsageURL,
		Backoff: meteoblue.BackoffConfig{
			MaxRetries:      opts.Provider.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	})

	forecasts := store.NewMemoryStore(opts.HTTP.StoreMaxAge)
	fetcher := forecast.NewService(provider, forecast.NewPublisher(bus, forecasts),
		forecast.WithRequestInterval(opts.Provider.RequestInterval))
	monitor := quota.NewMonitor(provider, bus, opts.EstimatedMonthlyQuota)

	selections := opts.Selections()
	controller := session.NewController(session.Settings{
		APIKey:               opts.APIKey,
		Interval:             opts.Interval(),
		Selections:           selections,
		Altitude:             opts.Altitude,
		MaxHours:             opts.MaxForecastHours,
		MaxDays:              opts.MaxForecastDays,
		PositionSubscription: opts.EnablePositionSubscription,
		AutoEngage:           opts.EnableAutoMovingForecast,
		ThresholdKnots:       opts.MovingSpeedThreshold,
		CycleTimeout:         opts.Interval(),
	}, fetcher, monitor, scheduler.New(), bus)

	app := fiber.New(fiber.Config{
		AppName:               "marine-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	if opts.Log.Level == "debug" {
		app.Use(logger.New())
	}
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Session:    controller,
		Forecasts:  forecasts,
		Account:    monitor,
		Selections: selections,
		Registry:   metrics.Registry,
	})

	return &Server{
		opts:       opts,
		broker:     broker,
		bus:        bus,
		controller: controller,
		http:       app,
	}, nil
}

// Run starts the session and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.broker.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt client: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting HTTP server", "addr", s.opts.HTTP.Addr)
		if err := s.http.Listen(s.opts.HTTP.Addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Subscribing waits for the first broker connection.
	g.Go(func() error {
		if err := s.bus.Start(gctx, s.controller); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		return nil
	})

	if err := s.controller.Start(gctx); err != nil {
		// The session stays in the error state and reports it on /api/v1/status.
		log.Error(err, "Forecast session not started")
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		s.controller.Stop()
		s.controller.Wait()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.broker.Disconnect(shutdownCtx)
		if err := s.http.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error(err, "Error during HTTP shutdown")
		}
		return nil
	})

	return g.Wait()
}
