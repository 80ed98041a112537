package httpapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/marine-forecast/internal/forecast"
	"github.com/i474232898/marine-forecast/internal/quota"
	"github.com/i474232898/marine-forecast/internal/session"
	"github.com/i474232898/marine-forecast/internal/store"
)

var validate = validator.New()

// Session is the part of the session controller exposed over HTTP.
type Session interface {
	Current() string
	Status() string
	Snapshot() session.State
	SetEngagement(ctx context.Context, v any) error
}

// Forecasts reads the latest published sets.
type Forecasts interface {
	Latest(sel forecast.Selection) (store.Entry, error)
	Metadata() (forecast.Metadata, error)
}

// Account reads the last quota summary.
type Account interface {
	Last() (quota.Summary, bool)
}

// Deps holds what the handlers read from.
type Deps struct {
	Session    Session
	Forecasts  Forecasts
	Account    Account
	Selections forecast.Selections
	Registry   prometheus.Gatherer
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if d.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		packages := make([]string, len(d.Selections))
		for i, sel := range d.Selections {
			packages[i] = sel.ProviderID()
		}
		return c.JSON(fiber.Map{
			"state":    d.Session.Current(),
			"status":   d.Session.Status(),
			"session":  d.Session.Snapshot(),
			"packages": packages,
		})
	})

	v1.Get("/forecast/:cadence/:package", func(c *fiber.Ctx) error {
		var q forecastParams
		q.bind(c)
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sel := q.selection()
		if !forecast.Supported(sel.Package, sel.Cadence) {
			return fiber.NewError(fiber.StatusBadRequest, "package has no "+q.Cadence+" series")
		}

		entry, err := d.Forecasts.Latest(sel)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast published for "+sel.ProviderID())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast")
		}
		return c.JSON(entry)
	})

	v1.Get("/metadata", func(c *fiber.Ctx) error {
		meta, err := d.Forecasts.Metadata()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast metadata yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read metadata")
		}
		return c.JSON(meta)
	})

	v1.Get("/account", func(c *fiber.Ctx) error {
		summary, ok := d.Account.Last()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "account usage not checked yet")
		}
		return c.JSON(summary)
	})

	v1.Put("/engagement", func(c *fiber.Ctx) error {
		var body engagementBody
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "body must be a JSON object")
		}
		if body.Value == nil {
			return fiber.NewError(fiber.StatusBadRequest, "value is required")
		}

		if err := d.Session.SetEngagement(c.UserContext(), body.Value); err != nil {
			if errors.Is(err, session.ErrInvalidCommand) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to set engagement")
		}
		return c.JSON(fiber.Map{"movingForecastEngaged": body.Value})
	})
}

// forecastParams holds the path parameters of the forecast endpoint.
type forecastParams struct {
	Cadence string `validate:"required,oneof=hourly daily"`
	Package string `validate:"required,oneof=basic wind sea solar agro trend clouds"`
}

func (f *forecastParams) bind(c *fiber.Ctx) {
	f.Cadence = c.Params("cadence")
	f.Package = c.Params("package")
}

func (f forecastParams) selection() forecast.Selection {
	return forecast.Selection{
		Package: forecast.Package(f.Package),
		Cadence: forecast.Cadence(f.Cadence),
	}
}

// engagementBody is the PUT payload. Value stays untyped so non-boolean
// values reach the session and are rejected there.
type engagementBody struct {
	Value any `json:"value"`
}
