// Package config loads service options from defaults, an optional config
// file, the environment (including a .env file) and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/i474232898/marine-forecast/internal/forecast"
	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/meteoblue"
)

// EnvPrefix prefixes every environment variable, e.g. MARINE_FORECAST_ALTITUDE.
const EnvPrefix = "MARINE_FORECAST"

// MinForecastInterval is the shortest allowed forecast interval in minutes.
const MinForecastInterval = 30

// Options is the full service configuration.
type Options struct {
	APIKey string `json:"-" mapstructure:"api-key"`

	// ForecastInterval is in minutes.
	ForecastInterval int     `json:"forecast-interval" mapstructure:"forecast-interval" validate:"gte=1"`
	Altitude         float64 `json:"altitude" mapstructure:"altitude"`

	Packages PackageOptions `json:"packages" mapstructure:"packages"`

	EnablePositionSubscription bool    `json:"enable-position-subscription" mapstructure:"enable-position-subscription"`
	MaxForecastHours           int     `json:"max-forecast-hours" mapstructure:"max-forecast-hours" validate:"min=1,max=168"`
	MaxForecastDays            int     `json:"max-forecast-days" mapstructure:"max-forecast-days" validate:"min=1,max=14"`
	EnableAutoMovingForecast   bool    `json:"enable-auto-moving-forecast" mapstructure:"enable-auto-moving-forecast"`
	MovingSpeedThreshold       float64 `json:"moving-speed-threshold" mapstructure:"moving-speed-threshold" validate:"gte=0.1,lte=10"`
	EstimatedMonthlyQuota      int64   `json:"estimated-monthly-quota" mapstructure:"estimated-monthly-quota" validate:"gt=0"`

	Provider ProviderOptions `json:"provider" mapstructure:"provider"`
	MQTT     MQTTOptions     `json:"mqtt" mapstructure:"mqtt"`
	HTTP     HTTPOptions     `json:"http" mapstructure:"http"`
	Log      *log.Options    `json:"log" mapstructure:"log" validate:"-"`
}

// PackageOptions enables packages per cadence. Trend has no hourly series.
type PackageOptions struct {
	BasicHourly  bool `json:"basic-hourly" mapstructure:"basic-hourly"`
	BasicDaily   bool `json:"basic-daily" mapstructure:"basic-daily"`
	WindHourly   bool `json:"wind-hourly" mapstructure:"wind-hourly"`
	WindDaily    bool `json:"wind-daily" mapstructure:"wind-daily"`
	SeaHourly    bool `json:"sea-hourly" mapstructure:"sea-hourly"`
	SeaDaily     bool `json:"sea-daily" mapstructure:"sea-daily"`
	SolarHourly  bool `json:"solar-hourly" mapstructure:"solar-hourly"`
	SolarDaily   bool `json:"solar-daily" mapstructure:"solar-daily"`
	AgroHourly   bool `json:"agro-hourly" mapstructure:"agro-hourly"`
	AgroDaily    bool `json:"agro-daily" mapstructure:"agro-daily"`
	CloudsHourly bool `json:"clouds-hourly" mapstructure:"clouds-hourly"`
	CloudsDaily  bool `json:"clouds-daily" mapstructure:"clouds-daily"`
	TrendDaily   bool `json:"trend-daily" mapstructure:"trend-daily"`
}

// ProviderOptions configures the meteoblue client.
type ProviderOptions struct {
	BaseURL         string        `json:"base-url" mapstructure:"base-url" validate:"required,url"`
	UsageURL        string        `json:"usage-url" mapstructure:"usage-url" validate:"required,url"`
	HTTPTimeout     time.Duration `json:"http-timeout" mapstructure:"http-timeout" validate:"gt=0"`
	RequestInterval time.Duration `json:"request-interval" mapstructure:"request-interval" validate:"gte=0"`
	MaxRetries      int           `json:"max-retries" mapstructure:"max-retries" validate:"gte=0,lte=10"`
}

// MQTTOptions configures the vessel data bus connection.
type MQTTOptions struct {
	Broker             string        `json:"broker" mapstructure:"broker" validate:"required,url"`
	Username           string        `json:"username" mapstructure:"username"`
	Password           string        `json:"-" mapstructure:"password"`
	ClientID           string        `json:"client-id" mapstructure:"client-id"`
	TopicRoot          string        `json:"topic-root" mapstructure:"topic-root" validate:"required"`
	VesselID           string        `json:"vessel-id" mapstructure:"vessel-id" validate:"required"`
	KeepAlive          time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout     time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	InsecureSkipVerify bool          `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`
}

// HTTPOptions configures the API server.
type HTTPOptions struct {
	Addr        string        `json:"addr" mapstructure:"addr" validate:"required"`
	StoreMaxAge time.Duration `json:"store-max-age" mapstructure:"store-max-age" validate:"gte=0"`
}

// NewOptions returns the defaults.
func NewOptions() *Options {
	return &Options{
		ForecastInterval: 120,
		Altitude:         15,
		Packages: PackageOptions{
			BasicHourly: true,
			BasicDaily:  true,
		},
		EnablePositionSubscription: true,
		MaxForecastHours:           72,
		MaxForecastDays:            10,
		EnableAutoMovingForecast:   true,
		MovingSpeedThreshold:       1.0,
		EstimatedMonthlyQuota:      10_000_000,
		Provider: ProviderOptions{
			BaseURL:         meteoblue.DefaultBaseURL,
			UsageURL:        meteoblue.DefaultUsageURL,
			HTTPTimeout:     30 * time.Second,
			RequestInterval: time.Second,
			MaxRetries:      3,
		},
		MQTT: MQTTOptions{
			Broker:         "tcp://localhost:1883",
			TopicRoot:      "signalk/v1",
			VesselID:       "self",
			KeepAlive:      60 * time.Second,
			ConnectTimeout: 5 * time.Second,
		},
		HTTP: HTTPOptions{
			Addr:        ":8080",
			StoreMaxAge: 0,
		},
		Log: log.NewOptions(),
	}
}

// AddFlags binds every option to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Optional config file (yaml, json or toml).")
	fs.StringVar(&o.APIKey, "api-key", o.APIKey, "meteoblue API key (also read from METEOBLUE_API_KEY).")
	fs.IntVar(&o.ForecastInterval, "forecast-interval", o.ForecastInterval, "Minutes between scheduled forecasts; values below 30 are raised to 30.")
	fs.Float64Var(&o.Altitude, "altitude", o.Altitude, "Altitude in meters sent with forecast requests.")

	p := &o.Packages
	fs.BoolVar(&p.BasicHourly, "packages.basic-hourly", p.BasicHourly, "Enable the hourly basic package.")
	fs.BoolVar(&p.BasicDaily, "packages.basic-daily", p.BasicDaily, "Enable the daily basic package.")
	fs.BoolVar(&p.WindHourly, "packages.wind-hourly", p.WindHourly, "Enable the hourly wind package.")
	fs.BoolVar(&p.WindDaily, "packages.wind-daily", p.WindDaily, "Enable the daily wind package.")
	fs.BoolVar(&p.SeaHourly, "packages.sea-hourly", p.SeaHourly, "Enable the hourly sea package.")
	fs.BoolVar(&p.SeaDaily, "packages.sea-daily", p.SeaDaily, "Enable the daily sea package.")
	fs.BoolVar(&p.SolarHourly, "packages.solar-hourly", p.SolarHourly, "Enable the hourly solar package.")
	fs.BoolVar(&p.SolarDaily, "packages.solar-daily", p.SolarDaily, "Enable the daily solar package.")
	fs.BoolVar(&p.AgroHourly, "packages.agro-hourly", p.AgroHourly, "Enable the hourly agro package.")
	fs.BoolVar(&p.AgroDaily, "packages.agro-daily", p.AgroDaily, "Enable the daily agro package.")
	fs.BoolVar(&p.CloudsHourly, "packages.clouds-hourly", p.CloudsHourly, "Enable the hourly clouds package.")
	fs.BoolVar(&p.CloudsDaily, "packages.clouds-daily", p.CloudsDaily, "Enable the daily clouds package.")
	fs.BoolVar(&p.TrendDaily, "packages.trend-daily", p.TrendDaily, "Enable the daily trend package.")

	fs.BoolVar(&o.EnablePositionSubscription, "enable-position-subscription", o.EnablePositionSubscription, "Let position updates trigger forecasts.")
	fs.IntVar(&o.MaxForecastHours, "max-forecast-hours", o.MaxForecastHours, "Hourly periods to publish (1-168).")
	fs.IntVar(&o.MaxForecastDays, "max-forecast-days", o.MaxForecastDays, "Daily periods to publish (1-14).")
	fs.BoolVar(&o.EnableAutoMovingForecast, "enable-auto-moving-forecast", o.EnableAutoMovingForecast, "Engage the moving-vessel forecast when the vessel starts moving.")
	fs.Float64Var(&o.MovingSpeedThreshold, "moving-speed-threshold", o.MovingSpeedThreshold, "Speed in knots above which the vessel counts as moving (0.1-10).")
	fs.Int64Var(&o.EstimatedMonthlyQuota, "estimated-monthly-quota", o.EstimatedMonthlyQuota, "Estimated monthly credit quota used for usage alerts.")

	fs.StringVar(&o.Provider.BaseURL, "provider.base-url", o.Provider.BaseURL, "meteoblue packages API base URL.")
	fs.StringVar(&o.Provider.UsageURL, "provider.usage-url", o.Provider.UsageURL, "meteoblue account usage API URL.")
	fs.DurationVar(&o.Provider.HTTPTimeout, "provider.http-timeout", o.Provider.HTTPTimeout, "Timeout for a single provider request.")
	fs.DurationVar(&o.Provider.RequestInterval, "provider.request-interval", o.Provider.RequestInterval, "Minimum spacing between per-hour requests of a moving-vessel forecast.")
	fs.IntVar(&o.Provider.MaxRetries, "provider.max-retries", o.Provider.MaxRetries, "Retries for rate-limited or failed provider requests.")

	fs.StringVar(&o.MQTT.Broker, "mqtt.broker", o.MQTT.Broker, "The URL of the MQTT broker.")
	fs.StringVar(&o.MQTT.Username, "mqtt.username", o.MQTT.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.MQTT.Password, "mqtt.password", o.MQTT.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.MQTT.ClientID, "mqtt.client-id", o.MQTT.ClientID, "Explicit client ID (generated when empty).")
	fs.StringVar(&o.MQTT.TopicRoot, "mqtt.topic-root", o.MQTT.TopicRoot, "Root of every bus topic.")
	fs.StringVar(&o.MQTT.VesselID, "mqtt.vessel-id", o.MQTT.VesselID, "Vessel identifier used in bus topics.")
	fs.DurationVar(&o.MQTT.KeepAlive, "mqtt.keep-alive", o.MQTT.KeepAlive, "MQTT keep alive interval.")
	fs.DurationVar(&o.MQTT.ConnectTimeout, "mqtt.connect-timeout", o.MQTT.ConnectTimeout, "Timeout for establishing the MQTT connection.")
	fs.BoolVar(&o.MQTT.InsecureSkipVerify, "mqtt.insecure-skip-verify", o.MQTT.InsecureSkipVerify, "Skip TLS certificate verification.")

	fs.StringVar(&o.HTTP.Addr, "http.addr", o.HTTP.Addr, "Listen address of the API server.")
	fs.DurationVar(&o.HTTP.StoreMaxAge, "http.store-max-age", o.HTTP.StoreMaxAge, "Hide published forecasts older than this from the API (0 keeps them).")

	o.Log.AddFlags(fs)
}

// Load merges .env, the environment, an optional config file and the flags
// already parsed into flags, in increasing precedence after the defaults.
func Load(flags *pflag.FlagSet) (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api-key", EnvPrefix+"_API_KEY", "METEOBLUE_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	o := NewOptions()
	if err := v.Unmarshal(o); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return o, nil
}

// Complete applies derived defaults.
func (o *Options) Complete() {
	if o.ForecastInterval < MinForecastInterval {
		log.Warn("Forecast interval below minimum, raising", "configured", o.ForecastInterval, "minimum", MinForecastInterval)
		o.ForecastInterval = MinForecastInterval
	}
}

// Validate checks every bound and returns all failures joined.
func (o *Options) Validate() error {
	var errs []error

	if err := validator.New().Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}
	if o.Log != nil {
		errs = append(errs, o.Log.Validate()...)
	}
	return errors.Join(errs...)
}

// Interval is the forecast interval as a duration.
func (o *Options) Interval() time.Duration {
	return time.Duration(o.ForecastInterval) * time.Minute
}

// Selections lists the enabled packages in catalog order, hourly first.
func (o *Options) Selections() forecast.Selections {
	p := o.Packages
	enabled := map[forecast.Selection]bool{
		{Package: forecast.Basic, Cadence: forecast.Hourly}:  p.BasicHourly,
		{Package: forecast.Wind, Cadence: forecast.Hourly}:   p.WindHourly,
		{Package: forecast.Sea, Cadence: forecast.Hourly}:    p.SeaHourly,
		{Package: forecast.Solar, Cadence: forecast.Hourly}:  p.SolarHourly,
		{Package: forecast.Agro, Cadence: forecast.Hourly}:   p.AgroHourly,
		{Package: forecast.Clouds, Cadence: forecast.Hourly}: p.CloudsHourly,
		{Package: forecast.Basic, Cadence: forecast.Daily}:   p.BasicDaily,
		{Package: forecast.Wind, Cadence: forecast.Daily}:    p.WindDaily,
		{Package: forecast.Sea, Cadence: forecast.Daily}:     p.SeaDaily,
		{Package: forecast.Solar, Cadence: forecast.Daily}:   p.SolarDaily,
		{Package: forecast.Agro, Cadence: forecast.Daily}:    p.AgroDaily,
		{Package: forecast.Trend, Cadence: forecast.Daily}:   p.TrendDaily,
		{Package: forecast.Clouds, Cadence: forecast.Daily}:  p.CloudsDaily,
	}

	var out forecast.Selections
	for _, c := range []forecast.Cadence{forecast.Hourly, forecast.Daily} {
		for _, pkg := range forecast.Packages {
			sel := forecast.Selection{Package: pkg, Cadence: c}
			if enabled[sel] {
				out = append(out, sel)
			}
		}
	}
	return out
}
