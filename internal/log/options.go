package log

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Options configures the logger.
type Options struct {
	Name          string   `json:"name,omitempty" mapstructure:"name"`
	Level         string   `json:"level,omitempty" mapstructure:"level"`
	Format        string   `json:"format,omitempty" mapstructure:"format"`
	EnableColor   bool     `json:"enable-color,omitempty" mapstructure:"enable-color"`
	DisableCaller bool     `json:"disable-caller,omitempty" mapstructure:"disable-caller"`
	CallerSkip    int      `json:"caller-skip,omitempty" mapstructure:"caller-skip"`
	OutputPaths   []string `json:"output-paths,omitempty" mapstructure:"output-paths"`
}

// NewOptions returns Options with defaults suited to running in a terminal.
func NewOptions() *Options {
	return &Options{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
		// package-level helpers add two frames (helper + Std indirection)
		CallerSkip:  2,
		OutputPaths: []string{"stdout"},
	}
}

// Validate reports unusable settings.
func (o *Options) Validate() []error {
	var errs []error
	switch o.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be 'console' or 'json', got %q", o.Format))
	}
	return errs
}

// AddFlags binds the options to fs under the "log." prefix.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "log.name", o.Name, "Optional logger name.")
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level (debug, info, warn, error).")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log encoding ('console' or 'json').")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Colorize levels in console format.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Omit caller file and line.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Log sinks, e.g. stdout or a file path.")
}
