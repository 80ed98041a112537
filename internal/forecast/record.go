package forecast

import (
	"time"

	"github.com/i474232898/marine-forecast/internal/geo"
)

// Record is one processed forecast period for one package. Values holds
// converted numeric parameters, Labels holds text parameters. A parameter
// the provider did not supply is absent, never zero.
type Record struct {
	Package Package `json:"package"`
	Cadence Cadence `json:"cadence"`

	// Index is the period index used in published paths. Moving-vessel
	// records use the hour offset, so gaps are possible.
	Index int       `json:"index"`
	Time  time.Time `json:"time"`

	// Hourly only.
	RelativeHour int `json:"relativeHour,omitempty"`

	// Daily only.
	Date      string `json:"date,omitempty"`
	DayOfWeek string `json:"dayOfWeek,omitempty"`

	Values map[string]float64 `json:"values"`
	Labels map[string]string  `json:"labels,omitempty"`

	// Predicted is set for records produced along a projected track.
	Predicted *geo.Position `json:"predicted,omitempty"`
}

// VesselMoving reports whether the record came from the moving-vessel path.
func (r Record) VesselMoving() bool { return r.Predicted != nil }
