package session

import (
	"time"

	"github.com/i474232898/marine-forecast/internal/geo"
	"github.com/i474232898/marine-forecast/internal/quota"
)

// State is everything the session knows about the vessel and its last
// fetches. Pointer fields are nil until first observed.
type State struct {
	Position *geo.Position `json:"position,omitempty"`
	Heading  *float64      `json:"heading,omitempty"`
	Speed    *float64      `json:"speed,omitempty"`

	LastForecast         time.Time     `json:"lastForecast,omitempty"`
	LastForecastPosition *geo.Position `json:"lastForecastPosition,omitempty"`
	LastAccountCheck     time.Time     `json:"lastAccountCheck,omitempty"`

	Engaged bool           `json:"movingForecastEngaged"`
	Usage   *quota.Summary `json:"usage,omitempty"`
}

// clone copies st so it can be read without the session lock.
func (st State) clone() State {
	out := st
	if st.Position != nil {
		p := *st.Position
		out.Position = &p
	}
	if st.LastForecastPosition != nil {
		p := *st.LastForecastPosition
		out.LastForecastPosition = &p
	}
	if st.Heading != nil {
		h := *st.Heading
		out.Heading = &h
	}
	if st.Speed != nil {
		s := *st.Speed
		out.Speed = &s
	}
	if st.Usage != nil {
		u := *st.Usage
		out.Usage = &u
	}
	return out
}
