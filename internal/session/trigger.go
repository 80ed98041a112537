package session

import (
	"time"

	"github.com/i474232898/marine-forecast/internal/geo"
)

// UpdateDistance is how far, in meters, the vessel may move from the last
// forecast position before a new forecast is due (about 5 nautical miles).
const UpdateDistance = 9260.0

// ShouldUpdate reports whether a position observation warrants a new
// forecast given the state snapshot st.
func ShouldUpdate(pos geo.Position, st State, interval time.Duration, now time.Time) bool {
	if st.LastForecastPosition == nil || st.LastForecast.IsZero() {
		return true
	}
	if now.Sub(st.LastForecast) >= interval {
		return true
	}
	return geo.Distance(*st.LastForecastPosition, pos) > UpdateDistance
}
