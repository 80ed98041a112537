// Package geo implements the spherical-earth navigation math used to decide
// when and where to forecast.
package geo

import (
	"math"
	"time"

	"github.com/i474232898/marine-forecast/internal/units"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000.0

// Position is an immutable observed or predicted vessel fix.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Predict projects p along a great circle for hoursAhead hours at the given
// true heading (radians) and speed over ground (m/s). No pole handling.
func Predict(p Position, heading, speed, hoursAhead float64) Position {
	dist := speed * hoursAhead * 3600
	out := Position{
		Timestamp: p.Timestamp.Add(time.Duration(hoursAhead * float64(time.Hour))),
	}
	if dist == 0 {
		out.Latitude, out.Longitude = p.Latitude, p.Longitude
		return out
	}

	lat1 := units.DegreesToRadians(p.Latitude)
	lon1 := units.DegreesToRadians(p.Longitude)
	ang := dist / EarthRadius

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(heading))
	lon2 := lon1 + math.Atan2(
		math.Sin(heading)*math.Sin(ang)*math.Cos(lat1),
		math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2),
	)

	out.Latitude = units.RadiansToDegrees(lat2)
	out.Longitude = units.RadiansToDegrees(lon2)
	return out
}

// IsMoving reports whether speed (m/s) strictly exceeds thresholdKnots.
func IsMoving(speed, thresholdKnots float64) bool {
	return speed > units.KnotsToMetersPerSecond(thresholdKnots)
}

// Distance returns the haversine great-circle distance in meters.
func Distance(a, b Position) float64 {
	lat1 := units.DegreesToRadians(a.Latitude)
	lat2 := units.DegreesToRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := units.DegreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
