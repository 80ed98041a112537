// Package units holds the unit conversions applied to provider values before
// they are published. All functions are pure; non-finite inputs propagate.
package units

import "math"

const (
	kelvinOffset        = 273.15
	pascalsPerMillibar  = 100
	millimetersPerMeter = 1000

	// MetersPerSecondPerKnot converts knots to m/s.
	MetersPerSecondPerKnot = 0.514444
)

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(deg float64) float64 { return deg * math.Pi / 180 }

// RadiansToDegrees converts an angle in radians to degrees.
func RadiansToDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// CelsiusToKelvin converts a temperature in °C to K.
func CelsiusToKelvin(c float64) float64 { return c + kelvinOffset }

// MillibarToPascal converts a pressure in mbar (hPa) to Pa.
func MillibarToPascal(mb float64) float64 { return mb * pascalsPerMillibar }

// MillimeterToMeter converts a length such as precipitation in mm to m.
func MillimeterToMeter(mm float64) float64 { return mm / millimetersPerMeter }

// PercentToRatio converts a percentage to a 0..1 ratio.
func PercentToRatio(pct float64) float64 { return pct / 100 }

// KnotsToMetersPerSecond converts a speed in knots to m/s.
func KnotsToMetersPerSecond(kn float64) float64 { return kn * MetersPerSecondPerKnot }

// MetersPerSecondToKnots converts a speed in m/s to knots.
func MetersPerSecondToKnots(ms float64) float64 { return ms / MetersPerSecondPerKnot }
