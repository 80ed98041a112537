package units

import (
	"math"
	"testing"
)

func TestConversions(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"celsius 0", CelsiusToKelvin(0), 273.15},
		{"celsius -10", CelsiusToKelvin(-10), 263.15},
		{"millibar 1013", MillibarToPascal(1013), 101300},
		{"millimeter 5", MillimeterToMeter(5), 0.005},
		{"percent 45", PercentToRatio(45), 0.45},
		{"degrees 180", DegreesToRadians(180), math.Pi},
		{"radians pi/2", RadiansToDegrees(math.Pi / 2), 90},
		{"knots 1", KnotsToMetersPerSecond(1), 0.514444},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestConversionsPropagateNonFinite(t *testing.T) {
	if !math.IsNaN(CelsiusToKelvin(math.NaN())) {
		t.Error("NaN should propagate")
	}
	if !math.IsInf(MillibarToPascal(math.Inf(1)), 1) {
		t.Error("+Inf should propagate")
	}
}

func TestSeaState(t *testing.T) {
	for code := 0; code <= 9; code++ {
		if SeaState(code) == UnknownSeaState {
			t.Errorf("code %d has no terse label", code)
		}
		if SeaStateDescription(code) == UnknownSeaState {
			t.Errorf("code %d has no verbose label", code)
		}
	}
	if SeaState(4) != "Moderate" {
		t.Errorf("SeaState(4) = %q", SeaState(4))
	}
	for _, code := range []int{-1, 10, 99} {
		if SeaState(code) != UnknownSeaState || SeaStateDescription(code) != UnknownSeaState {
			t.Errorf("code %d should map to %q", code, UnknownSeaState)
		}
	}
}
