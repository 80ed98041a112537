package geo

import (
	"math"
	"testing"
	"time"

	"github.com/i474232898/marine-forecast/internal/units"
)

func TestPredictZeroHoursKeepsPosition(t *testing.T) {
	start := Position{Latitude: 59.3, Longitude: 18.1, Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	for deg := 0.0; deg < 360; deg += 15 {
		got := Predict(start, units.DegreesToRadians(deg), 5, 0)
		if math.Abs(got.Latitude-start.Latitude) > 1e-9 || math.Abs(got.Longitude-start.Longitude) > 1e-9 {
			t.Errorf("heading %v: got (%v,%v), want start", deg, got.Latitude, got.Longitude)
		}
		if !got.Timestamp.Equal(start.Timestamp) {
			t.Errorf("heading %v: timestamp moved to %v", deg, got.Timestamp)
		}
	}
}

func TestPredictZeroSpeedKeepsPosition(t *testing.T) {
	start := Position{Latitude: -33.9, Longitude: 151.2, Timestamp: time.Unix(0, 0).UTC()}
	got := Predict(start, 1.2, 0, 1)
	if math.Abs(got.Latitude-start.Latitude) > 1e-9 || math.Abs(got.Longitude-start.Longitude) > 1e-9 {
		t.Fatalf("got (%v,%v), want start", got.Latitude, got.Longitude)
	}
	if got.Timestamp.Sub(start.Timestamp) != time.Hour {
		t.Fatalf("timestamp advanced by %v, want 1h", got.Timestamp.Sub(start.Timestamp))
	}
}

func TestPredictEastAlongEquator(t *testing.T) {
	start := Position{Latitude: 0, Longitude: 20}
	speed := units.KnotsToMetersPerSecond(5)
	got := Predict(start, math.Pi/2, speed, 1)

	wantDeg := units.RadiansToDegrees(speed * 3600 / EarthRadius)
	if math.Abs(got.Latitude) > 1e-9 {
		t.Errorf("latitude drifted to %v", got.Latitude)
	}
	if math.Abs(got.Longitude-20-wantDeg) > 1e-9 {
		t.Errorf("longitude = %v, want %v", got.Longitude, 20+wantDeg)
	}
}

func TestPredictDistanceRoundTrip(t *testing.T) {
	start := Position{Latitude: 10, Longitude: 20}
	got := Predict(start, units.DegreesToRadians(37), 6, 3)
	want := 6.0 * 3 * 3600
	if d := Distance(start, got); math.Abs(d-want) > 0.5 {
		t.Fatalf("distance = %v, want %v", d, want)
	}
}

func TestIsMoving(t *testing.T) {
	tests := []struct {
		speed, threshold float64
		want             bool
	}{
		{0, 1, false},
		{0.514444, 1, false},
		{0.5145, 1, true},
		{3, 5, true},
		{2.5, 5, false},
	}
	for _, tt := range tests {
		if got := IsMoving(tt.speed, tt.threshold); got != tt.want {
			t.Errorf("IsMoving(%v, %v) = %v, want %v", tt.speed, tt.threshold, got, tt.want)
		}
	}
}

func TestDistanceKnownValue(t *testing.T) {
	a := Position{Latitude: 0, Longitude: 0}
	b := Position{Latitude: 0, Longitude: 1}
	want := EarthRadius * math.Pi / 180
	if d := Distance(a, b); math.Abs(d-want) > 1e-6 {
		t.Fatalf("distance = %v, want %v", d, want)
	}
	if d := Distance(a, a); d != 0 {
		t.Fatalf("distance to self = %v", d)
	}
}
