package forecast

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	hourlyLayout = "2006-01-02 15:04"
	dailyLayout  = "2006-01-02"
)

// RawForecastResponse is the provider payload for one packages request.
type RawForecastResponse struct {
	Metadata Metadata `json:"metadata"`
	Hourly   *Series  `json:"data_1h,omitempty"`
	Daily    *Series  `json:"data_day,omitempty"`
}

// Metadata describes the forecast location and model run.
type Metadata struct {
	Name                 string  `json:"name"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	Height               float64 `json:"height"`
	TimezoneAbbreviation string  `json:"timezone_abbrevation"`
	UTCOffset            float64 `json:"utc_timeoffset"`
	ModelRunUTC          string  `json:"modelrun_utc"`
	ModelRunUpdateUTC    string  `json:"modelrun_updatetime_utc"`
}

// Zone returns the provider-local zone the series times are expressed in.
func (m Metadata) Zone() *time.Location {
	name := m.TimezoneAbbreviation
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, int(m.UTCOffset*3600))
}

// Localize attaches the metadata zone to both series so their times parse
// correctly. It is called once after decoding.
func (r *RawForecastResponse) Localize() {
	zone := r.Metadata.Zone()
	if r.Hourly != nil {
		r.Hourly.Zone = zone
	}
	if r.Daily != nil {
		r.Daily.Zone = zone
	}
}

// Series is a set of parallel arrays sharing the Time index. A field the
// provider omitted is simply absent from both maps; a nil element is a
// missing value for that period.
type Series struct {
	Time    []string
	Numbers map[string][]*float64
	Texts   map[string][]*string

	// Zone interprets Time; nil means UTC.
	Zone *time.Location
}

// UnmarshalJSON splits the provider object into the time index, numeric
// series and text series. Arrays of any other shape are ignored.
func (s *Series) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Numbers = make(map[string][]*float64, len(raw))
	s.Texts = make(map[string][]*string)

	for key, msg := range raw {
		if key == "time" {
			if err := json.Unmarshal(msg, &s.Time); err != nil {
				return fmt.Errorf("decode time index: %w", err)
			}
			continue
		}
		var nums []*float64
		if err := json.Unmarshal(msg, &nums); err == nil {
			s.Numbers[key] = nums
			continue
		}
		var texts []*string
		if err := json.Unmarshal(msg, &texts); err == nil {
			s.Texts[key] = texts
		}
	}
	return nil
}

// Number returns field's value at index i.
func (s *Series) Number(field string, i int) (float64, bool) {
	vals, ok := s.Numbers[field]
	if !ok || i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// TextAt returns field's string value at index i.
func (s *Series) TextAt(field string, i int) (string, bool) {
	vals, ok := s.Texts[field]
	if !ok || i >= len(vals) || vals[i] == nil {
		return "", false
	}
	return *vals[i], true
}

// times parses the whole time index. Any unparseable entry invalidates it.
func (s *Series) times(layout string) ([]time.Time, error) {
	if s == nil || len(s.Time) == 0 {
		return nil, fmt.Errorf("series has no time index")
	}
	zone := s.Zone
	if zone == nil {
		zone = time.UTC
	}
	out := make([]time.Time, len(s.Time))
	for i, v := range s.Time {
		t, err := time.ParseInLocation(layout, v, zone)
		if err != nil {
			if t, err = time.Parse(time.RFC3339, v); err != nil {
				return nil, fmt.Errorf("time index entry %d %q: %w", i, v, err)
			}
		}
		out[i] = t
	}
	return out, nil
}
