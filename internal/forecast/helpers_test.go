package forecast

import (
	"encoding/json"
	"testing"
	"time"
)

var testNow = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

// hourlyPayload builds a provider-style data_1h object starting at start
// with n periods; every field repeats its value for each period.
func hourlyPayload(start time.Time, n int, fields map[string]any) map[string]any {
	out := map[string]any{}
	times := make([]string, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour).Format(hourlyLayout)
	}
	out["time"] = times
	for name, v := range fields {
		vals := make([]any, n)
		for i := range vals {
			vals[i] = v
		}
		out[name] = vals
	}
	return out
}

func dailyPayload(start time.Time, n int, fields map[string]any) map[string]any {
	out := map[string]any{}
	times := make([]string, n)
	for i := range times {
		times[i] = start.AddDate(0, 0, i).Format(dailyLayout)
	}
	out["time"] = times
	for name, v := range fields {
		vals := make([]any, n)
		for i := range vals {
			vals[i] = v
		}
		out[name] = vals
	}
	return out
}

func decodeResponse(t *testing.T, hourly, daily map[string]any) *RawForecastResponse {
	t.Helper()
	return decodeZonedResponse(t, "UTC", 0, hourly, daily)
}

// decodeZonedResponse decodes a payload whose times are local to a zone
// offset hours from UTC.
func decodeZonedResponse(t *testing.T, zone string, offset float64, hourly, daily map[string]any) *RawForecastResponse {
	t.Helper()
	payload := map[string]any{
		"metadata": map[string]any{
			"name":                 "Test Sound",
			"latitude":             1.5,
			"longitude":            2.5,
			"height":               3,
			"timezone_abbrevation": zone,
			"utc_timeoffset":       offset,
			"modelrun_utc":         "2024-06-01 00:00",
		},
	}
	if hourly != nil {
		payload["data_1h"] = hourly
	}
	if daily != nil {
		payload["data_day"] = daily
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var resp RawForecastResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	resp.Localize()
	return &resp
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
