package quota

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	report := &UsageReport{Usage: []UsageRecord{
		{Date: "2024-05-03", Type: "packages", Requests: 10, Credits: 100_000},
		{Date: "2024-05-01", Type: "packages", Requests: 5, Credits: 50_000},
		{Date: "2024-05-20", Type: "images", Requests: 1, Credits: 5_000},
	}}

	s := Summarize(report, 1_000_000, now)
	if s.CreditsUsed != 155_000 || s.RequestsUsed != 16 {
		t.Fatalf("unexpected totals %d/%d", s.CreditsUsed, s.RequestsUsed)
	}
	if s.Remaining != 845_000 {
		t.Fatalf("unexpected remaining %d", s.Remaining)
	}
	if s.UsagePercentage != 16 {
		t.Fatalf("expected 16%%, got %d", s.UsagePercentage)
	}
	if s.EarliestDate != "2024-05-01" || s.LatestDate != "2024-05-20" {
		t.Fatalf("unexpected date range %s..%s", s.EarliestDate, s.LatestDate)
	}
	if s.ByType["packages"].Credits != 150_000 || s.ByType["images"].Requests != 1 {
		t.Fatalf("unexpected per-type aggregate %+v", s.ByType)
	}
	if s.Status != StatusOK || !s.CheckedAt.Equal(now) {
		t.Fatalf("unexpected status/checkedAt %s/%s", s.Status, s.CheckedAt)
	}
}

func TestSummarizeOverLimit(t *testing.T) {
	s := Summarize(&UsageReport{Usage: []UsageRecord{{Credits: 120}}}, 100, time.Time{})
	if s.Remaining != 0 || s.UsagePercentage != 120 || s.Status != StatusCritical {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 100, time.Time{})
	if s.CreditsUsed != 0 || s.UsagePercentage != 0 || s.Remaining != 100 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		pct  int
		want Status
	}{
		{0, StatusOK},
		{79, StatusOK},
		{80, StatusWarning},
		{89, StatusWarning},
		{90, StatusCritical},
		{150, StatusCritical},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.pct); got != tt.want {
			t.Errorf("StatusFor(%d) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}
