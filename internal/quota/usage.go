// Package quota tracks provider credit consumption and raises bus
// notifications when it crosses the warning and critical thresholds.
package quota

import (
	"math"
	"time"
)

// Thresholds in percent of the estimated monthly quota.
const (
	WarningPercent  = 80
	CriticalPercent = 90
)

// UsageRecord is one itemized line of the provider usage report.
type UsageRecord struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Requests int64  `json:"requests"`
	Credits  int64  `json:"credits"`
}

// UsageReport is the provider account usage payload.
type UsageReport struct {
	Usage []UsageRecord `json:"usage"`
}

// Status classifies a usage percentage.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// StatusFor returns the status band for pct.
func StatusFor(pct int) Status {
	switch {
	case pct >= CriticalPercent:
		return StatusCritical
	case pct >= WarningPercent:
		return StatusWarning
	default:
		return StatusOK
	}
}

// TypeUsage aggregates usage per request type.
type TypeUsage struct {
	Requests int64 `json:"requests"`
	Credits  int64 `json:"credits"`
}

// Summary is the aggregate of one usage report.
type Summary struct {
	CreditsUsed     int64                `json:"creditsUsed"`
	RequestsUsed    int64                `json:"requestsUsed"`
	EstimatedLimit  int64                `json:"estimatedLimit"`
	Remaining       int64                `json:"remaining"`
	UsagePercentage int                  `json:"usagePercentage"`
	EarliestDate    string               `json:"earliestDate,omitempty"`
	LatestDate      string               `json:"latestDate,omitempty"`
	Status          Status               `json:"status"`
	ByType          map[string]TypeUsage `json:"byType,omitempty"`
	CheckedAt       time.Time            `json:"checkedAt"`
}

// Summarize sums every record of r against limit. Dates are ISO formatted,
// so the earliest and latest are found by string comparison.
func Summarize(r *UsageReport, limit int64, now time.Time) Summary {
	s := Summary{
		EstimatedLimit: limit,
		ByType:         make(map[string]TypeUsage),
		CheckedAt:      now,
	}
	if r != nil {
		for _, rec := range r.Usage {
			s.CreditsUsed += rec.Credits
			s.RequestsUsed += rec.Requests

			t := s.ByType[rec.Type]
			t.Credits += rec.Credits
			t.Requests += rec.Requests
			s.ByType[rec.Type] = t

			if rec.Date == "" {
				continue
			}
			if s.EarliestDate == "" || rec.Date < s.EarliestDate {
				s.EarliestDate = rec.Date
			}
			if rec.Date > s.LatestDate {
				s.LatestDate = rec.Date
			}
		}
	}

	s.Remaining = max(limit-s.CreditsUsed, 0)
	if limit > 0 {
		s.UsagePercentage = int(math.Round(100 * float64(s.CreditsUsed) / float64(limit)))
	}
	s.Status = StatusFor(s.UsagePercentage)
	return s
}
