package forecast

import (
	"math"
	"time"

	"github.com/i474232898/marine-forecast/internal/log"
	"github.com/i474232898/marine-forecast/internal/units"
)

var weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// NormalizeHourly turns the hourly series into at most maxPeriods records
// for pkg, starting at the current hour. The provider always answers from
// local midnight, so earlier periods are trimmed here.
func NormalizeHourly(s *Series, maxPeriods int, pkg Package, now time.Time) []Record {
	if maxPeriods <= 0 {
		return nil
	}
	times, err := s.times(hourlyLayout)
	if err != nil {
		log.Warn("Skipping hourly series without valid time index", "package", pkg, "reason", err.Error())
		return nil
	}

	hour := s.currentHour(now)
	start := -1
	for i, t := range times {
		if !t.Before(hour) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, t := range times {
			if t.After(now) {
				start = i
				break
			}
		}
	}
	if start < 0 {
		log.Warn("Hourly series has no current or future periods", "package", pkg, "last", times[len(times)-1])
		return nil
	}

	fields := Fields(pkg, Hourly)
	end := min(start+maxPeriods, len(times))
	out := make([]Record, 0, end-start)
	for i := start; i < end; i++ {
		rec := newRecord(pkg, Hourly, i-start, times[i])
		rec.RelativeHour = int(math.Round(times[i].Sub(hour).Hours()))
		fill(&rec, s, fields, i)
		out = append(out, rec)
	}
	return out
}

// currentHour is the start of the hour containing now in the series zone.
// Zones with a fractional offset start their hours off the UTC hour.
func (s *Series) currentHour(now time.Time) time.Time {
	zone := time.UTC
	if s != nil && s.Zone != nil {
		zone = s.Zone
	}
	l := now.In(zone)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), 0, 0, 0, zone)
}

// NormalizeDaily turns the daily series into at most maxPeriods records for
// pkg, starting with the first day the provider returned.
func NormalizeDaily(s *Series, maxPeriods int, pkg Package) []Record {
	times, err := s.times(dailyLayout)
	if err != nil {
		log.Warn("Skipping daily series without valid time index", "package", pkg, "reason", err.Error())
		return nil
	}

	fields := Fields(pkg, Daily)
	end := min(max(maxPeriods, 0), len(times))
	out := make([]Record, 0, end)
	for i := 0; i < end; i++ {
		rec := newRecord(pkg, Daily, i, times[i])
		rec.Date = times[i].Format(dailyLayout)
		rec.DayOfWeek = weekdays[times[i].Weekday()]
		fill(&rec, s, fields, i)
		out = append(out, rec)
	}
	return out
}

func newRecord(pkg Package, c Cadence, index int, t time.Time) Record {
	return Record{
		Package: pkg,
		Cadence: c,
		Index:   index,
		Time:    t,
		Values:  make(map[string]float64),
	}
}

func fill(rec *Record, s *Series, fields []Field, i int) {
	for _, fd := range fields {
		if fd.Conversion == Text {
			if v, ok := s.TextAt(fd.Name, i); ok {
				rec.label(fd.Name, v)
			}
			continue
		}
		v, ok := s.Number(fd.Name, i)
		if !ok {
			continue
		}
		rec.Values[fd.Name] = convert(fd.Conversion, v)
		if fd.Conversion == SeaState {
			code := int(math.Round(v))
			rec.label(fd.Name+"_label", units.SeaState(code))
			rec.label(fd.Name+"_description", units.SeaStateDescription(code))
		}
	}
}

func (r *Record) label(key, v string) {
	if r.Labels == nil {
		r.Labels = make(map[string]string)
	}
	r.Labels[key] = v
}

func convert(c Conversion, v float64) float64 {
	switch c {
	case ToKelvin:
		return units.CelsiusToKelvin(v)
	case ToRadians:
		return units.DegreesToRadians(v)
	case ToMeters:
		return units.MillimeterToMeter(v)
	case ToPascal:
		return units.MillibarToPascal(v)
	case ToRatio:
		return units.PercentToRatio(v)
	default:
		return v
	}
}
