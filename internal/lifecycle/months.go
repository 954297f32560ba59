package lifecycle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// MonthLabel renders t as "<month name> <year>", e.g. "enero 2024".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// ParseMonthLabel is the inverse of MonthLabel. The returned time is the
// first day of the month in UTC.
func ParseMonthLabel(label string) (time.Time, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(label)))
	if len(fields) != 2 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return time.Time{}, false
	}

	for i, name := range monthNames {
		if name == fields[0] {
			return time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsInRange lists every calendar month touched by r, oldest first,
// stepping one month at a time from the first of r.From's month. A reversed
// range yields nothing.
func MonthsInRange(r DateRange) []string {
	if r.From.After(r.To) {
		return nil
	}

	cur := firstOfMonth(r.From)
	last := firstOfMonth(r.To)

	out := make([]string, 0, 12)
	for !cur.After(last) {
		out = append(out, MonthLabel(cur))
		cur = cur.AddDate(0, 1, 0)
	}

	return out
}

// NewMonths returns the months of r that are not in existing, in calendar
// order.
func NewMonths(r DateRange, existing []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}

	months := MonthsInRange(r)
	out := make([]string, 0, len(months))
	for _, m := range months {
		if _, ok := seen[m]; ok {
			continue
		}
		out = append(out, m)
	}

	return out
}

// SortMonthLabels orders labels chronologically. Labels that do not parse
// keep their relative order after the parsed ones.
func SortMonthLabels(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)

	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := ParseMonthLabel(out[i])
		tj, okJ := ParseMonthLabel(out[j])
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI:
			return true
		default:
			return false
		}
	})

	return out
}
