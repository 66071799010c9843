// Package aggregate turns dated numeric records (work-hour entries, payment
// amounts) into period sums, calendar buckets and period-over-period change.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/iliyamo/conductor/internal/clock"
)

// DayLayout is the key format of day and week buckets.
const DayLayout = "2006-01-02"

// Point is one dated value.
type Point struct {
	At    time.Time
	Value float64
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func inRange(at, start, end time.Time) bool {
	d := clock.Day(at)
	return !d.Before(clock.Day(start)) && !d.After(clock.Day(end))
}

// SumInRange sums the values whose date falls in [start, end], inclusive on
// both ends. Empty input sums to 0.
func SumInRange(points []Point, start, end time.Time) float64 {
	var sum float64
	for _, p := range points {
		if inRange(p.At, start, end) {
			sum += p.Value
		}
	}
	return Round2(sum)
}

// Sum adds every value.
func Sum(points []Point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return Round2(sum)
}

// GroupByDay buckets values in [start, end] by calendar day. Days without
// records are absent from the map, not zero.
func GroupByDay(points []Point, start, end time.Time) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range points {
		if !inRange(p.At, start, end) {
			continue
		}
		out[p.At.Format(DayLayout)] += p.Value
	}
	for k, v := range out {
		out[k] = Round2(v)
	}
	return out
}

// GroupByWeek buckets values in [start, end] by the Monday starting their week.
func GroupByWeek(points []Point, start, end time.Time) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range points {
		if !inRange(p.At, start, end) {
			continue
		}
		ws, _ := clock.WeekRange(p.At)
		out[ws.Format(DayLayout)] += p.Value
	}
	for k, v := range out {
		out[k] = Round2(v)
	}
	return out
}

// GroupByMonth buckets values in [start, end] by "YYYY-MM".
func GroupByMonth(points []Point, start, end time.Time) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range points {
		if !inRange(p.At, start, end) {
			continue
		}
		out[p.At.Format("2006-01")] += p.Value
	}
	for k, v := range out {
		out[k] = Round2(v)
	}
	return out
}

// PercentChange returns (current-previous)/previous*100 rounded to two
// decimals, or nil when previous is zero: a zero baseline means the change
// is undefined and must reach the client as null, never 0.
func PercentChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	v := Round2((current - previous) / previous * 100)
	return &v
}

// SortedKeys returns bucket keys in ascending order.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
