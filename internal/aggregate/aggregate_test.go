package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func samplePoints() []Point {
	return []Point{
		{At: day(time.March, 3), Value: 8},
		{At: day(time.March, 3), Value: 1.5},
		{At: day(time.March, 5), Value: 7.25},
		{At: day(time.March, 10), Value: 4},
		{At: day(time.February, 28), Value: 6},
	}
}

func TestPercentChange(t *testing.T) {
	assert.Nil(t, PercentChange(0, 0))
	assert.Nil(t, PercentChange(42, 0))
	assert.Nil(t, PercentChange(-3, 0))

	got := PercentChange(110, 100)
	require.NotNil(t, got)
	assert.Equal(t, 10.0, *got)

	got = PercentChange(90, 100)
	require.NotNil(t, got)
	assert.Equal(t, -10.0, *got)

	got = PercentChange(1, 3)
	require.NotNil(t, got)
	assert.Equal(t, -66.67, *got)
}

func TestSumInRangeInclusive(t *testing.T) {
	pts := samplePoints()
	assert.Equal(t, 0.0, SumInRange(nil, day(time.March, 1), day(time.March, 31)))
	assert.Equal(t, 20.75, SumInRange(pts, day(time.March, 1), day(time.March, 31)))
	assert.Equal(t, 16.75, SumInRange(pts, day(time.March, 3), day(time.March, 5)))
	assert.Equal(t, 6.0, SumInRange(pts, day(time.February, 28), day(time.February, 28)))
}

func TestSumInRangeIgnoresTimeOfDay(t *testing.T) {
	pts := []Point{{At: time.Date(2025, time.March, 31, 22, 0, 0, 0, time.UTC), Value: 2}}
	assert.Equal(t, 2.0, SumInRange(pts, day(time.March, 1), day(time.March, 31)))
}

func TestGroupByDayOmitsEmptyDays(t *testing.T) {
	got := GroupByDay(samplePoints(), day(time.March, 1), day(time.March, 31))
	assert.Equal(t, map[string]float64{
		"2025-03-03": 9.5,
		"2025-03-05": 7.25,
		"2025-03-10": 4,
	}, got)
	_, ok := got["2025-03-04"]
	assert.False(t, ok)
}

func TestGroupByWeek(t *testing.T) {
	got := GroupByWeek(samplePoints(), day(time.February, 1), day(time.March, 31))
	assert.Equal(t, map[string]float64{
		"2025-02-24": 6,
		"2025-03-03": 16.75,
		"2025-03-10": 4,
	}, got)
}

func TestGroupByMonth(t *testing.T) {
	got := GroupByMonth(samplePoints(), day(time.January, 1), day(time.December, 31))
	assert.Equal(t, map[string]float64{"2025-02": 6, "2025-03": 20.75}, got)
	assert.Equal(t, []string{"2025-02", "2025-03"}, SortedKeys(got))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 8.5, Round2(8.5))
	assert.Equal(t, 0.33, Round2(1.0/3.0))
	assert.Equal(t, 2.68, Round2(2.675000001))
}
