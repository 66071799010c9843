package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrClock(h, m int) *ClockTime {
	c := NewClockTime(h, m)
	return &c
}

func TestWorkHourRejectsEqualStartAndEnd(t *testing.T) {
	w := &WorkHour{UserID: 1, WorkDate: DateOf(2025, time.March, 3), StartTime: NewClockTime(9, 0), EndTime: ptrClock(9, 0)}
	errs := w.Validate()
	assert.Contains(t, errs, "End time must be after start time")
}

func TestWorkHourComputesHours(t *testing.T) {
	w := &WorkHour{UserID: 1, WorkDate: DateOf(2025, time.March, 3), StartTime: NewClockTime(9, 0), EndTime: ptrClock(17, 30)}
	assert.Empty(t, w.Validate())
	assert.Equal(t, 8.5, w.HoursWorked)

	w.EndTime = ptrClock(9, 20)
	require.Empty(t, w.Validate())
	assert.Equal(t, 0.33, w.HoursWorked)
}

func TestWorkHourOpenSessionKeepsSuppliedHours(t *testing.T) {
	w := &WorkHour{UserID: 1, WorkDate: DateOf(2025, time.March, 3), StartTime: NewClockTime(9, 0), HoursWorked: 2}
	assert.Empty(t, w.Validate())
	assert.Equal(t, 2.0, w.HoursWorked)
}

func TestWorkHourCollectsAllViolations(t *testing.T) {
	w := &WorkHour{StartTime: NewClockTime(10, 0), EndTime: ptrClock(8, 0)}
	errs := w.Validate()
	assert.Len(t, errs, 3)
}

func TestInvoiceItemAmount(t *testing.T) {
	it := &InvoiceItem{Description: "development", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(3000)}
	require.Empty(t, it.Validate())
	assert.True(t, it.Amount.Equal(decimal.NewFromInt(30000)), it.Amount.String())

	it.Quantity = decimal.RequireFromString("1.333")
	it.UnitPrice = decimal.RequireFromString("10")
	it.ComputeAmount()
	assert.Equal(t, "13.33", it.Amount.StringFixed(2))
}

func TestInvoiceItemRejectsZeroQuantity(t *testing.T) {
	it := &InvoiceItem{Description: "x", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(5)}
	assert.Contains(t, it.Validate(), "Quantity must be greater than 0")
}

func TestTaskRemainingHours(t *testing.T) {
	est := 10.0
	task := Task{Status: TaskInProgress, EstimatedHours: &est}
	assert.Equal(t, 6.5, task.RemainingHours(3.5))
	assert.Equal(t, 0.0, task.RemainingHours(12))

	task.Status = TaskCompleted
	assert.Equal(t, 0.0, task.RemainingHours(1))

	task = Task{Status: TaskNotStarted}
	assert.Equal(t, 0.0, task.RemainingHours(0))
}

func TestTaskEstimatedCompletion(t *testing.T) {
	today := DateOf(2025, time.March, 10)
	est := 20.0
	task := Task{Status: TaskInProgress, EstimatedHours: &est}

	// no recent activity: 4h/day -> 5 days
	got := task.EstimatedCompletion(today, 0, 0)
	require.NotNil(t, got)
	assert.Equal(t, "2025-03-15", got.String())

	// 56h in 7 days -> 8h/day -> 2 days for 12 remaining
	got = task.EstimatedCompletion(today, 8, 56)
	require.NotNil(t, got)
	assert.Equal(t, "2025-03-12", got.String())

	// pace under 1h/day falls back to the default
	got = task.EstimatedCompletion(today, 0, 3)
	require.NotNil(t, got)
	assert.Equal(t, "2025-03-15", got.String())

	got = task.EstimatedCompletion(today, 25, 0)
	require.NotNil(t, got)
	assert.Equal(t, today, *got)

	task.Status = TaskCompleted
	assert.Nil(t, task.EstimatedCompletion(today, 0, 0))
}

func TestTaskOverdue(t *testing.T) {
	today := DateOf(2025, time.March, 10)
	task := Task{Status: TaskInProgress, DueDate: DateOf(2025, time.March, 9)}
	assert.True(t, task.Overdue(today))
	task.Status = TaskCompleted
	assert.False(t, task.Overdue(today))
	task = Task{Status: TaskInProgress}
	assert.False(t, task.Overdue(today))
}

func TestTaskValidate(t *testing.T) {
	task := Task{Title: "Write docs", UserID: 1, ProjectID: 1}
	task.ApplyDefaults()
	assert.Empty(t, task.Validate())
	assert.Equal(t, TaskNotStarted, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)

	task.Status = "pending"
	assert.Contains(t, task.Validate(), "Status is not included in the list")
}

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 0.0, ProgressPercentage(0, 0))
	assert.Equal(t, 33.33, ProgressPercentage(1, 3))
	assert.Equal(t, 100.0, ProgressPercentage(4, 4))
}

func TestWorkingRate(t *testing.T) {
	assert.Equal(t, 50.0, WorkingRate(84, 21))
	assert.Equal(t, 0.0, WorkingRate(10, 0))
}

func TestEnumJSONRejectsUnknownValues(t *testing.T) {
	var body struct {
		Status TaskStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"review"}`), &body))
	assert.Equal(t, TaskReview, body.Status)
	assert.Error(t, json.Unmarshal([]byte(`{"status":"done"}`), &body))

	var role struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":1}`), &role))
	assert.True(t, role.Role.IsAdmin())
	assert.Error(t, json.Unmarshal([]byte(`{"role":7}`), &role))
}

func TestTaskStatusOpen(t *testing.T) {
	for _, s := range TaskStatuses {
		switch s {
		case TaskCompleted, TaskCancelled:
			assert.False(t, s.Open(), s)
		default:
			assert.True(t, s.Open(), s)
		}
	}
}

func TestDateJSONAndScan(t *testing.T) {
	d := DateOf(2025, time.February, 28)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-02-28"`, string(b))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var scanned Date
	require.NoError(t, scanned.Scan("2025-02-28 00:00:00"))
	assert.Equal(t, d, scanned)
	require.NoError(t, scanned.Scan(time.Date(2025, 2, 28, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, d, scanned)
}

func TestClockTimeParse(t *testing.T) {
	c, err := ParseClockTime("17:30")
	require.NoError(t, err)
	assert.Equal(t, "17:30:00", c.String())

	var scanned ClockTime
	require.NoError(t, scanned.Scan([]byte("09:15:30")))
	assert.Equal(t, 9*3600+15*60+30, scanned.Seconds)

	_, err = ParseClockTime("25:00")
	assert.Error(t, err)
}

func TestUserHasActiveRefresh(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(time.Hour)
	u := User{RefreshTokenHash: "abc", RefreshTokenExpiresAt: &exp}
	assert.True(t, u.HasActiveRefresh("abc", now))
	assert.False(t, u.HasActiveRefresh("abd", now))
	assert.False(t, u.HasActiveRefresh("abc", exp))
	assert.False(t, User{}.HasActiveRefresh("", now))
}
