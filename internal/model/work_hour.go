package model

import (
	"math"
	"time"
)

// WorkHour is one logged work session. EndTime stays nil while the session is
// open; HoursWorked is derived whenever both ends are known.
type WorkHour struct {
	ID                  uint64     `json:"id"`
	UserID              uint64     `json:"user_id"`
	TaskID              *uint64    `json:"task_id"`
	WorkDate            Date       `json:"work_date"`
	StartTime           ClockTime  `json:"start_time"`
	EndTime             *ClockTime `json:"end_time"`
	HoursWorked         float64    `json:"hours_worked"`
	ActivityDescription string     `json:"activity_description"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ComputeHours sets HoursWorked from the start and end time when both are
// present. It is called before every validation and save.
func (w *WorkHour) ComputeHours() {
	if w.EndTime == nil {
		return
	}
	w.HoursWorked = round2(float64(w.EndTime.Seconds-w.StartTime.Seconds) / 3600)
}

// Validate recomputes the derived hours and returns every violation.
func (w *WorkHour) Validate() []string {
	var errs []string
	if w.UserID == 0 {
		errs = append(errs, "User must exist")
	}
	if w.WorkDate.IsZero() {
		errs = append(errs, "Work date can't be blank")
	}
	if w.EndTime != nil && w.EndTime.Seconds <= w.StartTime.Seconds {
		errs = append(errs, "End time must be after start time")
	} else {
		w.ComputeHours()
	}
	if w.HoursWorked < 0 {
		errs = append(errs, "Hours worked must be greater than or equal to 0")
	}
	return errs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
