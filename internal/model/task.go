package model

import (
	"math"
	"strings"
	"time"
)

// Task is a unit of work assigned to one user within one project.
type Task struct {
	ID             uint64       `json:"id"`
	UserID         uint64       `json:"user_id"`
	ProjectID      uint64       `json:"project_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	StartDate      Date         `json:"start_date"`
	DueDate        Date         `json:"due_date"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	EstimatedHours *float64     `json:"estimated_hours"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// DefaultDailyHours is the assumed pace when recent activity is too thin to
// extrapolate from.
const DefaultDailyHours = 4.0

// ApplyDefaults fills status and priority for new tasks.
func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TaskNotStarted
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

// Validate returns every field violation.
func (t Task) Validate() []string {
	var errs []string
	if strings.TrimSpace(t.Title) == "" {
		errs = append(errs, "Title can't be blank")
	}
	if t.UserID == 0 {
		errs = append(errs, "User must exist")
	}
	if t.ProjectID == 0 {
		errs = append(errs, "Project must exist")
	}
	if _, err := ParseTaskStatus(string(t.Status)); err != nil {
		errs = append(errs, "Status is not included in the list")
	}
	if _, err := ParseTaskPriority(string(t.Priority)); err != nil {
		errs = append(errs, "Priority is not included in the list")
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		errs = append(errs, "Estimated hours must be greater than or equal to 0")
	}
	if !t.StartDate.IsZero() && !t.DueDate.IsZero() && t.DueDate.Before(t.StartDate) {
		errs = append(errs, "Due date must be on or after start date")
	}
	return errs
}

// RemainingHours is max(0, estimated-actual), or 0 once the task is completed.
func (t Task) RemainingHours(actual float64) float64 {
	if t.Status == TaskCompleted {
		return 0
	}
	var est float64
	if t.EstimatedHours != nil {
		est = *t.EstimatedHours
	}
	return round2(math.Max(0, est-actual))
}

// Overdue reports whether the due date has passed on an incomplete task.
func (t Task) Overdue(today Date) bool {
	return !t.DueDate.IsZero() && t.DueDate.Before(today) && t.Status != TaskCompleted
}

// EstimatedCompletion projects a finish date from the assignee's pace over the
// last seven days (recentHours). Completed tasks have no projection.
func (t Task) EstimatedCompletion(today Date, actual, recentHours float64) *Date {
	if t.Status == TaskCompleted {
		return nil
	}
	remaining := t.RemainingHours(actual)
	if remaining <= 0 {
		d := today
		return &d
	}
	daily := DefaultDailyHours
	if recentHours > 0 {
		daily = recentHours / 7
	}
	if daily < 1 {
		daily = DefaultDailyHours
	}
	days := int(math.Ceil(remaining / daily))
	d := NewDate(today.AddDate(0, 0, days))
	return &d
}

// TaskDetail is a task with its derived figures.
type TaskDetail struct {
	Task
	ActualHoursWorked       float64    `json:"actual_hours_worked"`
	RemainingHours          float64    `json:"remaining_hours"`
	EstimatedCompletionDate *Date      `json:"estimated_completion_date"`
	WorkHours               []WorkHour `json:"work_hours,omitempty"`
}
