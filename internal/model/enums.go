package model

import (
	"encoding/json"
	"fmt"
)

// Role is the account type. It is stored and serialised as an integer
// (0 standard, 1 admin) because existing clients compare user_type numerically.
type Role int

const (
	RoleStandard Role = 0
	RoleAdmin    Role = 1
)

// ParseRole accepts the numeric value.
func ParseRole(v int) (Role, error) {
	switch Role(v) {
	case RoleStandard, RoleAdmin:
		return Role(v), nil
	}
	return 0, fmt.Errorf("invalid role %d", v)
}

func (r Role) String() string {
	switch r {
	case RoleStandard:
		return "standard"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// IsAdmin reports whether r bypasses ownership checks.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r *Role) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	parsed, err := ParseRole(n)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskOnHold     TaskStatus = "on_hold"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{TaskNotStarted, TaskInProgress, TaskReview, TaskOnHold, TaskCompleted, TaskCancelled}

// ParseTaskStatus rejects anything outside the closed set.
func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, v := range TaskStatuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", s)
}

// Open reports whether a task still needs work. Cancelled tasks are
// closed; on-hold tasks are still open.
func (s TaskStatus) Open() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskReview, TaskOnHold:
		return true
	case TaskCompleted, TaskCancelled:
		return false
	}
	return false
}

func (s *TaskStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, ParseTaskStatus)
}

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func ParseTaskPriority(s string) (TaskPriority, error) {
	for _, v := range TaskPriorities {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid task priority %q", s)
}

func (p *TaskPriority) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, p, ParseTaskPriority)
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCancelled ProjectStatus = "cancelled"
)

var ProjectStatuses = []ProjectStatus{ProjectPlanning, ProjectActive, ProjectCompleted, ProjectOnHold, ProjectCancelled}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	for _, v := range ProjectStatuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid project status %q", s)
}

func (s *ProjectStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, ParseProjectStatus)
}

// PaymentStatus tracks settlement of a monthly payment.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentCancelled     PaymentStatus = "cancelled"
)

var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentPartiallyPaid, PaymentCancelled}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for _, v := range PaymentStatuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", s)
}

func (s *PaymentStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, ParsePaymentStatus)
}

func unmarshalEnum[T ~string](b []byte, dst *T, parse func(string) (T, error)) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
