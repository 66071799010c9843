package model

import "time"

// Ref is the denormalised {id, name} of a related row.
type Ref struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TaskRef is the denormalised {id, title} of a task.
type TaskRef struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// TaskListItem is a task with its assignee and project names.
type TaskListItem struct {
	Task
	User    Ref `json:"user"`
	Project Ref `json:"project"`
}

// TaskActivity is a recently created task in the admin activity feed.
type TaskActivity struct {
	ID        uint64     `json:"id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	User      Ref        `json:"user"`
	Project   Ref        `json:"project"`
}

// WorkHourActivity is a recently logged entry in the admin activity feed.
// Task is nil for entries not booked against a task.
type WorkHourActivity struct {
	ID          uint64    `json:"id"`
	WorkDate    Date      `json:"work_date"`
	HoursWorked float64   `json:"hours_worked"`
	CreatedAt   time.Time `json:"created_at"`
	User        Ref       `json:"user"`
	Task        *TaskRef  `json:"task"`
}

// UserHours is one row of the per-user hours summary.
type UserHours struct {
	UserID      uint64  `json:"user_id"`
	Name        string  `json:"name"`
	HoursWorked float64 `json:"hours_worked"`
}
