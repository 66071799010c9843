package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer organisation owning projects.
type Client struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c Client) Validate() []string {
	if strings.TrimSpace(c.Name) == "" {
		return []string{"Name can't be blank"}
	}
	return nil
}

// Project belongs to a client and groups tasks.
type Project struct {
	ID          uint64              `json:"id"`
	ClientID    uint64              `json:"client_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	StartDate   Date                `json:"start_date"`
	EndDate     Date                `json:"end_date"`
	Status      ProjectStatus       `json:"status"`
	Budget      decimal.NullDecimal `json:"budget"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (p *Project) ApplyDefaults() {
	if p.Status == "" {
		p.Status = ProjectPlanning
	}
}

func (p Project) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "Name can't be blank")
	}
	if p.ClientID == 0 {
		errs = append(errs, "Client must exist")
	}
	if _, err := ParseProjectStatus(string(p.Status)); err != nil {
		errs = append(errs, "Status is not included in the list")
	}
	if p.Budget.Valid && p.Budget.Decimal.IsNegative() {
		errs = append(errs, "Budget must be greater than or equal to 0")
	}
	return errs
}

// Delayed reports whether the end date has passed on an incomplete project.
func (p Project) Delayed(today Date) bool {
	return !p.EndDate.IsZero() && p.EndDate.Before(today) && p.Status != ProjectCompleted
}

// ProgressPercentage is completed/total x 100 rounded to two decimals, 0
// when the project has no tasks.
func ProgressPercentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(completed) / float64(total) * 100)
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	Project
	ClientName         string  `json:"client_name"`
	TasksCount         int     `json:"tasks_count"`
	CompletedTasks     int     `json:"completed_tasks_count"`
	ProgressPercentage float64 `json:"progress_percentage"`
}
