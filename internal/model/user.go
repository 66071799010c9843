package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a row of the `users` table. Credential and session
// columns are never serialised.
//
// Fields:
//
//	RefreshTokenHash      – SHA-256 hex of the single active refresh token, empty when logged out.
//	RefreshTokenExpiresAt – absolute expiry of that token.
//	JTI                   – rotation identifier, replaced on every logout.
type User struct {
	ID                    uint64              `json:"id"`
	Email                 string              `json:"email"`
	Name                  string              `json:"name"`
	Role                  Role                `json:"role"`
	HourlyRate            decimal.NullDecimal `json:"hourly_rate"`
	PasswordHash          string              `json:"-"`
	JTI                   string              `json:"-"`
	RefreshTokenHash      string              `json:"-"`
	RefreshTokenExpiresAt *time.Time          `json:"-"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an address before lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate returns every field violation.
func (u User) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Name) == "" {
		errs = append(errs, "Name can't be blank")
	}
	if u.Email == "" {
		errs = append(errs, "Email can't be blank")
	} else if _, err := mail.ParseAddress(u.Email); err != nil {
		errs = append(errs, "Email is invalid")
	}
	if _, err := ParseRole(int(u.Role)); err != nil {
		errs = append(errs, "Role is not included in the list")
	}
	if u.HourlyRate.Valid && u.HourlyRate.Decimal.IsNegative() {
		errs = append(errs, "Hourly rate must be greater than or equal to 0")
	}
	return errs
}

// HasActiveRefresh reports whether hash matches the stored refresh token and
// that token has not expired at now.
func (u User) HasActiveRefresh(hash string, now time.Time) bool {
	if u.RefreshTokenHash == "" || hash == "" || u.RefreshTokenHash != hash {
		return false
	}
	return u.RefreshTokenExpiresAt != nil && now.Before(*u.RefreshTokenExpiresAt)
}

// UserMetrics are the per-user figures shown on the user detail page.
type UserMetrics struct {
	WorkingRate       float64 `json:"working_rate"`
	TodayHours        float64 `json:"today_hours"`
	ThisWeekHours     float64 `json:"this_week_hours"`
	ThisMonthHours    float64 `json:"this_month_hours"`
	PendingTasksCount int     `json:"pending_tasks_count"`
	OverdueTasksCount int     `json:"overdue_tasks_count"`
}

// WorkingRate is month hours as a percentage of weekdays x 8h, rounded to two
// decimals. A month without weekdays yields 0.
func WorkingRate(monthHours float64, weekdays int) float64 {
	expected := float64(weekdays * 8)
	if expected == 0 {
		return 0
	}
	return round2(monthHours / expected * 100)
}
