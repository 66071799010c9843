package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/conductor/internal/aggregate"
	"github.com/iliyamo/conductor/internal/clock"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/repository"
)

const (
	dashboardListSize     = 5
	dashboardPaymentsSize = 3
	activeUserWindowDays  = 30
)

// DashboardService composes the role-specific dashboards. Nothing is cached;
// every call reads the current state.
type DashboardService struct {
	users    *repository.UserRepo
	projects *repository.ProjectRepo
	tasks    *repository.TaskRepo
	hours    *repository.WorkHourRepo
	payments *repository.PaymentRepo
	now      Clock
}

func NewDashboardService(users *repository.UserRepo, projects *repository.ProjectRepo, tasks *repository.TaskRepo,
	hours *repository.WorkHourRepo, payments *repository.PaymentRepo, now Clock) *DashboardService {
	return &DashboardService{users: users, projects: projects, tasks: tasks, hours: hours, payments: payments, now: now.orDefault()}
}

// TaskBrief is the compact task shape of dashboard lists.
type TaskBrief struct {
	ID       uint64             `json:"id"`
	Title    string             `json:"title"`
	DueDate  model.Date         `json:"due_date"`
	Status   model.TaskStatus   `json:"status"`
	Priority model.TaskPriority `json:"priority"`
}

func briefs(tasks []model.Task) []TaskBrief {
	out := make([]TaskBrief, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskBrief{ID: t.ID, Title: t.Title, DueDate: t.DueDate, Status: t.Status, Priority: t.Priority})
	}
	return out
}

type DashboardUser struct {
	ID         uint64              `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	HourlyRate decimal.NullDecimal `json:"hourly_rate"`
}

// MonthHours compares the month to date against last month up to the same
// day. MonthChangePercentage is null when last month had no hours.
type MonthHours struct {
	DailyHours            map[string]float64 `json:"daily_hours,omitempty"`
	CurrentMonthTotal     float64            `json:"current_month_total"`
	LastMonthTotal        float64            `json:"last_month_total"`
	MonthChangePercentage *float64           `json:"month_change_percentage"`
}

type UserTasks struct {
	Upcoming       []TaskBrief              `json:"upcoming"`
	StatusCounts   map[model.TaskStatus]int `json:"status_counts"`
	TotalCount     int                      `json:"total_count"`
	CompletedCount int                      `json:"completed_count"`
}

type Income struct {
	RecentPayments []model.PaymentDetail `json:"recent_payments"`
	AnnualTotal    decimal.Decimal       `json:"annual_total"`
	PendingTotal   decimal.Decimal       `json:"pending_total"`
}

// UserDashboard is the standard user's view.
type UserDashboard struct {
	User         DashboardUser      `json:"user"`
	WorkingHours MonthHours         `json:"working_hours"`
	Tasks        UserTasks          `json:"tasks"`
	WeeklyTasks  []TaskBrief        `json:"weekly_tasks"`
	CalendarData map[string]float64 `json:"calendar_data"`
	Income       Income             `json:"income"`
	LastUpdated  time.Time          `json:"last_updated"`
}

type UserCounts struct {
	TotalCount  int `json:"total_count"`
	ActiveCount int `json:"active_count"`
}

type ProjectCounts struct {
	TotalCount     int `json:"total_count"`
	ActiveCount    int `json:"active_count"`
	CompletedCount int `json:"completed_count"`
	DelayedCount   int `json:"delayed_count"`
}

type TaskCounts struct {
	TotalCount   int                      `json:"total_count"`
	StatusCounts map[model.TaskStatus]int `json:"status_counts"`
	OverdueCount int                      `json:"overdue_count"`
}

// PaymentTotals compares whole calendar months.
type PaymentTotals struct {
	CurrentMonthTotal     decimal.Decimal `json:"current_month_total"`
	LastMonthTotal        decimal.Decimal `json:"last_month_total"`
	MonthChangePercentage *float64        `json:"month_change_percentage"`
	PendingAmount         decimal.Decimal `json:"pending_amount"`
}

type RecentActivity struct {
	Tasks     []model.TaskActivity     `json:"tasks"`
	WorkHours []model.WorkHourActivity `json:"work_hours"`
}

type DelayedProject struct {
	ID      uint64              `json:"id"`
	Name    string              `json:"name"`
	EndDate model.Date          `json:"end_date"`
	Status  model.ProjectStatus `json:"status"`
}

type Attention struct {
	DelayedProjects []DelayedProject `json:"delayed_projects"`
}

// AdminDashboard is the system-wide view.
type AdminDashboard struct {
	Users             UserCounts     `json:"users"`
	Projects          ProjectCounts  `json:"projects"`
	Tasks             TaskCounts     `json:"tasks"`
	WorkingHours      MonthHours     `json:"working_hours"`
	Payments          PaymentTotals  `json:"payments"`
	RecentActivity    RecentActivity `json:"recent_activity"`
	AttentionRequired Attention      `json:"attention_required"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// For returns the dashboard matching the user's role.
func (s *DashboardService) For(ctx context.Context, u model.User) (any, error) {
	if u.Role.IsAdmin() {
		return s.Admin(ctx)
	}
	return s.User(ctx, u)
}

// periods are the date windows of one dashboard computation, all anchored on
// the same calendar day.
type periods struct {
	today                       time.Time
	monthStart, monthEnd        time.Time
	lastMonthStart, lastSameDay time.Time
}

func newPeriods(now time.Time) periods {
	today := model.NewDate(now).Time
	p := periods{today: today}
	p.monthStart, p.monthEnd = clock.MonthRange(today)
	p.lastMonthStart, p.lastSameDay = clock.LastMonthToSameDay(today)
	return p
}

func (p periods) monthHours(points []aggregate.Point, daily bool) MonthHours {
	cur := aggregate.SumInRange(points, p.monthStart, p.today)
	last := aggregate.SumInRange(points, p.lastMonthStart, p.lastSameDay)
	mh := MonthHours{
		CurrentMonthTotal:     cur,
		LastMonthTotal:        last,
		MonthChangePercentage: aggregate.PercentChange(cur, last),
	}
	if daily {
		mh.DailyHours = aggregate.GroupByDay(points, p.monthStart, p.today)
	}
	return mh
}

func (s *DashboardService) User(ctx context.Context, u model.User) (UserDashboard, error) {
	now := s.now()
	p := newPeriods(now)

	points, err := s.hours.Points(ctx, repository.WorkHourFilter{
		UserID: u.ID,
		From:   model.NewDate(p.lastMonthStart),
		To:     model.NewDate(p.monthEnd),
	})
	if err != nil {
		return UserDashboard{}, err
	}

	upcoming, err := s.tasks.Upcoming(ctx, u.ID, dashboardListSize)
	if err != nil {
		return UserDashboard{}, err
	}
	counts, err := s.tasks.CountByStatus(ctx, u.ID)
	if err != nil {
		return UserDashboard{}, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	ws, we := clock.WeekRange(p.today)
	weekly, err := s.tasks.DueBetween(ctx, u.ID, model.NewDate(ws), model.NewDate(we))
	if err != nil {
		return UserDashboard{}, err
	}

	income, err := s.income(ctx, u.ID, p.today)
	if err != nil {
		return UserDashboard{}, err
	}

	mh := p.monthHours(points, true)
	return UserDashboard{
		User:         DashboardUser{ID: u.ID, Name: u.Name, Email: u.Email, HourlyRate: u.HourlyRate},
		WorkingHours: mh,
		Tasks: UserTasks{
			Upcoming:       briefs(upcoming),
			StatusCounts:   counts,
			TotalCount:     total,
			CompletedCount: counts[model.TaskCompleted],
		},
		WeeklyTasks:  briefs(weekly),
		CalendarData: aggregate.GroupByDay(points, p.monthStart, p.monthEnd),
		Income:       income,
		LastUpdated:  now.UTC(),
	}, nil
}

// income sums paid payments of the current year and everything still pending.
func (s *DashboardService) income(ctx context.Context, userID uint64, today time.Time) (Income, error) {
	recent, err := s.payments.List(ctx, repository.PaymentFilter{UserID: userID, Limit: dashboardPaymentsSize})
	if err != nil {
		return Income{}, err
	}
	ys, ye := clock.YearRange(today)
	annual, err := s.payments.Total(ctx, repository.PaymentFilter{
		UserID: userID,
		Status: model.PaymentPaid,
		From:   model.NewDate(ys),
		To:     model.NewDate(ye),
	})
	if err != nil {
		return Income{}, err
	}
	pending, err := s.payments.Total(ctx, repository.PaymentFilter{UserID: userID, Status: model.PaymentPending})
	if err != nil {
		return Income{}, err
	}
	return Income{RecentPayments: recent, AnnualTotal: annual, PendingTotal: pending}, nil
}

func (s *DashboardService) Admin(ctx context.Context) (AdminDashboard, error) {
	now := s.now()
	p := newPeriods(now)
	today := model.NewDate(p.today)
	var d AdminDashboard
	var err error

	if d.Users.TotalCount, err = s.users.Count(ctx); err != nil {
		return d, err
	}
	d.Users.ActiveCount, err = s.hours.CountActiveUsers(ctx, repository.WorkHourFilter{
		From: model.NewDate(p.today.AddDate(0, 0, -activeUserWindowDays)),
	})
	if err != nil {
		return d, err
	}

	projectCounts, err := s.projects.CountByStatus(ctx)
	if err != nil {
		return d, err
	}
	for _, n := range projectCounts {
		d.Projects.TotalCount += n
	}
	d.Projects.ActiveCount = projectCounts[model.ProjectActive]
	d.Projects.CompletedCount = projectCounts[model.ProjectCompleted]
	if d.Projects.DelayedCount, err = s.projects.CountDelayed(ctx, today); err != nil {
		return d, err
	}

	if d.Tasks.StatusCounts, err = s.tasks.CountByStatus(ctx, 0); err != nil {
		return d, err
	}
	for _, n := range d.Tasks.StatusCounts {
		d.Tasks.TotalCount += n
	}
	if d.Tasks.OverdueCount, err = s.tasks.CountOverdue(ctx, 0, today); err != nil {
		return d, err
	}

	points, err := s.hours.Points(ctx, repository.WorkHourFilter{
		From: model.NewDate(p.lastMonthStart),
		To:   today,
	})
	if err != nil {
		return d, err
	}
	d.WorkingHours = p.monthHours(points, false)

	if d.Payments, err = s.paymentTotals(ctx, p); err != nil {
		return d, err
	}

	if d.RecentActivity.Tasks, err = s.tasks.Recent(ctx, dashboardListSize); err != nil {
		return d, err
	}
	if d.RecentActivity.WorkHours, err = s.hours.Recent(ctx, dashboardListSize); err != nil {
		return d, err
	}

	delayed, err := s.projects.Delayed(ctx, today, dashboardListSize)
	if err != nil {
		return d, err
	}
	d.AttentionRequired.DelayedProjects = make([]DelayedProject, 0, len(delayed))
	for _, pr := range delayed {
		d.AttentionRequired.DelayedProjects = append(d.AttentionRequired.DelayedProjects,
			DelayedProject{ID: pr.ID, Name: pr.Name, EndDate: pr.EndDate, Status: pr.Status})
	}
	d.LastUpdated = now.UTC()
	return d, nil
}

// paymentTotals compares the current calendar month with the whole previous
// one, keyed by year_month.
func (s *DashboardService) paymentTotals(ctx context.Context, p periods) (PaymentTotals, error) {
	var (
		t   PaymentTotals
		err error
	)
	t.CurrentMonthTotal, err = s.payments.Total(ctx, repository.PaymentFilter{
		From: model.NewDate(p.monthStart), To: model.NewDate(p.monthEnd),
	})
	if err != nil {
		return t, err
	}
	prevStart, prevEnd := clock.MonthRange(clock.PreviousMonth(p.today))
	t.LastMonthTotal, err = s.payments.Total(ctx, repository.PaymentFilter{
		From: model.NewDate(prevStart), To: model.NewDate(prevEnd),
	})
	if err != nil {
		return t, err
	}
	t.MonthChangePercentage = aggregate.PercentChange(t.CurrentMonthTotal.InexactFloat64(), t.LastMonthTotal.InexactFloat64())
	t.PendingAmount, err = s.payments.Total(ctx, repository.PaymentFilter{Status: model.PaymentPending})
	return t, err
}
