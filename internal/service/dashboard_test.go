package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conductor/internal/database"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/repository"
)

// wednesday 2025-03-12
var fixedNow = time.Date(2025, time.March, 12, 15, 4, 5, 0, time.UTC)

type store struct {
	db       *sql.DB
	users    *repository.UserRepo
	clients  *repository.ClientRepo
	projects *repository.ProjectRepo
	tasks    *repository.TaskRepo
	hours    *repository.WorkHourRepo
	payments *repository.PaymentRepo
}

func openStore(t *testing.T) store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	return store{
		db:       db,
		users:    repository.NewUserRepo(db),
		clients:  repository.NewClientRepo(db),
		projects: repository.NewProjectRepo(db),
		tasks:    repository.NewTaskRepo(db),
		hours:    repository.NewWorkHourRepo(db),
		payments: repository.NewPaymentRepo(db),
	}
}

func (s store) user(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Email: email, Name: email, Role: role, PasswordHash: "x"}
	require.NoError(t, s.users.Create(context.Background(), &u))
	return u
}

func (s store) project(t *testing.T, status model.ProjectStatus, end model.Date) model.Project {
	t.Helper()
	ctx := context.Background()
	c := model.Client{Name: "Acme"}
	require.NoError(t, s.clients.Create(ctx, &c))
	p := model.Project{ClientID: c.ID, Name: "Website", Status: status, EndDate: end}
	require.NoError(t, s.projects.Create(ctx, &p))
	return p
}

func (s store) task(t *testing.T, userID, projectID uint64, title string, status model.TaskStatus, due model.Date) model.Task {
	t.Helper()
	task := model.Task{UserID: userID, ProjectID: projectID, Title: title, Status: status, Priority: model.PriorityMedium, DueDate: due}
	require.NoError(t, s.tasks.Create(context.Background(), &task))
	return task
}

func (s store) logHours(t *testing.T, userID uint64, taskID *uint64, day model.Date, hours int) {
	t.Helper()
	end := model.NewClockTime(9+hours, 0)
	w := model.WorkHour{UserID: userID, TaskID: taskID, WorkDate: day, StartTime: model.NewClockTime(9, 0), EndTime: &end}
	require.Empty(t, w.Validate())
	require.NoError(t, s.hours.Create(context.Background(), &w))
}

func (s store) dashboard() *DashboardService {
	return NewDashboardService(s.users, s.projects, s.tasks, s.hours, s.payments, func() time.Time { return fixedNow })
}

func TestUserDashboardWithoutLastMonthHasNullChange(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u := s.user(t, "ann@example.com", model.RoleStandard)
	p := s.project(t, model.ProjectActive, model.Date{})
	due := s.task(t, u.ID, p.ID, "ship", model.TaskInProgress, model.DateOf(2025, time.March, 14))
	s.task(t, u.ID, p.ID, "done", model.TaskCompleted, model.Date{})

	s.logHours(t, u.ID, &due.ID, model.DateOf(2025, time.March, 3), 8)
	s.logHours(t, u.ID, nil, model.DateOf(2025, time.March, 12), 2)
	// later this month: calendar only
	s.logHours(t, u.ID, nil, model.DateOf(2025, time.March, 20), 1)

	d, err := s.dashboard().User(ctx, u)
	require.NoError(t, err)

	assert.Equal(t, 10.0, d.WorkingHours.CurrentMonthTotal)
	assert.Equal(t, 0.0, d.WorkingHours.LastMonthTotal)
	assert.Nil(t, d.WorkingHours.MonthChangePercentage)
	assert.Len(t, d.WorkingHours.DailyHours, 2)
	assert.Equal(t, 8.0, d.WorkingHours.DailyHours["2025-03-03"])
	assert.Len(t, d.CalendarData, 3)
	assert.Equal(t, 1.0, d.CalendarData["2025-03-20"])

	assert.Equal(t, 2, d.Tasks.TotalCount)
	assert.Equal(t, 1, d.Tasks.CompletedCount)
	require.Len(t, d.Tasks.Upcoming, 1)
	assert.Equal(t, due.ID, d.Tasks.Upcoming[0].ID)
	require.Len(t, d.WeeklyTasks, 1)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"month_change_percentage":null`)
}

func TestUserDashboardComparesSameDayOfLastMonth(t *testing.T) {
	s := openStore(t)
	u := s.user(t, "ann@example.com", model.RoleStandard)
	s.logHours(t, u.ID, nil, model.DateOf(2025, time.February, 10), 4)
	// after the same day last month: not compared
	s.logHours(t, u.ID, nil, model.DateOf(2025, time.February, 20), 6)
	s.logHours(t, u.ID, nil, model.DateOf(2025, time.March, 5), 6)

	d, err := s.dashboard().User(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, 4.0, d.WorkingHours.LastMonthTotal)
	require.NotNil(t, d.WorkingHours.MonthChangePercentage)
	assert.Equal(t, 50.0, *d.WorkingHours.MonthChangePercentage)
}

func TestUserDashboardIncome(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u := s.user(t, "ann@example.com", model.RoleStandard)
	c := model.Client{Name: "Acme"}
	require.NoError(t, s.clients.Create(ctx, &c))

	add := func(month time.Month, year int, status model.PaymentStatus, total int64) {
		p := model.MonthlyPayment{UserID: u.ID, ClientID: c.ID, YearMonth: model.DateOf(year, month, 1), PaymentStatus: status}
		p.ApplyDefaults()
		p.TotalAmount = decimal.NewFromInt(total)
		require.NoError(t, s.payments.Create(ctx, &p))
	}
	add(time.January, 2025, model.PaymentPaid, 1000)
	add(time.February, 2025, model.PaymentPaid, 2000)
	add(time.March, 2025, model.PaymentPending, 500)
	add(time.December, 2024, model.PaymentPaid, 9000)

	d, err := s.dashboard().User(ctx, u)
	require.NoError(t, err)
	assert.Len(t, d.Income.RecentPayments, 3)
	assert.True(t, d.Income.AnnualTotal.Equal(decimal.NewFromInt(3000)), d.Income.AnnualTotal.String())
	assert.True(t, d.Income.PendingTotal.Equal(decimal.NewFromInt(500)), d.Income.PendingTotal.String())
}

func TestAdminDashboard(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	root := s.user(t, "root@example.com", model.RoleAdmin)
	ann := s.user(t, "ann@example.com", model.RoleStandard)
	s.user(t, "bob@example.com", model.RoleStandard)

	late := s.project(t, model.ProjectActive, model.DateOf(2025, time.March, 1))
	s.project(t, model.ProjectCompleted, model.DateOf(2025, time.January, 1))
	s.task(t, ann.ID, late.ID, "overdue", model.TaskInProgress, model.DateOf(2025, time.March, 10))
	s.task(t, ann.ID, late.ID, "fine", model.TaskNotStarted, model.DateOf(2025, time.April, 1))
	s.logHours(t, ann.ID, nil, model.DateOf(2025, time.March, 11), 3)

	c := model.Client{Name: "Beta"}
	require.NoError(t, s.clients.Create(ctx, &c))
	for _, ym := range []model.Date{model.DateOf(2025, time.March, 1), model.DateOf(2025, time.February, 1)} {
		p := model.MonthlyPayment{UserID: ann.ID, ClientID: c.ID, YearMonth: ym, TotalAmount: decimal.NewFromInt(100)}
		p.ApplyDefaults()
		require.NoError(t, s.payments.Create(ctx, &p))
	}

	got, err := s.dashboard().For(ctx, root)
	require.NoError(t, err)
	d, ok := got.(AdminDashboard)
	require.True(t, ok)

	assert.Equal(t, 3, d.Users.TotalCount)
	assert.Equal(t, 1, d.Users.ActiveCount)
	assert.Equal(t, 2, d.Projects.TotalCount)
	assert.Equal(t, 1, d.Projects.ActiveCount)
	assert.Equal(t, 1, d.Projects.CompletedCount)
	assert.Equal(t, 1, d.Projects.DelayedCount)
	assert.Equal(t, 2, d.Tasks.TotalCount)
	assert.Equal(t, 1, d.Tasks.OverdueCount)
	assert.Equal(t, 3.0, d.WorkingHours.CurrentMonthTotal)
	assert.Nil(t, d.WorkingHours.MonthChangePercentage)
	assert.True(t, d.Payments.CurrentMonthTotal.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, d.Payments.MonthChangePercentage)
	assert.Equal(t, 0.0, *d.Payments.MonthChangePercentage)
	assert.True(t, d.Payments.PendingAmount.Equal(decimal.NewFromInt(200)))
	assert.Len(t, d.RecentActivity.Tasks, 2)
	assert.Len(t, d.RecentActivity.WorkHours, 1)
	require.Len(t, d.AttentionRequired.DelayedProjects, 1)
	assert.Equal(t, late.ID, d.AttentionRequired.DelayedProjects[0].ID)

	_, ok = mustDashboard(t, s, ann).(UserDashboard)
	assert.True(t, ok)
}

func mustDashboard(t *testing.T, s store, u model.User) any {
	t.Helper()
	d, err := s.dashboard().For(context.Background(), u)
	require.NoError(t, err)
	return d
}
