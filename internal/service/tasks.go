package service

import (
	"context"
	"time"

	"github.com/iliyamo/conductor/internal/aggregate"
	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/clock"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/repository"
)

// Task list periods.
const (
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodOverdue = "overdue"
)

type TaskService struct {
	tasks *repository.TaskRepo
	hours *repository.WorkHourRepo
	now   Clock
}

func NewTaskService(tasks *repository.TaskRepo, hours *repository.WorkHourRepo, now Clock) *TaskService {
	return &TaskService{tasks: tasks, hours: hours, now: now.orDefault()}
}

// TaskQuery are the list filters accepted from the client.
type TaskQuery struct {
	UserID    uint64
	ProjectID uint64
	Status    model.TaskStatus
	Priority  model.TaskPriority
	Period    string
	StartDate model.Date
	EndDate   model.Date
}

func (s *TaskService) filter(actor authz.Actor, q TaskQuery) (repository.TaskFilter, error) {
	f := repository.TaskFilter{
		UserID:    ownerScope(actor, authz.Task, q.UserID),
		ProjectID: q.ProjectID,
		Status:    q.Status,
		Priority:  q.Priority,
	}
	now := s.now()
	switch q.Period {
	case "":
	case PeriodWeek:
		from, to := clock.WeekRange(now)
		f.DueFrom, f.DueTo = model.NewDate(from), model.NewDate(to)
	case PeriodMonth:
		from, to := clock.MonthRange(now)
		f.DueFrom, f.DueTo = model.NewDate(from), model.NewDate(to)
	case PeriodOverdue:
		f.OverdueAt = model.NewDate(now)
	default:
		return f, apperr.BadRequestMsg("period must be one of week, month, overdue")
	}
	if !q.StartDate.IsZero() && !q.EndDate.IsZero() {
		f.DueFrom, f.DueTo = q.StartDate, q.EndDate
	}
	return f, nil
}

func (s *TaskService) List(ctx context.Context, actor authz.Actor, q TaskQuery) ([]model.TaskListItem, error) {
	f, err := s.filter(actor, q)
	if err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, f)
}

// Get returns the task with its work hours and derived figures.
func (s *TaskService) Get(ctx context.Context, actor authz.Actor, id uint64) (model.TaskDetail, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return model.TaskDetail{}, storeErr(err, "Task")
	}
	if err := authz.Authorize(actor, authz.On(authz.Task, t.UserID), authz.Read); err != nil {
		return model.TaskDetail{}, err
	}
	d, err := s.detail(ctx, t)
	if err != nil {
		return d, err
	}
	d.WorkHours, err = s.hours.List(ctx, repository.WorkHourFilter{TaskID: id})
	return d, err
}

// detail computes actual, remaining and projected completion. The pace is
// the assignee's hours over the seven days ending today.
func (s *TaskService) detail(ctx context.Context, t model.Task) (model.TaskDetail, error) {
	actual, err := s.hours.Sum(ctx, repository.WorkHourFilter{TaskID: t.ID})
	if err != nil {
		return model.TaskDetail{}, err
	}
	today := s.now.today()
	recent, err := s.hours.Sum(ctx, repository.WorkHourFilter{
		UserID: t.UserID,
		From:   model.NewDate(today.AddDate(0, 0, -6)),
		To:     today,
	})
	if err != nil {
		return model.TaskDetail{}, err
	}
	return model.TaskDetail{
		Task:                    t,
		ActualHoursWorked:       actual,
		RemainingHours:          t.RemainingHours(actual),
		EstimatedCompletionDate: t.EstimatedCompletion(today, actual, recent),
	}, nil
}

// Create adds a task. Standard users always create for themselves.
func (s *TaskService) Create(ctx context.Context, actor authz.Actor, t model.Task) (model.TaskDetail, error) {
	if !actor.Role.IsAdmin() {
		t.UserID = actor.ID
	}
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Task, OwnerID: t.UserID, AssignTo: t.UserID}, authz.Create); err != nil {
		return model.TaskDetail{}, err
	}
	t.ID = 0
	t.ApplyDefaults()
	if err := invalid(t.Validate()); err != nil {
		return model.TaskDetail{}, err
	}
	if err := s.tasks.Create(ctx, &t); err != nil {
		return model.TaskDetail{}, storeErr(err, "Task")
	}
	return s.detail(ctx, t)
}

// TaskPatch holds the fields an update may change.
type TaskPatch struct {
	UserID         *uint64
	ProjectID      *uint64
	Title          *string
	Description    *string
	StartDate      *model.Date
	DueDate        *model.Date
	Status         *model.TaskStatus
	Priority       *model.TaskPriority
	EstimatedHours *float64
}

// Update changes a task. Moving it to another user requires admin rights.
func (s *TaskService) Update(ctx context.Context, actor authz.Actor, id uint64, p TaskPatch) (model.TaskDetail, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return model.TaskDetail{}, storeErr(err, "Task")
	}
	res := authz.On(authz.Task, t.UserID)
	if p.UserID != nil {
		res.AssignTo = *p.UserID
	}
	if err := authz.Authorize(actor, res, authz.Update); err != nil {
		return model.TaskDetail{}, err
	}
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.EstimatedHours != nil {
		t.EstimatedHours = p.EstimatedHours
	}
	if err := invalid(t.Validate()); err != nil {
		return model.TaskDetail{}, err
	}
	if err := s.tasks.Update(ctx, &t); err != nil {
		return model.TaskDetail{}, storeErr(err, "Task")
	}
	return s.detail(ctx, t)
}

// Delete removes a task and its work hours. Admin only.
func (s *TaskService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "Task")
	}
	if err := authz.Authorize(actor, authz.On(authz.Task, t.UserID), authz.Delete); err != nil {
		return err
	}
	return storeErr(s.tasks.Delete(ctx, id), "Task")
}

// WorkHours lists the entries booked on a task.
func (s *TaskService) WorkHours(ctx context.Context, actor authz.Actor, id uint64) ([]model.WorkHour, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Task")
	}
	if err := authz.Authorize(actor, authz.On(authz.Task, t.UserID), authz.Read); err != nil {
		return nil, err
	}
	return s.hours.List(ctx, repository.WorkHourFilter{TaskID: id})
}

// TaskSummary counts tasks along several dimensions.
type TaskSummary struct {
	TotalCount     int                        `json:"total_count"`
	StatusCounts   map[model.TaskStatus]int   `json:"status_counts"`
	OverdueCount   int                        `json:"overdue_count"`
	ThisWeekCount  int                        `json:"this_week_count"`
	PriorityCounts map[model.TaskPriority]int `json:"priority_counts"`
	ProjectCounts  map[string]int             `json:"project_counts"`
}

// Summary counts the caller's tasks, or one user's or everyone's for admins.
func (s *TaskService) Summary(ctx context.Context, actor authz.Actor, userID uint64) (TaskSummary, error) {
	items, err := s.tasks.List(ctx, repository.TaskFilter{UserID: ownerScope(actor, authz.Task, userID)})
	if err != nil {
		return TaskSummary{}, err
	}
	return summarizeTasks(items, s.now()), nil
}

func summarizeTasks(items []model.TaskListItem, now time.Time) TaskSummary {
	today := model.NewDate(now)
	ws, we := clock.WeekRange(now)
	weekStart, weekEnd := model.NewDate(ws), model.NewDate(we)
	sum := TaskSummary{
		TotalCount:     len(items),
		StatusCounts:   map[model.TaskStatus]int{},
		PriorityCounts: map[model.TaskPriority]int{},
		ProjectCounts:  map[string]int{},
	}
	for _, it := range items {
		sum.StatusCounts[it.Status]++
		sum.PriorityCounts[it.Priority]++
		sum.ProjectCounts[it.Project.Name]++
		if it.Overdue(today) {
			sum.OverdueCount++
		}
		if !it.DueDate.IsZero() && !it.DueDate.Before(weekStart) && !it.DueDate.After(weekEnd) {
			sum.ThisWeekCount++
		}
	}
	return sum
}

// CalendarEntry is a task placed on one calendar day.
type CalendarEntry struct {
	ID        uint64             `json:"id"`
	Title     string             `json:"title"`
	Status    model.TaskStatus   `json:"status"`
	Priority  model.TaskPriority `json:"priority"`
	IsDueDate bool               `json:"is_due_date"`
}

// Calendar lays the caller's tasks of a month out by day.
func (s *TaskService) Calendar(ctx context.Context, actor authz.Actor, year int, month time.Month) (map[string][]CalendarEntry, error) {
	if month < time.January || month > time.December || year < 1 {
		return nil, apperr.BadRequestMsg("year and month are required")
	}
	from, to := clock.MonthRange(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	tasks, err := s.tasks.InMonth(ctx, actor.ID, model.NewDate(from), model.NewDate(to))
	if err != nil {
		return nil, err
	}
	return spreadCalendar(tasks, model.NewDate(from), model.NewDate(to)), nil
}

// spreadCalendar places each task on every day from its start (or due date
// when it has no start) to its due date, clipped to [from, to]. A task
// without a due date runs to the end of the month.
func spreadCalendar(tasks []model.Task, from, to model.Date) map[string][]CalendarEntry {
	out := map[string][]CalendarEntry{}
	for _, t := range tasks {
		start := t.StartDate
		if start.IsZero() {
			start = t.DueDate
		}
		if start.Before(from) {
			start = from
		}
		end := to
		if !t.DueDate.IsZero() && t.DueDate.Before(to) {
			end = t.DueDate
		}
		for d := start; !d.After(end); d = model.NewDate(d.AddDate(0, 0, 1)) {
			key := d.Format(aggregate.DayLayout)
			out[key] = append(out[key], CalendarEntry{
				ID:        t.ID,
				Title:     t.Title,
				Status:    t.Status,
				Priority:  t.Priority,
				IsDueDate: !t.DueDate.IsZero() && d.Equal(t.DueDate.Time),
			})
		}
	}
	return out
}
