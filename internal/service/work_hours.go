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

type WorkHourService struct {
	hours *repository.WorkHourRepo
	now   Clock
}

func NewWorkHourService(hours *repository.WorkHourRepo, now Clock) *WorkHourService {
	return &WorkHourService{hours: hours, now: now.orDefault()}
}

// WorkHourQuery are the list and summary filters accepted from the client.
// Year and Month select a whole month and win over StartDate/EndDate.
type WorkHourQuery struct {
	UserID    uint64
	StartDate model.Date
	EndDate   model.Date
	Year      int
	Month     time.Month
}

func (q WorkHourQuery) month() (model.Date, model.Date, bool, error) {
	if q.Year == 0 && q.Month == 0 {
		return model.Date{}, model.Date{}, false, nil
	}
	if q.Year < 1 || q.Month < time.January || q.Month > time.December {
		return model.Date{}, model.Date{}, false, apperr.BadRequestMsg("year and month must both be valid")
	}
	from, to := clock.MonthRange(time.Date(q.Year, q.Month, 1, 0, 0, 0, 0, time.UTC))
	return model.NewDate(from), model.NewDate(to), true, nil
}

func (s *WorkHourService) List(ctx context.Context, actor authz.Actor, q WorkHourQuery) ([]model.WorkHour, error) {
	f := repository.WorkHourFilter{UserID: ownerScope(actor, authz.WorkHour, q.UserID)}
	if !q.StartDate.IsZero() && !q.EndDate.IsZero() {
		f.From, f.To = q.StartDate, q.EndDate
	}
	from, to, ok, err := q.month()
	if err != nil {
		return nil, err
	}
	if ok {
		f.From, f.To = from, to
	}
	return s.hours.List(ctx, f)
}

// ForUser lists one user's entries. Standard users may only list their own.
func (s *WorkHourService) ForUser(ctx context.Context, actor authz.Actor, userID uint64) ([]model.WorkHour, error) {
	if err := authz.Authorize(actor, authz.On(authz.User, userID), authz.Read); err != nil {
		return nil, err
	}
	return s.hours.List(ctx, repository.WorkHourFilter{UserID: userID})
}

func (s *WorkHourService) Get(ctx context.Context, actor authz.Actor, id uint64) (model.WorkHour, error) {
	w, err := s.hours.GetByID(ctx, id)
	if err != nil {
		return w, storeErr(err, "Work hour")
	}
	if err := authz.Authorize(actor, authz.On(authz.WorkHour, w.UserID), authz.Read); err != nil {
		return model.WorkHour{}, err
	}
	return w, nil
}

// Create logs an entry. Standard users always log for themselves.
func (s *WorkHourService) Create(ctx context.Context, actor authz.Actor, w model.WorkHour) (model.WorkHour, error) {
	if !actor.Role.IsAdmin() {
		w.UserID = actor.ID
	}
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.WorkHour, OwnerID: w.UserID, AssignTo: w.UserID}, authz.Create); err != nil {
		return w, err
	}
	w.ID = 0
	if err := invalid(w.Validate()); err != nil {
		return w, err
	}
	if err := s.hours.Create(ctx, &w); err != nil {
		return w, storeErr(err, "Work hour")
	}
	return w, nil
}

// WorkHourPatch holds the fields an update may change. ClearEndTime reopens
// the session.
type WorkHourPatch struct {
	UserID              *uint64
	TaskID              *uint64
	ClearTask           bool
	WorkDate            *model.Date
	StartTime           *model.ClockTime
	EndTime             *model.ClockTime
	ClearEndTime        bool
	HoursWorked         *float64
	ActivityDescription *string
}

// Update changes an entry, recomputing hours when both ends are known.
func (s *WorkHourService) Update(ctx context.Context, actor authz.Actor, id uint64, p WorkHourPatch) (model.WorkHour, error) {
	w, err := s.hours.GetByID(ctx, id)
	if err != nil {
		return w, storeErr(err, "Work hour")
	}
	res := authz.On(authz.WorkHour, w.UserID)
	if p.UserID != nil {
		res.AssignTo = *p.UserID
	}
	if err := authz.Authorize(actor, res, authz.Update); err != nil {
		return w, err
	}
	if p.UserID != nil {
		w.UserID = *p.UserID
	}
	switch {
	case p.ClearTask:
		w.TaskID = nil
	case p.TaskID != nil:
		w.TaskID = p.TaskID
	}
	if p.WorkDate != nil {
		w.WorkDate = *p.WorkDate
	}
	if p.StartTime != nil {
		w.StartTime = *p.StartTime
	}
	switch {
	case p.ClearEndTime:
		w.EndTime = nil
	case p.EndTime != nil:
		w.EndTime = p.EndTime
	}
	if p.HoursWorked != nil {
		w.HoursWorked = *p.HoursWorked
	}
	if p.ActivityDescription != nil {
		w.ActivityDescription = *p.ActivityDescription
	}
	if err := invalid(w.Validate()); err != nil {
		return w, err
	}
	if err := s.hours.Update(ctx, &w); err != nil {
		return w, storeErr(err, "Work hour")
	}
	return w, nil
}

// Delete removes an entry. Owners and admins may delete.
func (s *WorkHourService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	w, err := s.hours.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "Work hour")
	}
	if err := authz.Authorize(actor, authz.On(authz.WorkHour, w.UserID), authz.Delete); err != nil {
		return err
	}
	return storeErr(s.hours.Delete(ctx, id), "Work hour")
}

// Period is an inclusive date range echoed in summaries.
type Period struct {
	StartDate model.Date `json:"start_date"`
	EndDate   model.Date `json:"end_date"`
}

// TeamHoursSummary is the admin summary: hours per user.
type TeamHoursSummary struct {
	Period     Period            `json:"period"`
	TotalHours float64           `json:"total_hours"`
	Users      []model.UserHours `json:"users"`
}

// PersonalHoursSummary is a standard user's summary.
type PersonalHoursSummary struct {
	Period        Period             `json:"period"`
	TotalHours    float64            `json:"total_hours"`
	DailyHours    map[string]float64 `json:"daily_hours"`
	WeeklyHours   map[string]float64 `json:"weekly_hours"`
	TaskBreakdown map[string]float64 `json:"task_breakdown"`
}

// Summary reports the hours of a period, by default the month to date. Admins
// get the per-user table, everyone else their own breakdown.
func (s *WorkHourService) Summary(ctx context.Context, actor authz.Actor, q WorkHourQuery) (any, error) {
	from, to, ok, err := q.month()
	if err != nil {
		return nil, err
	}
	if !ok {
		start, end := clock.MonthToDate(s.now())
		from, to = model.NewDate(start), model.NewDate(end)
	}
	period := Period{StartDate: from, EndDate: to}

	if authz.Allowed(actor, authz.Resource{Kind: authz.WorkHour}, authz.ListAll) {
		f := repository.WorkHourFilter{UserID: q.UserID, From: from, To: to}
		users, err := s.hours.SumByUser(ctx, f)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, u := range users {
			total += u.HoursWorked
		}
		return TeamHoursSummary{Period: period, TotalHours: aggregate.Round2(total), Users: users}, nil
	}

	f := repository.WorkHourFilter{UserID: actor.ID, From: from, To: to}
	points, err := s.hours.Points(ctx, f)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.hours.SumByTask(ctx, f)
	if err != nil {
		return nil, err
	}
	return PersonalHoursSummary{
		Period:        period,
		TotalHours:    aggregate.Sum(points),
		DailyHours:    aggregate.GroupByDay(points, from.Time, to.Time),
		WeeklyHours:   aggregate.GroupByWeek(points, from.Time, to.Time),
		TaskBreakdown: breakdown,
	}, nil
}
