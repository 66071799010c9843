package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/model"
)

func actorOf(u model.User) authz.Actor { return authz.Actor{ID: u.ID, Role: u.Role} }

func TestSpreadCalendar(t *testing.T) {
	from, to := model.DateOf(2025, time.March, 1), model.DateOf(2025, time.March, 31)
	tasks := []model.Task{
		{ID: 1, Title: "span", StartDate: model.DateOf(2025, time.February, 27), DueDate: model.DateOf(2025, time.March, 2)},
		{ID: 2, Title: "due only", DueDate: model.DateOf(2025, time.March, 10)},
		{ID: 3, Title: "open ended", StartDate: model.DateOf(2025, time.March, 30)},
	}
	cal := spreadCalendar(tasks, from, to)

	require.Len(t, cal["2025-03-01"], 1)
	assert.False(t, cal["2025-03-01"][0].IsDueDate)
	require.Len(t, cal["2025-03-02"], 1)
	assert.True(t, cal["2025-03-02"][0].IsDueDate)
	assert.Empty(t, cal["2025-03-03"])

	require.Len(t, cal["2025-03-10"], 1)
	assert.Equal(t, uint64(2), cal["2025-03-10"][0].ID)
	assert.True(t, cal["2025-03-10"][0].IsDueDate)

	assert.Len(t, cal["2025-03-30"], 1)
	assert.Len(t, cal["2025-03-31"], 1)
	assert.False(t, cal["2025-03-31"][0].IsDueDate)
}

func TestSummarizeTasks(t *testing.T) {
	item := func(status model.TaskStatus, prio model.TaskPriority, project string, due model.Date) model.TaskListItem {
		return model.TaskListItem{
			Task:    model.Task{Status: status, Priority: prio, DueDate: due},
			Project: model.Ref{Name: project},
		}
	}
	items := []model.TaskListItem{
		item(model.TaskInProgress, model.PriorityHigh, "Website", model.DateOf(2025, time.March, 3)),
		item(model.TaskNotStarted, model.PriorityMedium, "Website", model.DateOf(2025, time.March, 14)),
		item(model.TaskCompleted, model.PriorityMedium, "App", model.DateOf(2025, time.March, 1)),
		item(model.TaskReview, model.PriorityLow, "App", model.Date{}),
	}
	sum := summarizeTasks(items, fixedNow)
	assert.Equal(t, 4, sum.TotalCount)
	assert.Equal(t, 1, sum.OverdueCount)
	assert.Equal(t, 1, sum.ThisWeekCount)
	assert.Equal(t, 2, sum.PriorityCounts[model.PriorityMedium])
	assert.Equal(t, map[string]int{"Website": 2, "App": 2}, sum.ProjectCounts)
	assert.Equal(t, 1, sum.StatusCounts[model.TaskCompleted])
}

func TestTaskServiceScopesStandardUsers(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ann := s.user(t, "ann@example.com", model.RoleStandard)
	bob := s.user(t, "bob@example.com", model.RoleStandard)
	p := s.project(t, model.ProjectActive, model.Date{})
	svc := NewTaskService(s.tasks, s.hours, func() time.Time { return fixedNow })

	created, err := svc.Create(ctx, actorOf(ann), model.Task{UserID: bob.ID, ProjectID: p.ID, Title: "mine"})
	require.NoError(t, err)
	assert.Equal(t, ann.ID, created.UserID)
	assert.Equal(t, model.TaskNotStarted, created.Status)
	s.task(t, bob.ID, p.ID, "bob's", model.TaskInProgress, model.Date{})

	list, err := svc.List(ctx, actorOf(ann), TaskQuery{UserID: bob.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	_, err = svc.List(ctx, actorOf(ann), TaskQuery{Period: "year"})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	reassign := bob.ID
	_, err = svc.Update(ctx, actorOf(ann), created.ID, TaskPatch{UserID: &reassign})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	err = svc.Delete(ctx, actorOf(ann), created.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = svc.Get(ctx, actorOf(ann), 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTaskDetailProjectsCompletion(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ann := s.user(t, "ann@example.com", model.RoleStandard)
	p := s.project(t, model.ProjectActive, model.Date{})
	svc := NewTaskService(s.tasks, s.hours, func() time.Time { return fixedNow })

	est := 20.0
	task, err := svc.Create(ctx, actorOf(ann), model.Task{ProjectID: p.ID, Title: "estimate", Status: model.TaskInProgress, EstimatedHours: &est})
	require.NoError(t, err)
	// 8h per day over the last week
	for day := 6; day <= 12; day++ {
		s.logHours(t, ann.ID, &task.ID, model.DateOf(2025, time.March, day), 8)
	}
	// outside the pace window
	s.logHours(t, ann.ID, nil, model.DateOf(2025, time.March, 1), 8)

	d, err := svc.Get(ctx, actorOf(ann), task.ID)
	require.NoError(t, err)
	assert.Equal(t, 56.0, d.ActualHoursWorked)
	assert.Equal(t, 0.0, d.RemainingHours)
	require.NotNil(t, d.EstimatedCompletionDate)
	assert.Equal(t, "2025-03-12", d.EstimatedCompletionDate.String())
	assert.Len(t, d.WorkHours, 7)
}

func TestTaskCalendarOnlyShowsOwnTasks(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ann := s.user(t, "ann@example.com", model.RoleStandard)
	bob := s.user(t, "bob@example.com", model.RoleStandard)
	p := s.project(t, model.ProjectActive, model.Date{})
	mine := s.task(t, ann.ID, p.ID, "mine", model.TaskInProgress, model.DateOf(2025, time.March, 5))
	s.task(t, bob.ID, p.ID, "bob's", model.TaskInProgress, model.DateOf(2025, time.March, 5))
	svc := NewTaskService(s.tasks, s.hours, func() time.Time { return fixedNow })

	cal, err := svc.Calendar(ctx, actorOf(ann), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, cal["2025-03-05"], 1)
	assert.Equal(t, mine.ID, cal["2025-03-05"][0].ID)

	_, err = svc.Calendar(ctx, actorOf(ann), 2025, 13)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}
