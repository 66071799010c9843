package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
	now   func() time.Time
}

func NewTaskHandler(tasks *service.TaskService, now func() time.Time) *TaskHandler {
	if now == nil {
		now = time.Now
	}
	return &TaskHandler{tasks: tasks, now: now}
}

type taskBody struct {
	UserID         *uint64     `json:"user_id"`
	ProjectID      *uint64     `json:"project_id"`
	Title          *string     `json:"title"`
	Description    *string     `json:"description"`
	StartDate      *model.Date `json:"start_date"`
	DueDate        *model.Date `json:"due_date"`
	Status         *string     `json:"status" validate:"omitempty,oneof=not_started in_progress review on_hold completed cancelled"`
	Priority       *string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	EstimatedHours *float64    `json:"estimated_hours" validate:"omitempty,gte=0"`
}

type taskReq struct {
	Task taskBody `json:"task"`
}

func (b taskBody) patch() service.TaskPatch {
	p := service.TaskPatch{
		UserID:         b.UserID,
		ProjectID:      b.ProjectID,
		Title:          b.Title,
		Description:    b.Description,
		StartDate:      b.StartDate,
		DueDate:        b.DueDate,
		EstimatedHours: b.EstimatedHours,
	}
	if b.Status != nil {
		s := model.TaskStatus(*b.Status)
		p.Status = &s
	}
	if b.Priority != nil {
		pr := model.TaskPriority(*b.Priority)
		p.Priority = &pr
	}
	return p
}

func (b taskBody) task() model.Task {
	return model.Task{
		UserID:         deref(b.UserID),
		ProjectID:      deref(b.ProjectID),
		Title:          deref(b.Title),
		Description:    deref(b.Description),
		StartDate:      deref(b.StartDate),
		DueDate:        deref(b.DueDate),
		Status:         model.TaskStatus(deref(b.Status)),
		Priority:       model.TaskPriority(deref(b.Priority)),
		EstimatedHours: b.EstimatedHours,
	}
}

func taskQuery(c echo.Context) (service.TaskQuery, error) {
	var (
		q   service.TaskQuery
		err error
	)
	if q.UserID, err = queryUint(c, "user_id"); err != nil {
		return q, err
	}
	if q.ProjectID, err = queryUint(c, "project_id"); err != nil {
		return q, err
	}
	if q.StartDate, err = queryDate(c, "start_date"); err != nil {
		return q, err
	}
	if q.EndDate, err = queryDate(c, "end_date"); err != nil {
		return q, err
	}
	q.Status = model.TaskStatus(c.QueryParam("status"))
	q.Priority = model.TaskPriority(c.QueryParam("priority"))
	q.Period = c.QueryParam("period")
	return q, nil
}

func (h *TaskHandler) List(c echo.Context) error {
	q, err := taskQuery(c)
	if err != nil {
		return err
	}
	list, err := h.tasks.List(c.Request().Context(), middleware.Actor(c), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TaskHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.tasks.Get(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *TaskHandler) Create(c echo.Context) error {
	var req taskReq
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.tasks.Create(c.Request().Context(), middleware.Actor(c), req.Task.task())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *TaskHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req taskReq
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.tasks.Update(c.Request().Context(), middleware.Actor(c), id, req.Task.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHandler) WorkHours(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.tasks.WorkHours(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TaskHandler) Summary(c echo.Context) error {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		return err
	}
	sum, err := h.tasks.Summary(c.Request().Context(), middleware.Actor(c), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

// Calendar defaults to the current month.
func (h *TaskHandler) Calendar(c echo.Context) error {
	year, month, err := queryMonth(c)
	if err != nil {
		return err
	}
	now := h.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	cal, err := h.tasks.Calendar(c.Request().Context(), middleware.Actor(c), year, month)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}
