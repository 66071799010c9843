package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/service"
)

type WorkHourHandler struct {
	hours *service.WorkHourService
}

func NewWorkHourHandler(hours *service.WorkHourService) *WorkHourHandler {
	return &WorkHourHandler{hours: hours}
}

// task_id and end_time accept an explicit null to unlink the task or reopen
// the session.
type workHourBody struct {
	UserID              *uint64                   `json:"user_id"`
	TaskID              optional[uint64]          `json:"task_id"`
	WorkDate            *model.Date               `json:"work_date"`
	StartTime           *model.ClockTime          `json:"start_time"`
	EndTime             optional[model.ClockTime] `json:"end_time"`
	HoursWorked         *float64                  `json:"hours_worked" validate:"omitempty,gte=0"`
	ActivityDescription *string                   `json:"activity_description"`
}

type workHourReq struct {
	WorkHour workHourBody `json:"work_hour"`
}

func workHourQuery(c echo.Context) (service.WorkHourQuery, error) {
	var (
		q   service.WorkHourQuery
		err error
	)
	if q.UserID, err = queryUint(c, "user_id"); err != nil {
		return q, err
	}
	if q.StartDate, err = queryDate(c, "start_date"); err != nil {
		return q, err
	}
	if q.EndDate, err = queryDate(c, "end_date"); err != nil {
		return q, err
	}
	q.Year, q.Month, err = queryMonth(c)
	return q, err
}

func (h *WorkHourHandler) List(c echo.Context) error {
	q, err := workHourQuery(c)
	if err != nil {
		return err
	}
	list, err := h.hours.List(c.Request().Context(), middleware.Actor(c), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *WorkHourHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.hours.Get(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WorkHourHandler) Create(c echo.Context) error {
	var req workHourReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.WorkHour
	w := model.WorkHour{
		UserID:              deref(b.UserID),
		TaskID:              b.TaskID.Value,
		WorkDate:            deref(b.WorkDate),
		StartTime:           deref(b.StartTime),
		EndTime:             b.EndTime.Value,
		HoursWorked:         deref(b.HoursWorked),
		ActivityDescription: deref(b.ActivityDescription),
	}
	w, err := h.hours.Create(c.Request().Context(), middleware.Actor(c), w)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *WorkHourHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req workHourReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.WorkHour
	w, err := h.hours.Update(c.Request().Context(), middleware.Actor(c), id, service.WorkHourPatch{
		UserID:              b.UserID,
		TaskID:              b.TaskID.Value,
		ClearTask:           b.TaskID.cleared(),
		WorkDate:            b.WorkDate,
		StartTime:           b.StartTime,
		EndTime:             b.EndTime.Value,
		ClearEndTime:        b.EndTime.cleared(),
		HoursWorked:         b.HoursWorked,
		ActivityDescription: b.ActivityDescription,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WorkHourHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.hours.Delete(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WorkHourHandler) Summary(c echo.Context) error {
	q, err := workHourQuery(c)
	if err != nil {
		return err
	}
	sum, err := h.hours.Summary(c.Request().Context(), middleware.Actor(c), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}
