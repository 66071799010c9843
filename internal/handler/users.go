package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/service"
)

type UserHandler struct {
	users *service.UserService
	tasks *service.TaskService
	hours *service.WorkHourService
}

func NewUserHandler(users *service.UserService, tasks *service.TaskService, hours *service.WorkHourService) *UserHandler {
	return &UserHandler{users: users, tasks: tasks, hours: hours}
}

type userBody struct {
	Email      *string                   `json:"email" validate:"omitempty,email"`
	Name       *string                   `json:"name"`
	Password   *string                   `json:"password" validate:"omitempty,min=6"`
	Role       *int                      `json:"role" validate:"omitempty,oneof=0 1"`
	HourlyRate optional[decimal.Decimal] `json:"hourly_rate"`
}

type userReq struct {
	User userBody `json:"user"`
}

func (b userBody) hourlyRate() *decimal.NullDecimal {
	if !b.HourlyRate.Set {
		return nil
	}
	if b.HourlyRate.Value == nil {
		return &decimal.NullDecimal{}
	}
	return &decimal.NullDecimal{Decimal: *b.HourlyRate.Value, Valid: true}
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.users.Get(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.User
	in := service.UserInput{Email: deref(b.Email), Name: deref(b.Name), Password: deref(b.Password)}
	if b.Role != nil {
		in.Role = model.Role(*b.Role)
	}
	if r := b.hourlyRate(); r != nil {
		in.HourlyRate = *r
	}
	u, err := h.users.Create(c.Request().Context(), middleware.Actor(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req userReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.User
	patch := service.UserPatch{Email: b.Email, Name: b.Name, Password: b.Password, HourlyRate: b.hourlyRate()}
	if b.Role != nil {
		r := model.Role(*b.Role)
		patch.Role = &r
	}
	u, err := h.users.Update(c.Request().Context(), middleware.Actor(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// WorkHours lists the entries of one user.
func (h *UserHandler) WorkHours(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.hours.ForUser(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Tasks lists the tasks assigned to one user.
func (h *UserHandler) Tasks(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	actor := middleware.Actor(c)
	if err := authz.Authorize(actor, authz.On(authz.User, id), authz.Read); err != nil {
		return err
	}
	list, err := h.tasks.List(c.Request().Context(), actor, service.TaskQuery{UserID: id})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
