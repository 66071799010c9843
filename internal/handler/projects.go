package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/repository"
	"github.com/iliyamo/conductor/internal/service"
)

// ProjectHandler serves projects and the clients owning them.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type projectBody struct {
	ClientID    *uint64                   `json:"client_id"`
	Name        *string                   `json:"name"`
	Description *string                   `json:"description"`
	StartDate   *model.Date               `json:"start_date"`
	EndDate     *model.Date               `json:"end_date"`
	Status      *string                   `json:"status" validate:"omitempty,oneof=planning active completed on_hold cancelled"`
	Budget      optional[decimal.Decimal] `json:"budget"`
}

type projectReq struct {
	Project projectBody `json:"project"`
}

func (b projectBody) budget() *decimal.NullDecimal {
	if !b.Budget.Set {
		return nil
	}
	if b.Budget.cleared() {
		return &decimal.NullDecimal{}
	}
	return &decimal.NullDecimal{Decimal: *b.Budget.Value, Valid: true}
}

func (h *ProjectHandler) List(c echo.Context) error {
	clientID, err := queryUint(c, "client_id")
	if err != nil {
		return err
	}
	list, err := h.projects.List(c.Request().Context(), repository.ProjectFilter{
		Status:   model.ProjectStatus(c.QueryParam("status")),
		ClientID: clientID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *ProjectHandler) Tasks(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.projects.Tasks(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ProjectHandler) Create(c echo.Context) error {
	var req projectReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.Project
	p := model.Project{
		ClientID:    deref(b.ClientID),
		Name:        deref(b.Name),
		Description: deref(b.Description),
		StartDate:   deref(b.StartDate),
		EndDate:     deref(b.EndDate),
		Status:      model.ProjectStatus(deref(b.Status)),
	}
	if r := b.budget(); r != nil {
		p.Budget = *r
	}
	p, err := h.projects.Create(c.Request().Context(), middleware.Actor(c), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req projectReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.Project
	patch := service.ProjectPatch{
		ClientID:    b.ClientID,
		Name:        b.Name,
		Description: b.Description,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		Budget:      b.budget(),
	}
	if b.Status != nil {
		s := model.ProjectStatus(*b.Status)
		patch.Status = &s
	}
	p, err := h.projects.Update(c.Request().Context(), middleware.Actor(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type clientBody struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
}

type clientReq struct {
	Client clientBody `json:"client"`
}

// apply overwrites the fields present in the body.
func (b clientBody) apply(cl *model.Client) {
	for dst, src := range map[*string]*string{
		&cl.Name:          b.Name,
		&cl.ContactPerson: b.ContactPerson,
		&cl.Email:         b.Email,
		&cl.Phone:         b.Phone,
		&cl.Address:       b.Address,
		&cl.Notes:         b.Notes,
	} {
		if src != nil {
			*dst = *src
		}
	}
}

func (h *ProjectHandler) Clients(c echo.Context) error {
	list, err := h.projects.Clients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ProjectHandler) Client(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	cl, err := h.projects.Client(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *ProjectHandler) CreateClient(c echo.Context) error {
	var req clientReq
	if err := bind(c, &req); err != nil {
		return err
	}
	var cl model.Client
	req.Client.apply(&cl)
	cl, err := h.projects.CreateClient(c.Request().Context(), middleware.Actor(c), cl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *ProjectHandler) UpdateClient(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req clientReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	cl, err := h.projects.Client(ctx, id)
	if err != nil {
		return err
	}
	req.Client.apply(&cl)
	cl, err = h.projects.UpdateClient(ctx, middleware.Actor(c), id, cl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *ProjectHandler) DeleteClient(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.DeleteClient(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
