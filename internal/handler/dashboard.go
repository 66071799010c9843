package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/service"
)

type DashboardHandler struct {
	dashboards *service.DashboardService
}

func NewDashboardHandler(d *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: d}
}

// Show answers with the admin or the personal dashboard depending on the
// caller's role.
func (h *DashboardHandler) Show(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	d, err := h.dashboards.For(c.Request().Context(), u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
