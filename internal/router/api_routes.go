package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conductor/internal/handler"
	"github.com/iliyamo/conductor/internal/middleware"
)

// Handlers groups the resource handlers mounted behind authentication.
type Handlers struct {
	Users      *handler.UserHandler
	Tasks      *handler.TaskHandler
	Projects   *handler.ProjectHandler
	WorkHours  *handler.WorkHourHandler
	Payments   *handler.PaymentHandler
	Dashboards *handler.DashboardHandler
}

// RegisterAPI registers the authenticated resource routes under /api/v1.
// Ownership is enforced in the services; routes that only admins may call at
// all carry RequireAdmin so the check happens before any lookup.
func RegisterAPI(e *echo.Echo, h Handlers, authn middleware.Authenticator) {
	g := e.Group(Prefix, middleware.JWTAuth(authn))
	admin := middleware.RequireAdmin()

	g.GET("/dashboard", h.Dashboards.Show)

	// ---- Users ----
	g.GET("/users", h.Users.List)
	g.POST("/users", h.Users.Create, admin)
	g.GET("/users/:id", h.Users.Get)
	g.PUT("/users/:id", h.Users.Update)
	g.PATCH("/users/:id", h.Users.Update)
	g.DELETE("/users/:id", h.Users.Delete, admin)
	g.GET("/users/:id/work_hours", h.Users.WorkHours)
	g.GET("/users/:id/tasks", h.Users.Tasks)

	// ---- Tasks ----
	// aggregate routes are registered before /tasks/:id
	g.GET("/tasks/summary", h.Tasks.Summary)
	g.GET("/tasks/calendar", h.Tasks.Calendar)
	g.GET("/tasks", h.Tasks.List)
	g.POST("/tasks", h.Tasks.Create)
	g.GET("/tasks/:id", h.Tasks.Get)
	g.PUT("/tasks/:id", h.Tasks.Update)
	g.PATCH("/tasks/:id", h.Tasks.Update)
	g.DELETE("/tasks/:id", h.Tasks.Delete, admin)
	g.GET("/tasks/:id/work_hours", h.Tasks.WorkHours)

	// ---- Projects ----
	g.GET("/projects", h.Projects.List)
	g.POST("/projects", h.Projects.Create, admin)
	g.GET("/projects/:id", h.Projects.Get)
	g.PUT("/projects/:id", h.Projects.Update, admin)
	g.PATCH("/projects/:id", h.Projects.Update, admin)
	g.DELETE("/projects/:id", h.Projects.Delete, admin)
	g.GET("/projects/:id/tasks", h.Projects.Tasks)

	// ---- Clients ----
	g.GET("/clients", h.Projects.Clients)
	g.POST("/clients", h.Projects.CreateClient, admin)
	g.GET("/clients/:id", h.Projects.Client)
	g.PUT("/clients/:id", h.Projects.UpdateClient, admin)
	g.PATCH("/clients/:id", h.Projects.UpdateClient, admin)
	g.DELETE("/clients/:id", h.Projects.DeleteClient, admin)

	// ---- Work hours ----
	g.GET("/work_hours/summary", h.WorkHours.Summary)
	g.GET("/work_hours", h.WorkHours.List)
	g.POST("/work_hours", h.WorkHours.Create)
	g.GET("/work_hours/:id", h.WorkHours.Get)
	g.PUT("/work_hours/:id", h.WorkHours.Update)
	g.PATCH("/work_hours/:id", h.WorkHours.Update)
	g.DELETE("/work_hours/:id", h.WorkHours.Delete)

	// ---- Monthly payments ----
	g.GET("/monthly_payments", h.Payments.List)
	g.POST("/monthly_payments", h.Payments.Create, admin)
	g.GET("/monthly_payments/:id", h.Payments.Get)
	g.PUT("/monthly_payments/:id", h.Payments.Update, admin)
	g.PATCH("/monthly_payments/:id", h.Payments.Update, admin)
	g.DELETE("/monthly_payments/:id", h.Payments.Delete, admin)
	g.POST("/monthly_payments/:id/invoice_items", h.Payments.AddItem, admin)
	g.PUT("/monthly_payments/:id/invoice_items/:item_id", h.Payments.UpdateItem, admin)
	g.DELETE("/monthly_payments/:id/invoice_items/:item_id", h.Payments.RemoveItem, admin)
	g.POST("/monthly_payments/:id/recalculate", h.Payments.Recalculate, admin)
}
