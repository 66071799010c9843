package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/repository"
)

// ProjectService serves projects and their clients. Everyone may read; only
// admins write.
type ProjectService struct {
	projects *repository.ProjectRepo
	clients  *repository.ClientRepo
	tasks    *repository.TaskRepo
}

func NewProjectService(projects *repository.ProjectRepo, clients *repository.ClientRepo, tasks *repository.TaskRepo) *ProjectService {
	return &ProjectService{projects: projects, clients: clients, tasks: tasks}
}

func (s *ProjectService) List(ctx context.Context, f repository.ProjectFilter) ([]model.ProjectSummary, error) {
	return s.projects.List(ctx, f)
}

// ClientContact is the client block of the project detail.
type ClientContact struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
}

// ProjectDetail is a project with its client, tasks and derived figures.
type ProjectDetail struct {
	model.Project
	Client             ClientContact            `json:"client"`
	Tasks              []model.TaskListItem     `json:"tasks"`
	ProgressPercentage float64                  `json:"progress_percentage"`
	TotalHoursWorked   float64                  `json:"total_hours_worked"`
	TaskStatusCounts   map[model.TaskStatus]int `json:"task_status_counts"`
}

func (s *ProjectService) Get(ctx context.Context, id uint64) (ProjectDetail, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return ProjectDetail{}, storeErr(err, "Project")
	}
	c, err := s.clients.GetByID(ctx, p.ClientID)
	if err != nil {
		return ProjectDetail{}, storeErr(err, "Client")
	}
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{ProjectID: id})
	if err != nil {
		return ProjectDetail{}, err
	}
	hours, err := s.projects.TotalHours(ctx, id)
	if err != nil {
		return ProjectDetail{}, err
	}
	counts := map[model.TaskStatus]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return ProjectDetail{
		Project:            p,
		Client:             ClientContact{ID: c.ID, Name: c.Name, ContactPerson: c.ContactPerson, Email: c.Email},
		Tasks:              tasks,
		ProgressPercentage: model.ProgressPercentage(counts[model.TaskCompleted], len(tasks)),
		TotalHoursWorked:   hours,
		TaskStatusCounts:   counts,
	}, nil
}

// Tasks lists the tasks of a project.
func (s *ProjectService) Tasks(ctx context.Context, id uint64) ([]model.TaskListItem, error) {
	if _, err := s.projects.GetByID(ctx, id); err != nil {
		return nil, storeErr(err, "Project")
	}
	return s.tasks.List(ctx, repository.TaskFilter{ProjectID: id})
}

func (s *ProjectService) Create(ctx context.Context, actor authz.Actor, p model.Project) (model.Project, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Project}, authz.Create); err != nil {
		return p, err
	}
	p.ID = 0
	p.ApplyDefaults()
	if err := invalid(p.Validate()); err != nil {
		return p, err
	}
	if err := s.projects.Create(ctx, &p); err != nil {
		return p, storeErr(err, "Project")
	}
	return p, nil
}

// ProjectPatch holds the fields an update may change.
type ProjectPatch struct {
	ClientID    *uint64
	Name        *string
	Description *string
	StartDate   *model.Date
	EndDate     *model.Date
	Status      *model.ProjectStatus
	Budget      *decimal.NullDecimal
}

func (s *ProjectService) Update(ctx context.Context, actor authz.Actor, id uint64, patch ProjectPatch) (model.Project, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Project}, authz.Update); err != nil {
		return model.Project{}, err
	}
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return p, storeErr(err, "Project")
	}
	if patch.ClientID != nil {
		p.ClientID = *patch.ClientID
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Budget != nil {
		p.Budget = *patch.Budget
	}
	if err := invalid(p.Validate()); err != nil {
		return p, err
	}
	if err := s.projects.Update(ctx, &p); err != nil {
		return p, storeErr(err, "Project")
	}
	return p, nil
}

// Delete removes the project with its tasks and their work hours.
func (s *ProjectService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Project}, authz.Delete); err != nil {
		return err
	}
	return storeErr(s.projects.Delete(ctx, id), "Project")
}

func (s *ProjectService) Clients(ctx context.Context) ([]model.Client, error) {
	return s.clients.List(ctx)
}

func (s *ProjectService) Client(ctx context.Context, id uint64) (model.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	return c, storeErr(err, "Client")
}

func (s *ProjectService) CreateClient(ctx context.Context, actor authz.Actor, c model.Client) (model.Client, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Client}, authz.Create); err != nil {
		return c, err
	}
	c.ID = 0
	if err := invalid(c.Validate()); err != nil {
		return c, err
	}
	return c, storeErr(s.clients.Create(ctx, &c), "Client")
}

// UpdateClient replaces the client's fields with c.
func (s *ProjectService) UpdateClient(ctx context.Context, actor authz.Actor, id uint64, c model.Client) (model.Client, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Client}, authz.Update); err != nil {
		return c, err
	}
	c.ID = id
	if err := invalid(c.Validate()); err != nil {
		return c, err
	}
	if err := s.clients.Update(ctx, &c); err != nil {
		return c, storeErr(err, "Client")
	}
	return s.Client(ctx, id)
}

// DeleteClient removes the client and, through it, its projects.
func (s *ProjectService) DeleteClient(ctx context.Context, actor authz.Actor, id uint64) error {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Client}, authz.Delete); err != nil {
		return err
	}
	return storeErr(s.clients.Delete(ctx, id), "Client")
}
