package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/conductor/internal/model"
)

const projectColumns = "p.id, p.client_id, p.name, COALESCE(p.description,''), p.start_date, p.end_date, p.status, p.budget, p.created_at, p.updated_at"

type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// ProjectFilter narrows List. Zero values are ignored.
type ProjectFilter struct {
	Status   model.ProjectStatus
	ClientID uint64
}

func scanProject(row rowScanner, extra ...any) (model.Project, error) {
	var p model.Project
	dest := []any{&p.ID, &p.ClientID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.Budget, &p.CreatedAt, &p.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	p.CreatedAt = timestamp()
	p.UpdatedAt = p.CreatedAt
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (client_id, name, description, start_date, end_date, status, budget, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?)",
		p.ClientID, p.Name, p.Description, p.StartDate, p.EndDate, p.Status, p.Budget, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isForeignKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	p, err := scanProject(r.DB.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects p WHERE p.id=?", id))
	return p, notFound(err)
}

// List returns projects with their client name and task counts, newest first.
func (r *ProjectRepo) List(ctx context.Context, f ProjectFilter) ([]model.ProjectSummary, error) {
	var w where
	if f.Status != "" {
		w.add("p.status=?", f.Status)
	}
	if f.ClientID != 0 {
		w.add("p.client_id=?", f.ClientID)
	}
	q := "SELECT " + projectColumns + `, c.name,
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id=p.id),
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id=p.id AND t.status='completed')
		FROM projects p JOIN clients c ON c.id=p.client_id` + w.String() + " ORDER BY p.created_at DESC, p.id DESC"
	rows, err := r.DB.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ProjectSummary{}
	for rows.Next() {
		var s model.ProjectSummary
		p, err := scanProject(rows, &s.ClientName, &s.TasksCount, &s.CompletedTasks)
		if err != nil {
			return nil, err
		}
		s.Project = p
		s.ProgressPercentage = model.ProgressPercentage(s.CompletedTasks, s.TasksCount)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = timestamp()
	return mustAffect(r.DB.ExecContext(ctx,
		"UPDATE projects SET client_id=?, name=?, description=?, start_date=?, end_date=?, status=?, budget=?, updated_at=? WHERE id=?",
		p.ClientID, p.Name, p.Description, p.StartDate, p.EndDate, p.Status, p.Budget, p.UpdatedAt, p.ID))
}

// Delete removes the project; tasks and their work hours go with it.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id))
}

// TotalHours sums the work hours booked on all tasks of the project.
func (r *ProjectRepo) TotalHours(ctx context.Context, projectID uint64) (float64, error) {
	var total float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(w.hours_worked),0) FROM work_hours w
		JOIN tasks t ON t.id=w.task_id WHERE t.project_id=?`, projectID).Scan(&total)
	return total, err
}

// CountByStatus returns the number of projects per status across the system.
func (r *ProjectRepo) CountByStatus(ctx context.Context) (map[model.ProjectStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM projects GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[model.ProjectStatus]int{}
	for rows.Next() {
		var (
			s model.ProjectStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

// Delayed lists incomplete projects whose end date is before today, oldest
// end date first.
func (r *ProjectRepo) Delayed(ctx context.Context, today model.Date, limit int) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects p WHERE p.end_date < ? AND p.status<>? ORDER BY p.end_date, p.id LIMIT ?",
		today, model.ProjectCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountDelayed counts every delayed project.
func (r *ProjectRepo) CountDelayed(ctx context.Context, today model.Date) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects WHERE end_date < ? AND status<>?", today, model.ProjectCompleted).Scan(&n)
	return n, err
}
