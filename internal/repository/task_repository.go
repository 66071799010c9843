package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/conductor/internal/model"
)

const taskColumns = "t.id, t.user_id, t.project_id, t.title, COALESCE(t.description,''), t.start_date, t.due_date, t.status, t.priority, t.estimated_hours, t.created_at, t.updated_at"

type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

// TaskFilter narrows List. Zero values are ignored. DueFrom and DueTo bound
// due_date inclusively; OverdueAt keeps incomplete tasks due before it.
type TaskFilter struct {
	UserID    uint64
	ProjectID uint64
	Status    model.TaskStatus
	Priority  model.TaskPriority
	DueFrom   model.Date
	DueTo     model.Date
	OverdueAt model.Date
	Limit     int
}

func (f TaskFilter) where() where {
	var w where
	if f.UserID != 0 {
		w.add("t.user_id=?", f.UserID)
	}
	if f.ProjectID != 0 {
		w.add("t.project_id=?", f.ProjectID)
	}
	if f.Status != "" {
		w.add("t.status=?", f.Status)
	}
	if f.Priority != "" {
		w.add("t.priority=?", f.Priority)
	}
	if !f.DueFrom.IsZero() {
		w.add("t.due_date >= ?", f.DueFrom)
	}
	if !f.DueTo.IsZero() {
		w.add("t.due_date <= ?", f.DueTo)
	}
	if !f.OverdueAt.IsZero() {
		w.add("t.due_date < ? AND t.status<>?", f.OverdueAt, model.TaskCompleted)
	}
	return w
}

func scanTask(row rowScanner, extra ...any) (model.Task, error) {
	var t model.Task
	dest := []any{&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Description, &t.StartDate, &t.DueDate,
		&t.Status, &t.Priority, &t.EstimatedHours, &t.CreatedAt, &t.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return t, err
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()
	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	t.CreatedAt = timestamp()
	t.UpdatedAt = t.CreatedAt
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tasks (user_id, project_id, title, description, start_date, due_date, status, priority, estimated_hours, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.UserID, t.ProjectID, t.Title, t.Description, t.StartDate, t.DueDate, t.Status, t.Priority, t.EstimatedHours, t.CreatedAt, t.UpdatedAt)
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
	t.ID = uint64(id)
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (model.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks t WHERE t.id=?", id))
	return t, notFound(err)
}

// List returns matching tasks with assignee and project names, soonest due
// first and undated tasks last.
func (r *TaskRepo) List(ctx context.Context, f TaskFilter) ([]model.TaskListItem, error) {
	w := f.where()
	q := "SELECT " + taskColumns + `, u.name, p.name FROM tasks t
		JOIN users u ON u.id=t.user_id
		JOIN projects p ON p.id=t.project_id` + w.String() +
		" ORDER BY CASE WHEN t.due_date IS NULL THEN 1 ELSE 0 END, t.due_date, t.id"
	args := w.args
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TaskListItem{}
	for rows.Next() {
		var it model.TaskListItem
		t, err := scanTask(rows, &it.User.Name, &it.Project.Name)
		if err != nil {
			return nil, err
		}
		it.Task = t
		it.User.ID = t.UserID
		it.Project.ID = t.ProjectID
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	t.UpdatedAt = timestamp()
	return mustAffect(r.DB.ExecContext(ctx,
		`UPDATE tasks SET user_id=?, project_id=?, title=?, description=?, start_date=?, due_date=?, status=?, priority=?, estimated_hours=?, updated_at=?
		WHERE id=?`,
		t.UserID, t.ProjectID, t.Title, t.Description, t.StartDate, t.DueDate, t.Status, t.Priority, t.EstimatedHours, t.UpdatedAt, t.ID))
}

func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id))
}

// Upcoming returns up to limit incomplete tasks of the user, soonest due first.
func (r *TaskRepo) Upcoming(ctx context.Context, userID uint64, limit int) ([]model.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskColumns+` FROM tasks t WHERE t.user_id=? AND t.status<>?
		ORDER BY CASE WHEN t.due_date IS NULL THEN 1 ELSE 0 END, t.due_date, t.id LIMIT ?`,
		userID, model.TaskCompleted, limit)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// DueBetween returns the user's tasks due in [from, to].
func (r *TaskRepo) DueBetween(ctx context.Context, userID uint64, from, to model.Date) ([]model.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks t WHERE t.user_id=? AND t.due_date BETWEEN ? AND ? ORDER BY t.due_date, t.id",
		userID, from, to)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// InMonth returns tasks whose start or due date falls in [from, to]. A zero
// userID selects every user.
func (r *TaskRepo) InMonth(ctx context.Context, userID uint64, from, to model.Date) ([]model.Task, error) {
	var w where
	w.add("((t.due_date BETWEEN ? AND ?) OR (t.start_date BETWEEN ? AND ?))", from, to, from, to)
	if userID != 0 {
		w.add("t.user_id=?", userID)
	}
	rows, err := r.DB.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks t"+w.String()+" ORDER BY t.id", w.args...)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// CountByStatus counts tasks per status. A zero userID counts every user.
func (r *TaskRepo) CountByStatus(ctx context.Context, userID uint64) (map[model.TaskStatus]int, error) {
	var w where
	if userID != 0 {
		w.add("user_id=?", userID)
	}
	rows, err := r.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM tasks"+w.String()+" GROUP BY status", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[model.TaskStatus]int{}
	for rows.Next() {
		var (
			s model.TaskStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

// CountOverdue counts incomplete tasks due before today. A zero userID counts
// every user.
func (r *TaskRepo) CountOverdue(ctx context.Context, userID uint64, today model.Date) (int, error) {
	w := TaskFilter{UserID: userID, OverdueAt: today}.where()
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks t"+w.String(), w.args...).Scan(&n)
	return n, err
}

// Recent returns the newest tasks for the activity feed.
func (r *TaskRepo) Recent(ctx context.Context, limit int) ([]model.TaskActivity, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.id, t.title, t.status, t.created_at, u.id, u.name, p.id, p.name
		FROM tasks t JOIN users u ON u.id=t.user_id JOIN projects p ON p.id=t.project_id
		ORDER BY t.created_at DESC, t.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TaskActivity{}
	for rows.Next() {
		var a model.TaskActivity
		if err := rows.Scan(&a.ID, &a.Title, &a.Status, &a.CreatedAt, &a.User.ID, &a.User.Name, &a.Project.ID, &a.Project.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
