package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/conductor/internal/aggregate"
	"github.com/iliyamo/conductor/internal/model"
)

const workHourColumns = "w.id, w.user_id, w.task_id, w.work_date, w.start_time, w.end_time, w.hours_worked, COALESCE(w.activity_description,''), w.created_at, w.updated_at"

type WorkHourRepo struct{ DB *sql.DB }

func NewWorkHourRepo(db *sql.DB) *WorkHourRepo { return &WorkHourRepo{DB: db} }

// WorkHourFilter narrows List. From and To bound work_date inclusively.
type WorkHourFilter struct {
	UserID uint64
	TaskID uint64
	From   model.Date
	To     model.Date
}

func (f WorkHourFilter) where() where {
	var w where
	if f.UserID != 0 {
		w.add("w.user_id=?", f.UserID)
	}
	if f.TaskID != 0 {
		w.add("w.task_id=?", f.TaskID)
	}
	if !f.From.IsZero() {
		w.add("w.work_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.add("w.work_date <= ?", f.To)
	}
	return w
}

func scanWorkHour(row rowScanner) (model.WorkHour, error) {
	var w model.WorkHour
	err := row.Scan(&w.ID, &w.UserID, &w.TaskID, &w.WorkDate, &w.StartTime, &w.EndTime, &w.HoursWorked,
		&w.ActivityDescription, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (r *WorkHourRepo) Create(ctx context.Context, w *model.WorkHour) error {
	w.CreatedAt = timestamp()
	w.UpdatedAt = w.CreatedAt
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO work_hours (user_id, task_id, work_date, start_time, end_time, hours_worked, activity_description, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		w.UserID, w.TaskID, w.WorkDate, w.StartTime, w.EndTime, w.HoursWorked, w.ActivityDescription, w.CreatedAt, w.UpdatedAt)
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
	w.ID = uint64(id)
	return nil
}

func (r *WorkHourRepo) GetByID(ctx context.Context, id uint64) (model.WorkHour, error) {
	w, err := scanWorkHour(r.DB.QueryRowContext(ctx, "SELECT "+workHourColumns+" FROM work_hours w WHERE w.id=?", id))
	return w, notFound(err)
}

// List returns matching entries, newest work date first.
func (r *WorkHourRepo) List(ctx context.Context, f WorkHourFilter) ([]model.WorkHour, error) {
	w := f.where()
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+workHourColumns+" FROM work_hours w"+w.String()+" ORDER BY w.work_date DESC, w.start_time DESC, w.id DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.WorkHour{}
	for rows.Next() {
		wh, err := scanWorkHour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *WorkHourRepo) Update(ctx context.Context, w *model.WorkHour) error {
	w.UpdatedAt = timestamp()
	return mustAffect(r.DB.ExecContext(ctx,
		`UPDATE work_hours SET user_id=?, task_id=?, work_date=?, start_time=?, end_time=?, hours_worked=?, activity_description=?, updated_at=?
		WHERE id=?`,
		w.UserID, w.TaskID, w.WorkDate, w.StartTime, w.EndTime, w.HoursWorked, w.ActivityDescription, w.UpdatedAt, w.ID))
}

func (r *WorkHourRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM work_hours WHERE id=?", id))
}

// Points returns the daily totals of the filtered entries as aggregate points.
func (r *WorkHourRepo) Points(ctx context.Context, f WorkHourFilter) ([]aggregate.Point, error) {
	w := f.where()
	rows, err := r.DB.QueryContext(ctx,
		"SELECT w.work_date, SUM(w.hours_worked) FROM work_hours w"+w.String()+" GROUP BY w.work_date ORDER BY w.work_date", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []aggregate.Point{}
	for rows.Next() {
		var (
			d model.Date
			v float64
		)
		if err := rows.Scan(&d, &v); err != nil {
			return nil, err
		}
		out = append(out, aggregate.Point{At: d.Time, Value: v})
	}
	return out, rows.Err()
}

// Sum totals the filtered entries.
func (r *WorkHourRepo) Sum(ctx context.Context, f WorkHourFilter) (float64, error) {
	w := f.where()
	var total float64
	err := r.DB.QueryRowContext(ctx, "SELECT COALESCE(SUM(w.hours_worked),0) FROM work_hours w"+w.String(), w.args...).Scan(&total)
	return aggregate.Round2(total), err
}

// SumByUser totals hours per user over the filtered entries, most hours first.
func (r *WorkHourRepo) SumByUser(ctx context.Context, f WorkHourFilter) ([]model.UserHours, error) {
	w := f.where()
	rows, err := r.DB.QueryContext(ctx,
		"SELECT u.id, u.name, SUM(w.hours_worked) AS total FROM work_hours w JOIN users u ON u.id=w.user_id"+w.String()+
			" GROUP BY u.id, u.name ORDER BY total DESC, u.id", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.UserHours{}
	for rows.Next() {
		var uh model.UserHours
		if err := rows.Scan(&uh.UserID, &uh.Name, &uh.HoursWorked); err != nil {
			return nil, err
		}
		uh.HoursWorked = aggregate.Round2(uh.HoursWorked)
		out = append(out, uh)
	}
	return out, rows.Err()
}

// UnassignedTask keys the hours of entries logged without a task.
const UnassignedTask = "Unassigned"

// SumByTask totals hours per task title over the filtered entries.
func (r *WorkHourRepo) SumByTask(ctx context.Context, f WorkHourFilter) (map[string]float64, error) {
	w := f.where()
	rows, err := r.DB.QueryContext(ctx,
		"SELECT t.title, SUM(w.hours_worked) FROM work_hours w LEFT JOIN tasks t ON t.id=w.task_id"+w.String()+
			" GROUP BY t.title", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]float64{}
	for rows.Next() {
		var (
			title sql.NullString
			v     float64
		)
		if err := rows.Scan(&title, &v); err != nil {
			return nil, err
		}
		key := title.String
		if !title.Valid {
			key = UnassignedTask
		}
		out[key] = aggregate.Round2(out[key] + v)
	}
	return out, rows.Err()
}

// CountActiveUsers counts distinct users with entries in the filter range.
func (r *WorkHourRepo) CountActiveUsers(ctx context.Context, f WorkHourFilter) (int, error) {
	w := f.where()
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(DISTINCT w.user_id) FROM work_hours w"+w.String(), w.args...).Scan(&n)
	return n, err
}

// Recent returns the newest entries for the activity feed.
func (r *WorkHourRepo) Recent(ctx context.Context, limit int) ([]model.WorkHourActivity, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT w.id, w.work_date, w.hours_worked, w.created_at, u.id, u.name, t.id, t.title
		FROM work_hours w JOIN users u ON u.id=w.user_id LEFT JOIN tasks t ON t.id=w.task_id
		ORDER BY w.created_at DESC, w.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.WorkHourActivity{}
	for rows.Next() {
		var (
			a      model.WorkHourActivity
			taskID sql.NullInt64
			title  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.WorkDate, &a.HoursWorked, &a.CreatedAt, &a.User.ID, &a.User.Name, &taskID, &title); err != nil {
			return nil, err
		}
		if taskID.Valid {
			a.Task = &model.TaskRef{ID: uint64(taskID.Int64), Title: title.String}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
