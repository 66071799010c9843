package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/conductor/internal/model"
)

const userColumns = "id, email, name, role, hourly_rate, password_hash, jti, refresh_token_hash, refresh_token_expires_at, created_at, updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		hash    sql.NullString
		expires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.HourlyRate, &u.PasswordHash, &u.JTI,
		&hash, &expires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.RefreshTokenHash = hash.String
	if expires.Valid {
		t := expires.Time.UTC()
		u.RefreshTokenExpiresAt = &t
	}
	return u, nil
}

// Create inserts u with a normalized email and a fresh jti. PasswordHash must
// already be set.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = model.NormalizeEmail(u.Email)
	u.JTI = uuid.NewString()
	u.CreatedAt = timestamp()
	u.UpdatedAt = u.CreatedAt
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, role, hourly_rate, password_hash, jti, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		u.Email, u.Name, int(u.Role), u.HourlyRate, u.PasswordHash, u.JTI, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", model.NormalizeEmail(email)))
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err)
}

// GetByRefreshHash finds the user holding the refresh token with this hash.
// Expiry is checked by the caller.
func (r *UserRepo) GetByRefreshHash(ctx context.Context, hash string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE refresh_token_hash=? LIMIT 1", hash))
	return u, notFound(err)
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update writes the profile columns. An empty PasswordHash keeps the stored one.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = model.NormalizeEmail(u.Email)
	u.UpdatedAt = timestamp()
	var err error
	if u.PasswordHash != "" {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET email=?, name=?, role=?, hourly_rate=?, password_hash=?, updated_at=? WHERE id=?",
			u.Email, u.Name, int(u.Role), u.HourlyRate, u.PasswordHash, u.UpdatedAt, u.ID)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET email=?, name=?, role=?, hourly_rate=?, updated_at=? WHERE id=?",
			u.Email, u.Name, int(u.Role), u.HourlyRate, u.UpdatedAt, u.ID)
	}
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// Delete removes the user and, through foreign keys, everything they own.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id))
}

// Metrics computes the user detail figures for the day containing today.
func (r *UserRepo) Metrics(ctx context.Context, userID uint64, today model.Date, weekStart, weekEnd, monthStart, monthEnd model.Date) (model.UserMetrics, error) {
	var m model.UserMetrics
	const sumQ = "SELECT COALESCE(SUM(hours_worked),0) FROM work_hours WHERE user_id=? AND work_date BETWEEN ? AND ?"
	if err := r.DB.QueryRowContext(ctx, sumQ, userID, today, today).Scan(&m.TodayHours); err != nil {
		return m, err
	}
	if err := r.DB.QueryRowContext(ctx, sumQ, userID, weekStart, weekEnd).Scan(&m.ThisWeekHours); err != nil {
		return m, err
	}
	if err := r.DB.QueryRowContext(ctx, sumQ, userID, monthStart, monthEnd).Scan(&m.ThisMonthHours); err != nil {
		return m, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE user_id=? AND status<>?", userID, model.TaskCompleted).Scan(&m.PendingTasksCount); err != nil {
		return m, err
	}
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE user_id=? AND due_date < ? AND status<>?", userID, today, model.TaskCompleted).Scan(&m.OverdueTasksCount)
	return m, err
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
