package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/conductor/internal/model"
)

const clientColumns = "id, name, contact_person, email, phone, COALESCE(address,''), COALESCE(notes,''), created_at, updated_at"

type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

func scanClient(row rowScanner) (model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	c.CreatedAt = timestamp()
	c.UpdatedAt = c.CreatedAt
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO clients (name, contact_person, email, phone, address, notes, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	c, err := scanClient(r.DB.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM clients WHERE id=?", id))
	return c, notFound(err)
}

// List returns clients ordered by name.
func (r *ClientRepo) List(ctx context.Context) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) Update(ctx context.Context, c *model.Client) error {
	c.UpdatedAt = timestamp()
	return mustAffect(r.DB.ExecContext(ctx,
		"UPDATE clients SET name=?, contact_person=?, email=?, phone=?, address=?, notes=?, updated_at=? WHERE id=?",
		c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.Notes, c.UpdatedAt, c.ID))
}

// Delete removes the client with its projects, their tasks and work hours.
func (r *ClientRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM clients WHERE id=?", id))
}
