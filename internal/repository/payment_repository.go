package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/conductor/internal/model"
)

const paymentColumns = "m.id, m.user_id, m.client_id, m.`year_month`, m.total_amount, m.currency, m.payment_date, m.payment_status, m.payment_method, m.created_at, m.updated_at"

const itemColumns = "id, monthly_payment_id, description, quantity, unit_price, amount, created_at, updated_at"

type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// PaymentFilter narrows List and Total. From and To bound year_month.
type PaymentFilter struct {
	UserID uint64
	Status model.PaymentStatus
	From   model.Date
	To     model.Date
	Limit  int
}

func (f PaymentFilter) where() where {
	var w where
	if f.UserID != 0 {
		w.add("m.user_id=?", f.UserID)
	}
	if f.Status != "" {
		w.add("m.payment_status=?", f.Status)
	}
	if !f.From.IsZero() {
		w.add("m.`year_month` >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.add("m.`year_month` <= ?", f.To)
	}
	return w
}

func scanPayment(row rowScanner, extra ...any) (model.MonthlyPayment, error) {
	var p model.MonthlyPayment
	dest := []any{&p.ID, &p.UserID, &p.ClientID, &p.YearMonth, &p.TotalAmount, &p.Currency, &p.PaymentDate,
		&p.PaymentStatus, &p.PaymentMethod, &p.CreatedAt, &p.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

func scanItem(row rowScanner) (model.InvoiceItem, error) {
	var it model.InvoiceItem
	err := row.Scan(&it.ID, &it.MonthlyPaymentID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Amount, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *PaymentRepo) Create(ctx context.Context, p *model.MonthlyPayment) error {
	p.CreatedAt = timestamp()
	p.UpdatedAt = p.CreatedAt
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO monthly_payments (user_id, client_id, `year_month`, total_amount, currency, payment_date, payment_status, payment_method, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
		p.UserID, p.ClientID, p.YearMonth, p.TotalAmount, p.Currency, p.PaymentDate, p.PaymentStatus, p.PaymentMethod, p.CreatedAt, p.UpdatedAt)
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

func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.MonthlyPayment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM monthly_payments m WHERE m.id=?", id))
	return p, notFound(err)
}

// Detail loads a payment with its party names and items.
func (r *PaymentRepo) Detail(ctx context.Context, id uint64) (model.PaymentDetail, error) {
	var d model.PaymentDetail
	p, err := scanPayment(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentColumns+", u.name, c.name FROM monthly_payments m JOIN users u ON u.id=m.user_id JOIN clients c ON c.id=m.client_id WHERE m.id=?", id),
		&d.UserName, &d.ClientName)
	if err != nil {
		return d, notFound(err)
	}
	d.MonthlyPayment = p
	d.InvoiceItems, err = r.Items(ctx, id)
	return d, err
}

// List returns matching payments with party names, latest month first.
// Items are not loaded.
func (r *PaymentRepo) List(ctx context.Context, f PaymentFilter) ([]model.PaymentDetail, error) {
	w := f.where()
	q := "SELECT " + paymentColumns + ", u.name, c.name FROM monthly_payments m JOIN users u ON u.id=m.user_id JOIN clients c ON c.id=m.client_id" +
		w.String() + " ORDER BY m.`year_month` DESC, m.id DESC"
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
	out := []model.PaymentDetail{}
	for rows.Next() {
		var d model.PaymentDetail
		p, err := scanPayment(rows, &d.UserName, &d.ClientName)
		if err != nil {
			return nil, err
		}
		d.MonthlyPayment = p
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update writes the payment header. The total is owned by the invoice items
// and is left untouched.
func (r *PaymentRepo) Update(ctx context.Context, p *model.MonthlyPayment) error {
	p.UpdatedAt = timestamp()
	return mustAffect(r.DB.ExecContext(ctx,
		"UPDATE monthly_payments SET user_id=?, client_id=?, `year_month`=?, currency=?, payment_date=?, payment_status=?, payment_method=?, updated_at=? WHERE id=?",
		p.UserID, p.ClientID, p.YearMonth, p.Currency, p.PaymentDate, p.PaymentStatus, p.PaymentMethod, p.UpdatedAt, p.ID))
}

// Delete removes the payment and its items.
func (r *PaymentRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM monthly_payments WHERE id=?", id))
}

// Items lists the payment's invoice items in insertion order.
func (r *PaymentRepo) Items(ctx context.Context, paymentID uint64) ([]model.InvoiceItem, error) {
	return listItems(ctx, r.DB, paymentID)
}

// Total sums total_amount over the filtered payments.
func (r *PaymentRepo) Total(ctx context.Context, f PaymentFilter) (decimal.Decimal, error) {
	w := f.where()
	var total decimal.NullDecimal
	if err := r.DB.QueryRowContext(ctx, "SELECT SUM(m.total_amount) FROM monthly_payments m"+w.String(), w.args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func listItems(ctx context.Context, db DBTX, paymentID uint64) ([]model.InvoiceItem, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+itemColumns+" FROM invoice_items WHERE monthly_payment_id=? ORDER BY id", paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.InvoiceItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// InvoiceTx is the set of writes an invoice change performs inside one
// transaction.
type InvoiceTx struct{ tx *sql.Tx }

// WithinTx runs fn in a transaction, committing when it returns nil.
func (r *PaymentRepo) WithinTx(ctx context.Context, fn func(*InvoiceTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&InvoiceTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (t *InvoiceTx) GetPayment(ctx context.Context, id uint64) (model.MonthlyPayment, error) {
	p, err := scanPayment(t.tx.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM monthly_payments m WHERE m.id=?", id))
	return p, notFound(err)
}

func (t *InvoiceTx) GetItem(ctx context.Context, paymentID, itemID uint64) (model.InvoiceItem, error) {
	it, err := scanItem(t.tx.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM invoice_items WHERE id=? AND monthly_payment_id=?", itemID, paymentID))
	return it, notFound(err)
}

func (t *InvoiceTx) InsertItem(ctx context.Context, it *model.InvoiceItem) error {
	it.CreatedAt = timestamp()
	it.UpdatedAt = it.CreatedAt
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO invoice_items (monthly_payment_id, description, quantity, unit_price, amount, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		it.MonthlyPaymentID, it.Description, it.Quantity, it.UnitPrice, it.Amount, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

func (t *InvoiceTx) UpdateItem(ctx context.Context, it *model.InvoiceItem) error {
	it.UpdatedAt = timestamp()
	return mustAffect(t.tx.ExecContext(ctx,
		"UPDATE invoice_items SET description=?, quantity=?, unit_price=?, amount=?, updated_at=? WHERE id=? AND monthly_payment_id=?",
		it.Description, it.Quantity, it.UnitPrice, it.Amount, it.UpdatedAt, it.ID, it.MonthlyPaymentID))
}

func (t *InvoiceTx) DeleteItem(ctx context.Context, paymentID, itemID uint64) error {
	return mustAffect(t.tx.ExecContext(ctx,
		"DELETE FROM invoice_items WHERE id=? AND monthly_payment_id=?", itemID, paymentID))
}

func (t *InvoiceTx) Items(ctx context.Context, paymentID uint64) ([]model.InvoiceItem, error) {
	return listItems(ctx, t.tx, paymentID)
}

// SetTotal stores the recomputed total of the payment.
func (t *InvoiceTx) SetTotal(ctx context.Context, paymentID uint64, total decimal.Decimal) error {
	return mustAffect(t.tx.ExecContext(ctx,
		"UPDATE monthly_payments SET total_amount=?, updated_at=? WHERE id=?", total, timestamp(), paymentID))
}
