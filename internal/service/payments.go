package service

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/lock"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/queue"
	"github.com/iliyamo/conductor/internal/repository"
)

// PaymentService covers the monthly payment headers. Totals are never
// written here; they belong to InvoiceService.
type PaymentService struct {
	repo *repository.PaymentRepo
}

func NewPaymentService(repo *repository.PaymentRepo) *PaymentService {
	return &PaymentService{repo: repo}
}

// List returns the caller's payments, or every payment (optionally of one
// user) for admins.
func (s *PaymentService) List(ctx context.Context, actor authz.Actor, userID uint64, status model.PaymentStatus) ([]model.PaymentDetail, error) {
	return s.repo.List(ctx, repository.PaymentFilter{
		UserID: ownerScope(actor, authz.Payment, userID),
		Status: status,
	})
}

func (s *PaymentService) Get(ctx context.Context, actor authz.Actor, id uint64) (model.PaymentDetail, error) {
	d, err := s.repo.Detail(ctx, id)
	if err != nil {
		return d, storeErr(err, "Monthly payment")
	}
	if err := authz.Authorize(actor, authz.On(authz.Payment, d.UserID), authz.Read); err != nil {
		return model.PaymentDetail{}, err
	}
	return d, nil
}

func (s *PaymentService) Create(ctx context.Context, actor authz.Actor, p model.MonthlyPayment) (model.MonthlyPayment, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.Payment, AssignTo: p.UserID}, authz.Create); err != nil {
		return p, err
	}
	p.ApplyDefaults()
	p.TotalAmount = decimal.Zero
	if err := invalid(p.Validate()); err != nil {
		return p, err
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return p, storeErr(err, "Monthly payment")
	}
	return p, nil
}

// PaymentPatch holds the header fields an update may change.
type PaymentPatch struct {
	ClientID      *uint64
	YearMonth     *model.Date
	Currency      *string
	PaymentDate   *model.Date
	PaymentStatus *model.PaymentStatus
	PaymentMethod *string
}

func (s *PaymentService) Update(ctx context.Context, actor authz.Actor, id uint64, patch PaymentPatch) (model.MonthlyPayment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return p, storeErr(err, "Monthly payment")
	}
	if err := authz.Authorize(actor, authz.On(authz.Payment, p.UserID), authz.Update); err != nil {
		return p, err
	}
	if patch.ClientID != nil {
		p.ClientID = *patch.ClientID
	}
	if patch.YearMonth != nil {
		p.YearMonth = *patch.YearMonth
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.PaymentDate != nil {
		p.PaymentDate = *patch.PaymentDate
	}
	if patch.PaymentStatus != nil {
		p.PaymentStatus = *patch.PaymentStatus
	}
	if patch.PaymentMethod != nil {
		p.PaymentMethod = *patch.PaymentMethod
	}
	p.ApplyDefaults()
	if err := invalid(p.Validate()); err != nil {
		return p, err
	}
	if err := s.repo.Update(ctx, &p); err != nil {
		return p, storeErr(err, "Monthly payment")
	}
	return p, nil
}

func (s *PaymentService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "Monthly payment")
	}
	if err := authz.Authorize(actor, authz.On(authz.Payment, p.UserID), authz.Delete); err != nil {
		return err
	}
	return storeErr(s.repo.Delete(ctx, id), "Monthly payment")
}

// InvoiceTx is the transactional view the invoice service writes through.
type InvoiceTx interface {
	GetPayment(ctx context.Context, id uint64) (model.MonthlyPayment, error)
	GetItem(ctx context.Context, paymentID, itemID uint64) (model.InvoiceItem, error)
	InsertItem(ctx context.Context, it *model.InvoiceItem) error
	UpdateItem(ctx context.Context, it *model.InvoiceItem) error
	DeleteItem(ctx context.Context, paymentID, itemID uint64) error
	Items(ctx context.Context, paymentID uint64) ([]model.InvoiceItem, error)
	SetTotal(ctx context.Context, paymentID uint64, total decimal.Decimal) error
}

// InvoiceStore runs a function inside one transaction.
type InvoiceStore interface {
	WithinTx(ctx context.Context, fn func(InvoiceTx) error) error
}

type paymentTxStore struct{ repo *repository.PaymentRepo }

// NewInvoiceStore exposes the payment repository's transactions as an
// InvoiceStore.
func NewInvoiceStore(repo *repository.PaymentRepo) InvoiceStore {
	return paymentTxStore{repo: repo}
}

func (s paymentTxStore) WithinTx(ctx context.Context, fn func(InvoiceTx) error) error {
	return s.repo.WithinTx(ctx, func(tx *repository.InvoiceTx) error { return fn(tx) })
}

// InvoiceService applies invoice item changes and keeps the parent payment's
// total equal to the sum of its items. The item write and the total update
// share one transaction, and changes to the same payment are serialised.
type InvoiceService struct {
	store  InvoiceStore
	locker lock.Locker
	events queue.Publisher
	log    *zap.Logger
}

func NewInvoiceService(store InvoiceStore, locker lock.Locker, events queue.Publisher, log *zap.Logger) *InvoiceService {
	return &InvoiceService{store: store, locker: locker, events: events, log: log.Named("invoice")}
}

// InvoiceChange is the result of an item mutation.
type InvoiceChange struct {
	Item  model.InvoiceItem `json:"invoice_item"`
	Total decimal.Decimal   `json:"total_amount"`
}

// ItemPatch holds the fields an item update may change.
type ItemPatch struct {
	Description *string
	Quantity    *decimal.Decimal
	UnitPrice   *decimal.Decimal
}

func (s *InvoiceService) AddItem(ctx context.Context, actor authz.Actor, paymentID uint64, it model.InvoiceItem) (InvoiceChange, error) {
	return s.apply(ctx, actor, paymentID, authz.Create, func(tx InvoiceTx) (model.InvoiceItem, error) {
		it.ID = 0
		it.MonthlyPaymentID = paymentID
		if err := invalid(it.Validate()); err != nil {
			return it, err
		}
		return it, tx.InsertItem(ctx, &it)
	})
}

func (s *InvoiceService) UpdateItem(ctx context.Context, actor authz.Actor, paymentID, itemID uint64, patch ItemPatch) (InvoiceChange, error) {
	return s.apply(ctx, actor, paymentID, authz.Update, func(tx InvoiceTx) (model.InvoiceItem, error) {
		it, err := tx.GetItem(ctx, paymentID, itemID)
		if err != nil {
			return it, storeErr(err, "Invoice item")
		}
		if patch.Description != nil {
			it.Description = *patch.Description
		}
		if patch.Quantity != nil {
			it.Quantity = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			it.UnitPrice = *patch.UnitPrice
		}
		if err := invalid(it.Validate()); err != nil {
			return it, err
		}
		return it, storeErr(tx.UpdateItem(ctx, &it), "Invoice item")
	})
}

func (s *InvoiceService) RemoveItem(ctx context.Context, actor authz.Actor, paymentID, itemID uint64) (InvoiceChange, error) {
	return s.apply(ctx, actor, paymentID, authz.Delete, func(tx InvoiceTx) (model.InvoiceItem, error) {
		it, err := tx.GetItem(ctx, paymentID, itemID)
		if err != nil {
			return it, storeErr(err, "Invoice item")
		}
		return it, storeErr(tx.DeleteItem(ctx, paymentID, itemID), "Invoice item")
	})
}

// Recalculate rewrites the stored total from the items without changing any
// item.
func (s *InvoiceService) Recalculate(ctx context.Context, actor authz.Actor, paymentID uint64) (decimal.Decimal, error) {
	ch, err := s.apply(ctx, actor, paymentID, authz.Update, func(InvoiceTx) (model.InvoiceItem, error) {
		return model.InvoiceItem{}, nil
	})
	return ch.Total, err
}

func (s *InvoiceService) apply(ctx context.Context, actor authz.Actor, paymentID uint64, action authz.Action,
	change func(InvoiceTx) (model.InvoiceItem, error)) (InvoiceChange, error) {
	unlock, err := s.locker.Lock(ctx, "payment:"+strconv.FormatUint(paymentID, 10))
	if err != nil {
		return InvoiceChange{}, err
	}
	defer unlock()

	var (
		out   InvoiceChange
		owner uint64
	)
	err = s.store.WithinTx(ctx, func(tx InvoiceTx) error {
		p, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return storeErr(err, "Monthly payment")
		}
		owner = p.UserID
		if err := authz.Authorize(actor, authz.On(authz.InvoiceItem, p.UserID), action); err != nil {
			return err
		}
		if out.Item, err = change(tx); err != nil {
			return err
		}
		items, err := tx.Items(ctx, paymentID)
		if err != nil {
			return err
		}
		out.Total = model.SumAmounts(items)
		return tx.SetTotal(ctx, paymentID, out.Total)
	})
	if err != nil {
		if _, ok := apperr.From(err); !ok {
			s.log.Error("invoice change failed", zap.Uint64("payment_id", paymentID), zap.Error(err))
		}
		return InvoiceChange{}, err
	}
	publish(ctx, s.events, s.log, queue.Event{
		Type:        queue.EventPaymentRecalculated,
		UserID:      owner,
		PaymentID:   paymentID,
		TotalAmount: out.Total.StringFixed(2),
	})
	return out, nil
}
