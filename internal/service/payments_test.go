package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/lock"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/queue"
	"github.com/iliyamo/conductor/internal/repository"
)

// memInvoices keeps payments and items in memory. WithinTx works on a copy
// and publishes it only when fn succeeds.
type memInvoices struct {
	mu       sync.Mutex
	payments map[uint64]model.MonthlyPayment
	items    map[uint64]model.InvoiceItem
	nextID   uint64
}

func newMemInvoices(payments ...model.MonthlyPayment) *memInvoices {
	m := &memInvoices{payments: map[uint64]model.MonthlyPayment{}, items: map[uint64]model.InvoiceItem{}}
	for _, p := range payments {
		m.payments[p.ID] = p
	}
	return m
}

type memInvoiceTx struct {
	payments map[uint64]model.MonthlyPayment
	items    map[uint64]model.InvoiceItem
	nextID   *uint64
}

func (m *memInvoices) WithinTx(_ context.Context, fn func(InvoiceTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memInvoiceTx{payments: map[uint64]model.MonthlyPayment{}, items: map[uint64]model.InvoiceItem{}, nextID: new(uint64)}
	for k, v := range m.payments {
		tx.payments[k] = v
	}
	for k, v := range m.items {
		tx.items[k] = v
	}
	*tx.nextID = m.nextID
	if err := fn(tx); err != nil {
		return err
	}
	m.payments, m.items, m.nextID = tx.payments, tx.items, *tx.nextID
	return nil
}

func (m *memInvoices) total(id uint64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id].TotalAmount
}

func (tx *memInvoiceTx) GetPayment(_ context.Context, id uint64) (model.MonthlyPayment, error) {
	p, ok := tx.payments[id]
	if !ok {
		return p, repository.ErrNotFound
	}
	return p, nil
}

func (tx *memInvoiceTx) GetItem(_ context.Context, paymentID, itemID uint64) (model.InvoiceItem, error) {
	it, ok := tx.items[itemID]
	if !ok || it.MonthlyPaymentID != paymentID {
		return model.InvoiceItem{}, repository.ErrNotFound
	}
	return it, nil
}

func (tx *memInvoiceTx) InsertItem(_ context.Context, it *model.InvoiceItem) error {
	*tx.nextID++
	it.ID = *tx.nextID
	tx.items[it.ID] = *it
	return nil
}

func (tx *memInvoiceTx) UpdateItem(_ context.Context, it *model.InvoiceItem) error {
	if _, ok := tx.items[it.ID]; !ok {
		return repository.ErrNotFound
	}
	tx.items[it.ID] = *it
	return nil
}

func (tx *memInvoiceTx) DeleteItem(_ context.Context, paymentID, itemID uint64) error {
	if it, ok := tx.items[itemID]; !ok || it.MonthlyPaymentID != paymentID {
		return repository.ErrNotFound
	}
	delete(tx.items, itemID)
	return nil
}

func (tx *memInvoiceTx) Items(_ context.Context, paymentID uint64) ([]model.InvoiceItem, error) {
	var out []model.InvoiceItem
	for _, it := range tx.items {
		if it.MonthlyPaymentID == paymentID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (tx *memInvoiceTx) SetTotal(_ context.Context, paymentID uint64, total decimal.Decimal) error {
	p, ok := tx.payments[paymentID]
	if !ok {
		return repository.ErrNotFound
	}
	p.TotalAmount = total
	tx.payments[paymentID] = p
	return nil
}

var (
	admin    = authz.Actor{ID: 99, Role: model.RoleAdmin}
	standard = authz.Actor{ID: 7, Role: model.RoleStandard}
)

func newInvoiceFixture() (*InvoiceService, *memInvoices, *recordingPublisher) {
	store := newMemInvoices(model.MonthlyPayment{ID: 1, UserID: 7, ClientID: 1, Currency: "JPY", PaymentStatus: model.PaymentPending})
	events := &recordingPublisher{}
	return NewInvoiceService(store, lock.NewLocalLocker(), events, zap.NewNop()), store, events
}

func item(qty, price int64) model.InvoiceItem {
	return model.InvoiceItem{Description: "development", Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(price)}
}

func TestInvoiceTotalFollowsItems(t *testing.T) {
	svc, store, events := newInvoiceFixture()
	ctx := context.Background()

	first, err := svc.AddItem(ctx, admin, 1, item(10, 3000))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30000).Equal(first.Item.Amount))
	_, err = svc.AddItem(ctx, admin, 1, item(2, 500))
	require.NoError(t, err)
	third, err := svc.AddItem(ctx, admin, 1, item(1, 250))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(31250).Equal(third.Total), third.Total.String())

	removed, err := svc.RemoveItem(ctx, admin, 1, first.Item.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1250).Equal(removed.Total), removed.Total.String())
	assert.True(t, decimal.NewFromInt(1250).Equal(store.total(1)))

	qty := decimal.NewFromInt(4)
	updated, err := svc.UpdateItem(ctx, admin, 1, third.Item.ID, ItemPatch{Quantity: &qty})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(updated.Item.Amount))
	assert.True(t, decimal.NewFromInt(2000).Equal(store.total(1)), store.total(1).String())

	assert.Len(t, events.types(), 5)
	assert.Equal(t, queue.EventPaymentRecalculated, events.types()[0])
}

func TestInvoiceInvalidItemChangesNothing(t *testing.T) {
	svc, store, _ := newInvoiceFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, admin, 1, item(1, 100))
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, admin, 1, model.InvoiceItem{Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(-1)})
	require.Error(t, err)
	e, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Validation, e.Kind)
	assert.Len(t, e.Details, 3)
	assert.True(t, decimal.NewFromInt(100).Equal(store.total(1)))
}

func TestInvoiceRequiresAdmin(t *testing.T) {
	svc, store, _ := newInvoiceFixture()
	_, err := svc.AddItem(context.Background(), standard, 1, item(1, 100))
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	assert.True(t, store.total(1).IsZero())
}

func TestInvoiceMissingRows(t *testing.T) {
	svc, _, _ := newInvoiceFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, admin, 42, item(1, 100))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.RemoveItem(ctx, admin, 1, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInvoiceConcurrentAddsKeepTotal(t *testing.T) {
	svc, store, _ := newInvoiceFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, admin, 1, item(1, 50))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.True(t, decimal.NewFromInt(1000).Equal(store.total(1)), store.total(1).String())

	total, err := svc.Recalculate(ctx, admin, 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(total))
}
