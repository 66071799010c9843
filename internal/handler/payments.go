package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/service"
)

// PaymentHandler serves monthly payments and their invoice items.
type PaymentHandler struct {
	payments *service.PaymentService
	invoices *service.InvoiceService
}

func NewPaymentHandler(payments *service.PaymentService, invoices *service.InvoiceService) *PaymentHandler {
	return &PaymentHandler{payments: payments, invoices: invoices}
}

type paymentBody struct {
	UserID        *uint64     `json:"user_id"`
	ClientID      *uint64     `json:"client_id"`
	YearMonth     *model.Date `json:"year_month"`
	Currency      *string     `json:"currency"`
	PaymentDate   *model.Date `json:"payment_date"`
	PaymentStatus *string     `json:"payment_status" validate:"omitempty,oneof=pending paid partially_paid cancelled"`
	PaymentMethod *string     `json:"payment_method"`
}

type paymentReq struct {
	MonthlyPayment paymentBody `json:"monthly_payment"`
}

type itemBody struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type itemReq struct {
	InvoiceItem itemBody `json:"invoice_item"`
}

func (h *PaymentHandler) List(c echo.Context) error {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		return err
	}
	list, err := h.payments.List(c.Request().Context(), middleware.Actor(c), userID, model.PaymentStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *PaymentHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.payments.Get(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *PaymentHandler) Create(c echo.Context) error {
	var req paymentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.MonthlyPayment
	p, err := h.payments.Create(c.Request().Context(), middleware.Actor(c), model.MonthlyPayment{
		UserID:        deref(b.UserID),
		ClientID:      deref(b.ClientID),
		YearMonth:     deref(b.YearMonth),
		Currency:      deref(b.Currency),
		PaymentDate:   deref(b.PaymentDate),
		PaymentStatus: model.PaymentStatus(deref(b.PaymentStatus)),
		PaymentMethod: deref(b.PaymentMethod),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PaymentHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req paymentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.MonthlyPayment
	patch := service.PaymentPatch{
		ClientID:      b.ClientID,
		YearMonth:     b.YearMonth,
		Currency:      b.Currency,
		PaymentDate:   b.PaymentDate,
		PaymentMethod: b.PaymentMethod,
	}
	if b.PaymentStatus != nil {
		s := model.PaymentStatus(*b.PaymentStatus)
		patch.PaymentStatus = &s
	}
	p, err := h.payments.Update(c.Request().Context(), middleware.Actor(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.payments.Delete(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PaymentHandler) AddItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req itemReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.InvoiceItem
	change, err := h.invoices.AddItem(c.Request().Context(), middleware.Actor(c), id, model.InvoiceItem{
		Description: deref(b.Description),
		Quantity:    deref(b.Quantity),
		UnitPrice:   deref(b.UnitPrice),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, change)
}

func (h *PaymentHandler) UpdateItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "item_id")
	if err != nil {
		return err
	}
	var req itemReq
	if err := bind(c, &req); err != nil {
		return err
	}
	b := req.InvoiceItem
	change, err := h.invoices.UpdateItem(c.Request().Context(), middleware.Actor(c), id, itemID, service.ItemPatch{
		Description: b.Description,
		Quantity:    b.Quantity,
		UnitPrice:   b.UnitPrice,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, change)
}

func (h *PaymentHandler) RemoveItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "item_id")
	if err != nil {
		return err
	}
	change, err := h.invoices.RemoveItem(c.Request().Context(), middleware.Actor(c), id, itemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"total_amount": change.Total})
}

// Recalculate recomputes the total from the items, repairing any drift.
func (h *PaymentHandler) Recalculate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	total, err := h.invoices.Recalculate(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"total_amount": total})
}
