package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied to payments created without one.
const DefaultCurrency = "JPY"

// MonthlyPayment is the billing record of one user towards one client for a
// calendar month. TotalAmount is always the sum of the item amounts.
type MonthlyPayment struct {
	ID            uint64          `json:"id"`
	UserID        uint64          `json:"user_id"`
	ClientID      uint64          `json:"client_id"`
	YearMonth     Date            `json:"year_month"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaymentDate   Date            `json:"payment_date"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ApplyDefaults pins YearMonth to the first day of its month and fills
// currency and status.
func (p *MonthlyPayment) ApplyDefaults() {
	if !p.YearMonth.IsZero() {
		p.YearMonth = DateOf(p.YearMonth.Year(), p.YearMonth.Month(), 1)
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = PaymentPending
	}
}

func (p MonthlyPayment) Validate() []string {
	var errs []string
	if p.UserID == 0 {
		errs = append(errs, "User must exist")
	}
	if p.ClientID == 0 {
		errs = append(errs, "Client must exist")
	}
	if p.YearMonth.IsZero() {
		errs = append(errs, "Year month can't be blank")
	}
	if p.TotalAmount.IsNegative() {
		errs = append(errs, "Total amount must be greater than or equal to 0")
	}
	if strings.TrimSpace(p.Currency) == "" {
		errs = append(errs, "Currency can't be blank")
	}
	if _, err := ParsePaymentStatus(string(p.PaymentStatus)); err != nil {
		errs = append(errs, "Payment status is not included in the list")
	}
	return errs
}

// InvoiceItem is one billed line of a monthly payment.
type InvoiceItem struct {
	ID               uint64          `json:"id"`
	MonthlyPaymentID uint64          `json:"monthly_payment_id"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Amount           decimal.Decimal `json:"amount"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ComputeAmount sets Amount to quantity x unit price rounded to two decimals.
func (i *InvoiceItem) ComputeAmount() {
	i.Amount = i.Quantity.Mul(i.UnitPrice).Round(2)
}

// Validate recomputes the amount and returns every violation.
func (i *InvoiceItem) Validate() []string {
	var errs []string
	if strings.TrimSpace(i.Description) == "" {
		errs = append(errs, "Description can't be blank")
	}
	if !i.Quantity.IsPositive() {
		errs = append(errs, "Quantity must be greater than 0")
	}
	if i.UnitPrice.IsNegative() {
		errs = append(errs, "Unit price must be greater than or equal to 0")
	}
	i.ComputeAmount()
	if i.Amount.IsNegative() {
		errs = append(errs, "Amount must be greater than or equal to 0")
	}
	return errs
}

// SumAmounts adds the item amounts.
func SumAmounts(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// PaymentDetail is a payment with its items and parties.
type PaymentDetail struct {
	MonthlyPayment
	UserName     string        `json:"user_name"`
	ClientName   string        `json:"client_name"`
	InvoiceItems []InvoiceItem `json:"invoice_items,omitempty"`
}
