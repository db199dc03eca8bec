package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks the invoice lifecycle. paid is terminal: money changed hands
// against these numbers, so the document is frozen.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether further mutation is disallowed.
func (s Status) Terminal() bool {
	return s == StatusPaid
}

// Invoice is a billing document. Subtotal, TaxAmount and TotalAmount are
// derived from the items at the current tax rate and never user-editable.
type Invoice struct {
	ID             int64           `json:"id"`
	DocumentNumber string          `json:"document_number"`
	ClientName     string          `json:"client_name"`
	ClientEmail    *string         `json:"client_email,omitempty"`
	ClientPhone    *string         `json:"client_phone,omitempty"`
	ClientAddress  *string         `json:"client_address,omitempty"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         Status          `json:"status"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedBy      int64           `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []Item          `json:"items,omitempty"`
}

// Item is one priced line. TotalPrice is always quantity x unit price,
// computed server-side.
type Item struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	EquipmentID *int64          `json:"equipment_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}
