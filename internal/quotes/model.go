package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks the quote lifecycle. accepted is terminal: a customer signed
// off on these exact numbers, so nothing on the document may change after.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether further mutation is disallowed.
func (s Status) Terminal() bool {
	return s == StatusAccepted
}

// Quote is a priced offer. Subtotal, TaxAmount and TotalAmount are derived
// from the items at the current tax rate and never user-editable.
type Quote struct {
	ID             int64           `json:"id"`
	DocumentNumber string          `json:"document_number"`
	ClientName     string          `json:"client_name"`
	ClientEmail    *string         `json:"client_email,omitempty"`
	ClientPhone    *string         `json:"client_phone,omitempty"`
	ClientAddress  *string         `json:"client_address,omitempty"`
	IssueDate      time.Time       `json:"issue_date"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty"`
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
	QuoteID     int64           `json:"quote_id"`
	EquipmentID *int64          `json:"equipment_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}
