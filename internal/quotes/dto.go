package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateQuoteRequest is the POST payload.
type CreateQuoteRequest struct {
	ClientName    string            `json:"client_name" validate:"required,max=200"`
	ClientEmail   *string           `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string           `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string           `json:"client_address,omitempty" validate:"omitempty,max=500"`
	IssueDate     *time.Time        `json:"issue_date,omitempty"`
	ValidUntil    *time.Time        `json:"valid_until,omitempty"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	Notes         *string           `json:"notes,omitempty"`
	Items         []ItemRequest     `json:"items,omitempty" validate:"omitempty,dive"`
}

// UpdateQuoteRequest is the PUT payload; nil fields stay unchanged. A tax
// rate change triggers total recomputation.
type UpdateQuoteRequest struct {
	ClientName    *string          `json:"client_name,omitempty" validate:"omitempty,max=200"`
	ClientEmail   *string          `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string          `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string          `json:"client_address,omitempty" validate:"omitempty,max=500"`
	IssueDate     *time.Time       `json:"issue_date,omitempty"`
	ValidUntil    *time.Time       `json:"valid_until,omitempty"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	Status        *Status          `json:"status,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// ItemRequest carries a line item for create or update. The client may send a
// total; it is ignored and recomputed server-side.
type ItemRequest struct {
	EquipmentID *int64          `json:"equipment_id,omitempty" validate:"omitempty,gt=0"`
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ListQuotesRequest captures list filters.
type ListQuotesRequest struct {
	Search string
	Status *Status
	Page   int
	Limit  int
}
