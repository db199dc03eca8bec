package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the POST payload.
type CreateInvoiceRequest struct {
	ClientName    string          `json:"client_name" validate:"required,max=200"`
	ClientEmail   *string         `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string         `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string         `json:"client_address,omitempty" validate:"omitempty,max=500"`
	IssueDate     *time.Time      `json:"issue_date,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Notes         *string         `json:"notes,omitempty"`
	Items         []ItemRequest   `json:"items,omitempty" validate:"omitempty,dive"`
}

// UpdateInvoiceRequest is the PUT payload; nil fields stay unchanged. A tax
// rate change triggers total recomputation.
type UpdateInvoiceRequest struct {
	ClientName    *string          `json:"client_name,omitempty" validate:"omitempty,max=200"`
	ClientEmail   *string          `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string          `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string          `json:"client_address,omitempty" validate:"omitempty,max=500"`
	IssueDate     *time.Time       `json:"issue_date,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	Status        *Status          `json:"status,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// ItemRequest carries a line item for create or update. Client-submitted
// totals are ignored and recomputed server-side.
type ItemRequest struct {
	EquipmentID *int64          `json:"equipment_id,omitempty" validate:"omitempty,gt=0"`
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ListInvoicesRequest captures list filters.
type ListInvoicesRequest struct {
	Search string
	Status *Status
	Page   int
	Limit  int
}
