package equipment

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEquipmentRequest is the POST payload.
type CreateEquipmentRequest struct {
	Name            string           `json:"name" validate:"required,max=200"`
	Category        string           `json:"category" validate:"required,max=100"`
	Brand           *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Model           *string          `json:"model,omitempty" validate:"omitempty,max=100"`
	SerialNumber    *string          `json:"serial_number,omitempty" validate:"omitempty,max=100"`
	Condition       Condition        `json:"condition" validate:"required"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price,omitempty"`
	CurrentValue    *decimal.Decimal `json:"current_value,omitempty"`
	PurchaseDate    *time.Time       `json:"purchase_date,omitempty"`
	LastMaintenance *time.Time       `json:"last_maintenance,omitempty"`
	NextMaintenance *time.Time       `json:"next_maintenance,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// UpdateEquipmentRequest is the PUT payload; nil fields stay unchanged.
// Availability is deliberately absent: only the allocation tracker flips it.
type UpdateEquipmentRequest struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Category        *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Brand           *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Model           *string          `json:"model,omitempty" validate:"omitempty,max=100"`
	SerialNumber    *string          `json:"serial_number,omitempty" validate:"omitempty,max=100"`
	Condition       *Condition       `json:"condition,omitempty"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price,omitempty"`
	CurrentValue    *decimal.Decimal `json:"current_value,omitempty"`
	PurchaseDate    *time.Time       `json:"purchase_date,omitempty"`
	LastMaintenance *time.Time       `json:"last_maintenance,omitempty"`
	NextMaintenance *time.Time       `json:"next_maintenance,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// ListEquipmentRequest captures list filters.
type ListEquipmentRequest struct {
	Search    string
	Category  string
	Condition *Condition
	Available *bool
	Page      int
	Limit     int
}
