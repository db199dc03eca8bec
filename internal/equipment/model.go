package equipment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition grades the physical state of a unit.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionRepair    Condition = "repair"
)

// Valid reports whether the condition is a known grade.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionRepair:
		return true
	}
	return false
}

// Equipment is one rentable unit in the catalog. IsAvailable is owned by the
// project allocation tracker; nothing else writes it.
type Equipment struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Brand           *string          `json:"brand,omitempty"`
	Model           *string          `json:"model,omitempty"`
	SerialNumber    *string          `json:"serial_number,omitempty"`
	Condition       Condition        `json:"condition"`
	IsAvailable     bool             `json:"is_available"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price,omitempty"`
	CurrentValue    *decimal.Decimal `json:"current_value,omitempty"`
	PurchaseDate    *time.Time       `json:"purchase_date,omitempty"`
	LastMaintenance *time.Time       `json:"last_maintenance,omitempty"`
	NextMaintenance *time.Time       `json:"next_maintenance,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
