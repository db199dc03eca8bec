package deliveries

import "time"

// Status tracks the delivery note lifecycle. delivered is terminal: the gear
// physically left the warehouse against this paper.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusDelivered Status = "delivered"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusDelivered
}

// Terminal reports whether further mutation is disallowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered
}

// DeliveryNote accompanies equipment handed over to a client. It carries no
// monetary fields; pricing lives on the quote or invoice.
type DeliveryNote struct {
	ID             int64      `json:"id"`
	DocumentNumber string     `json:"document_number"`
	ProjectID      *int64     `json:"project_id,omitempty"`
	ClientName     string     `json:"client_name"`
	ClientEmail    *string    `json:"client_email,omitempty"`
	ClientPhone    *string    `json:"client_phone,omitempty"`
	ClientAddress  *string    `json:"client_address,omitempty"`
	IssueDate      time.Time  `json:"issue_date"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	Status         Status     `json:"status"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Items          []Item     `json:"items,omitempty"`
}

// Item is one delivered line.
type Item struct {
	ID             int64  `json:"id"`
	DeliveryNoteID int64  `json:"delivery_note_id"`
	EquipmentID    *int64 `json:"equipment_id,omitempty"`
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
}
