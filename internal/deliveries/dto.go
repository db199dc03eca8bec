package deliveries

import "time"

// CreateDeliveryNoteRequest is the POST payload.
type CreateDeliveryNoteRequest struct {
	ProjectID     *int64        `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	ClientName    string        `json:"client_name" validate:"required,max=200"`
	ClientEmail   *string       `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string       `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string       `json:"client_address,omitempty" validate:"omitempty,max=500"`
	IssueDate     *time.Time    `json:"issue_date,omitempty"`
	DeliveryDate  *time.Time    `json:"delivery_date,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	Items         []ItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
}

// UpdateDeliveryNoteRequest is the PUT payload; nil fields stay unchanged.
type UpdateDeliveryNoteRequest struct {
	ProjectID     *int64     `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	ClientName    *string    `json:"client_name,omitempty" validate:"omitempty,max=200"`
	ClientEmail   *string    `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string    `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string    `json:"client_address,omitempty" validate:"omitempty,max=500"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty"`
	Status        *Status    `json:"status,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// ItemRequest carries a delivered line for create or update.
type ItemRequest struct {
	EquipmentID *int64 `json:"equipment_id,omitempty" validate:"omitempty,gt=0"`
	Description string `json:"description" validate:"required,max=200"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
}

// ListDeliveryNotesRequest captures list filters.
type ListDeliveryNotesRequest struct {
	Search    string
	Status    *Status
	ProjectID *int64
	Page      int
	Limit     int
}
