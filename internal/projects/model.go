package projects

import "time"

// Status tracks the project lifecycle.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the project can no longer receive allocations.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Project is a booked job. Client fields are a denormalized snapshot,
// optionally copied from a customer at creation time; there is no foreign key.
type Project struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Description   *string      `json:"description,omitempty"`
	ClientName    string       `json:"client_name"`
	ClientEmail   *string      `json:"client_email,omitempty"`
	ClientPhone   *string      `json:"client_phone,omitempty"`
	ClientAddress *string      `json:"client_address,omitempty"`
	StartDate     time.Time    `json:"start_date"`
	EndDate       time.Time    `json:"end_date"`
	Status        Status       `json:"status"`
	CreatedBy     int64        `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Allocations   []Allocation `json:"equipment,omitempty"`
}

// Allocation assigns one equipment unit to a project for a bounded window.
// The row is closed by setting ReturnedDate, never deleted, so the rental
// history survives.
type Allocation struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	EquipmentID   int64      `json:"equipment_id"`
	EquipmentName string     `json:"equipment_name,omitempty"`
	Quantity      int        `json:"quantity"`
	AllocatedDate time.Time  `json:"allocated_date"`
	ReturnedDate  *time.Time `json:"returned_date,omitempty"`
}

// Open reports whether the equipment is still out on this allocation.
func (a Allocation) Open() bool {
	return a.ReturnedDate == nil
}
