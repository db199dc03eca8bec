package projects

import "time"

// CreateProjectRequest is the POST payload. When CustomerID is set the client
// snapshot fields are copied from that customer; explicit client fields win.
type CreateProjectRequest struct {
	Name          string     `json:"name" validate:"required,max=200"`
	Description   *string    `json:"description,omitempty"`
	CustomerID    *int64     `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	ClientName    *string    `json:"client_name,omitempty" validate:"omitempty,max=200"`
	ClientEmail   *string    `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string    `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string    `json:"client_address,omitempty" validate:"omitempty,max=500"`
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       time.Time  `json:"end_date" validate:"required"`
	Status        *Status    `json:"status,omitempty"`
}

// UpdateProjectRequest is the PUT payload; nil fields stay unchanged.
type UpdateProjectRequest struct {
	Name          *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description   *string    `json:"description,omitempty"`
	ClientName    *string    `json:"client_name,omitempty" validate:"omitempty,max=200"`
	ClientEmail   *string    `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string    `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string    `json:"client_address,omitempty" validate:"omitempty,max=500"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Status        *Status    `json:"status,omitempty"`
}

// ListProjectsRequest captures list filters.
type ListProjectsRequest struct {
	Search string
	Status *Status
	Page   int
	Limit  int
}

// AllocateRequest asks for one equipment unit on a project.
type AllocateRequest struct {
	EquipmentID int64 `json:"equipment_id" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"omitempty,gte=1"`
}
