package customers

// CreateCustomerRequest is the POST payload.
type CreateCustomerRequest struct {
	CompanyName string  `json:"company_name" validate:"required,max=200"`
	ContactName string  `json:"contact_name" validate:"required,max=200"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest is the PUT payload; nil fields are left unchanged.
type UpdateCustomerRequest struct {
	CompanyName *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes       *string `json:"notes,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ListCustomersRequest captures list filters.
type ListCustomersRequest struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}
