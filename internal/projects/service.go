package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backline-erp/backline/internal/customers"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// Service coordinates project lifecycle and equipment allocation.
type Service struct {
	repo         Repository
	customerRepo customers.Repository
	now          func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, customerRepo customers.Repository) *Service {
	return &Service{repo: repo, customerRepo: customerRepo, now: time.Now}
}

// Create stores a new project. A customer_id copies that customer's fields
// into the project snapshot; there is no lasting reference.
func (s *Service) Create(ctx context.Context, req CreateProjectRequest, p shared.Principal) (*Project, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: start_date must be before end_date", httpx.ErrValidation)
	}

	project := Project{
		Name:          req.Name,
		Description:   req.Description,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		ClientAddress: req.ClientAddress,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        StatusPlanning,
		CreatedBy:     p.UserID,
	}
	if req.ClientName != nil {
		project.ClientName = *req.ClientName
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		project.Status = *req.Status
	}

	if req.CustomerID != nil {
		customer, err := s.customerRepo.Get(ctx, *req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("resolve customer: %w", err)
		}
		if project.ClientName == "" {
			project.ClientName = customer.CompanyName
		}
		if project.ClientEmail == nil {
			email := customer.Email
			project.ClientEmail = &email
		}
		if project.ClientPhone == nil {
			project.ClientPhone = customer.Phone
		}
		if project.ClientAddress == nil {
			project.ClientAddress = customer.Address
		}
	}
	if project.ClientName == "" {
		return nil, fmt.Errorf("%w: client_name or customer_id is required", httpx.ErrValidation)
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

// Update applies the non-nil fields of req after an ownership check.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProjectRequest, p shared.Principal) (*Project, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanManage(existing.CreatedBy) {
		return nil, fmt.Errorf("%w: not the project owner", httpx.ErrForbidden)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.ClientName != nil {
		existing.ClientName = *req.ClientName
	}
	if req.ClientEmail != nil {
		existing.ClientEmail = req.ClientEmail
	}
	if req.ClientPhone != nil {
		existing.ClientPhone = req.ClientPhone
	}
	if req.ClientAddress != nil {
		existing.ClientAddress = req.ClientAddress
	}
	if req.StartDate != nil {
		existing.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		existing.EndDate = *req.EndDate
	}
	if !existing.EndDate.After(existing.StartDate) {
		return nil, fmt.Errorf("%w: start_date must be before end_date", httpx.ErrValidation)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		existing.Status = *req.Status
	}

	updated, err := s.repo.Update(ctx, *existing)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	updated.Allocations = existing.Allocations
	return updated, nil
}

// Get fetches a project with its allocations.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of projects.
func (s *Service) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req)
}

// Delete removes a project unless equipment is still out on it.
func (s *Service) Delete(ctx context.Context, id int64, p shared.Principal) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanManage(existing.CreatedBy) {
		return fmt.Errorf("%w: not the project owner", httpx.ErrForbidden)
	}
	open, err := s.repo.HasOpenAllocations(ctx, id)
	if err != nil {
		return fmt.Errorf("check allocations: %w", err)
	}
	if open {
		return fmt.Errorf("%w: project still holds allocated equipment", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}

// Allocate assigns an available equipment unit to the project. The whole
// sequence runs in one transaction with the equipment row locked, so a
// concurrent request for the same unit fails the availability check instead
// of double-allocating.
func (s *Service) Allocate(ctx context.Context, projectID int64, req AllocateRequest) (*Allocation, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", httpx.ErrValidation)
	}

	var allocation *Allocation
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		project, err := repo.Get(ctx, projectID)
		if err != nil {
			return err
		}
		if project.Status.Terminal() {
			return fmt.Errorf("%w: project is %s", httpx.ErrConflict, project.Status)
		}

		available, err := repo.LockEquipment(ctx, req.EquipmentID)
		if err != nil {
			return err
		}
		if !available {
			return fmt.Errorf("%w: equipment is not available", httpx.ErrConflict)
		}

		switch _, err := repo.GetOpenAllocation(ctx, projectID, req.EquipmentID); {
		case err == nil:
			return fmt.Errorf("%w: equipment already allocated to this project", httpx.ErrConflict)
		case !errors.Is(err, httpx.ErrNotFound):
			return err
		}

		allocation, err = repo.InsertAllocation(ctx, Allocation{
			ProjectID:     projectID,
			EquipmentID:   req.EquipmentID,
			Quantity:      quantity,
			AllocatedDate: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		return repo.SetEquipmentAvailability(ctx, req.EquipmentID, false)
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

// Return closes the open allocation for the pair and frees the equipment.
func (s *Service) Return(ctx context.Context, projectID, equipmentID int64) (*Allocation, error) {
	var returned *Allocation
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		allocation, err := repo.GetOpenAllocation(ctx, projectID, equipmentID)
		if err != nil {
			return err
		}
		returnedAt := s.now().UTC()
		if err := repo.CloseAllocation(ctx, allocation.ID, returnedAt); err != nil {
			return err
		}
		allocation.ReturnedDate = &returnedAt
		returned = allocation
		return repo.SetEquipmentAvailability(ctx, equipmentID, true)
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}
