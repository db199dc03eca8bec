package equipment

import (
	"context"
	"fmt"

	"github.com/backline-erp/backline/internal/platform/httpx"
)

// Service handles catalog business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new unit. New units start available.
func (s *Service) Create(ctx context.Context, req CreateEquipmentRequest) (*Equipment, error) {
	if !req.Condition.Valid() {
		return nil, fmt.Errorf("%w: unknown condition %q", httpx.ErrValidation, req.Condition)
	}
	created, err := s.repo.Create(ctx, Equipment{
		Name:            req.Name,
		Category:        req.Category,
		Brand:           req.Brand,
		Model:           req.Model,
		SerialNumber:    req.SerialNumber,
		Condition:       req.Condition,
		IsAvailable:     true,
		PurchasePrice:   req.PurchasePrice,
		CurrentValue:    req.CurrentValue,
		PurchaseDate:    req.PurchaseDate,
		LastMaintenance: req.LastMaintenance,
		NextMaintenance: req.NextMaintenance,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	return created, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id int64, req UpdateEquipmentRequest) (*Equipment, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Category != nil {
		existing.Category = *req.Category
	}
	if req.Brand != nil {
		existing.Brand = req.Brand
	}
	if req.Model != nil {
		existing.Model = req.Model
	}
	if req.SerialNumber != nil {
		existing.SerialNumber = req.SerialNumber
	}
	if req.Condition != nil {
		if !req.Condition.Valid() {
			return nil, fmt.Errorf("%w: unknown condition %q", httpx.ErrValidation, *req.Condition)
		}
		existing.Condition = *req.Condition
	}
	if req.PurchasePrice != nil {
		existing.PurchasePrice = req.PurchasePrice
	}
	if req.CurrentValue != nil {
		existing.CurrentValue = req.CurrentValue
	}
	if req.PurchaseDate != nil {
		existing.PurchaseDate = req.PurchaseDate
	}
	if req.LastMaintenance != nil {
		existing.LastMaintenance = req.LastMaintenance
	}
	if req.NextMaintenance != nil {
		existing.NextMaintenance = req.NextMaintenance
	}
	if req.Notes != nil {
		existing.Notes = req.Notes
	}
	updated, err := s.repo.Update(ctx, *existing)
	if err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	return updated, nil
}

// Get fetches one unit.
func (s *Service) Get(ctx context.Context, id int64) (*Equipment, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of equipment.
func (s *Service) List(ctx context.Context, req ListEquipmentRequest) ([]Equipment, int, error) {
	if req.Condition != nil && !req.Condition.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown condition %q", httpx.ErrValidation, *req.Condition)
	}
	return s.repo.List(ctx, req)
}

// Delete removes a unit unless a planning or active project still holds it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.HasOpenAllocation(ctx, id)
	if err != nil {
		return fmt.Errorf("check allocations: %w", err)
	}
	if inUse {
		return fmt.Errorf("%w: equipment is allocated to an open project", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}
