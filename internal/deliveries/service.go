package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// Service coordinates delivery note business rules. Delivered notes reject
// every mutation including deletion.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) buildItem(ctx context.Context, repo Repository, noteID int64, req ItemRequest) (Item, error) {
	if req.EquipmentID != nil {
		exists, err := repo.EquipmentExists(ctx, *req.EquipmentID)
		if err != nil {
			return Item{}, fmt.Errorf("verify equipment: %w", err)
		}
		if !exists {
			return Item{}, fmt.Errorf("%w: equipment", httpx.ErrNotFound)
		}
	}
	return Item{
		DeliveryNoteID: noteID,
		EquipmentID:    req.EquipmentID,
		Description:    req.Description,
		Quantity:       req.Quantity,
	}, nil
}

func (s *Service) verifyProject(ctx context.Context, repo Repository, projectID int64) error {
	exists, err := repo.ProjectExists(ctx, projectID)
	if err != nil {
		return fmt.Errorf("verify project: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: project", httpx.ErrNotFound)
	}
	return nil
}

// Create numbers and stores a new delivery note with its initial items.
func (s *Service) Create(ctx context.Context, req CreateDeliveryNoteRequest, p shared.Principal) (*DeliveryNote, error) {
	issueDate := s.now().UTC()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	var noteID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if req.ProjectID != nil {
			if err := s.verifyProject(ctx, repo, *req.ProjectID); err != nil {
				return err
			}
		}
		number, err := repo.NextNumber(ctx, s.now())
		if err != nil {
			return err
		}
		noteID, err = repo.Create(ctx, DeliveryNote{
			DocumentNumber: number,
			ProjectID:      req.ProjectID,
			ClientName:     req.ClientName,
			ClientEmail:    req.ClientEmail,
			ClientPhone:    req.ClientPhone,
			ClientAddress:  req.ClientAddress,
			IssueDate:      issueDate,
			DeliveryDate:   req.DeliveryDate,
			Status:         StatusDraft,
			Notes:          req.Notes,
			CreatedBy:      p.UserID,
		})
		if err != nil {
			return fmt.Errorf("create delivery note: %w", err)
		}
		for _, itemReq := range req.Items {
			item, err := s.buildItem(ctx, repo, noteID, itemReq)
			if err != nil {
				return err
			}
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert delivery item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, noteID)
}

// Update applies header changes. Delivered notes reject any mutation.
func (s *Service) Update(ctx context.Context, id int64, req UpdateDeliveryNoteRequest, p shared.Principal) (*DeliveryNote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanManage(existing.CreatedBy) {
		return nil, fmt.Errorf("%w: not the delivery note owner", httpx.ErrForbidden)
	}
	if existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: delivery note is %s and can no longer be modified", httpx.ErrConflict, existing.Status)
	}

	if req.ProjectID != nil {
		if err := s.verifyProject(ctx, s.repo, *req.ProjectID); err != nil {
			return nil, err
		}
		existing.ProjectID = req.ProjectID
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
	if req.IssueDate != nil {
		existing.IssueDate = *req.IssueDate
	}
	if req.DeliveryDate != nil {
		existing.DeliveryDate = req.DeliveryDate
	}
	if req.Notes != nil {
		existing.Notes = req.Notes
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		existing.Status = *req.Status
	}

	if err := s.repo.UpdateHeader(ctx, *existing); err != nil {
		return nil, fmt.Errorf("update delivery note: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get fetches a delivery note with its items.
func (s *Service) Get(ctx context.Context, id int64) (*DeliveryNote, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of delivery notes.
func (s *Service) List(ctx context.Context, req ListDeliveryNotesRequest) ([]DeliveryNote, int, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req)
}

// Delete removes a delivery note and its items. Delivered notes are immutable.
func (s *Service) Delete(ctx context.Context, id int64, p shared.Principal) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanManage(existing.CreatedBy) {
		return fmt.Errorf("%w: not the delivery note owner", httpx.ErrForbidden)
	}
	if existing.Status.Terminal() {
		return fmt.Errorf("%w: delivery note is %s and can no longer be modified", httpx.ErrConflict, existing.Status)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) guardMutable(ctx context.Context, id int64) (*DeliveryNote, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Status.Terminal() {
		return nil, fmt.Errorf("%w: delivery note is %s and can no longer be modified", httpx.ErrConflict, note.Status)
	}
	return note, nil
}

// AddItem appends a delivered line.
func (s *Service) AddItem(ctx context.Context, noteID int64, req ItemRequest) (*Item, error) {
	if _, err := s.guardMutable(ctx, noteID); err != nil {
		return nil, err
	}
	item, err := s.buildItem(ctx, s.repo, noteID, req)
	if err != nil {
		return nil, err
	}
	inserted, err := s.repo.InsertItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("insert delivery item: %w", err)
	}
	return inserted, nil
}

// UpdateItem replaces a delivered line.
func (s *Service) UpdateItem(ctx context.Context, noteID, itemID int64, req ItemRequest) (*Item, error) {
	if _, err := s.guardMutable(ctx, noteID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItem(ctx, noteID, itemID); err != nil {
		return nil, err
	}
	item, err := s.buildItem(ctx, s.repo, noteID, req)
	if err != nil {
		return nil, err
	}
	item.ID = itemID
	updated, err := s.repo.UpdateItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("update delivery item: %w", err)
	}
	return updated, nil
}

// DeleteItem removes a delivered line.
func (s *Service) DeleteItem(ctx context.Context, noteID, itemID int64) error {
	if _, err := s.guardMutable(ctx, noteID); err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, noteID, itemID)
}
