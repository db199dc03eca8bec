package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/backline-erp/backline/internal/documents"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// Service coordinates invoice business rules: numbering, the paid-state guard
// and total recomputation after every item write.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func validTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return fmt.Errorf("%w: tax_rate must be between 0 and 100", httpx.ErrValidation)
	}
	return nil
}

func (s *Service) buildItem(ctx context.Context, repo Repository, invoiceID int64, req ItemRequest) (Item, error) {
	if req.UnitPrice.IsNegative() {
		return Item{}, fmt.Errorf("%w: unit_price must not be negative", httpx.ErrValidation)
	}
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
		InvoiceID:   invoiceID,
		EquipmentID: req.EquipmentID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalPrice:  documents.LineTotal(req.Quantity, req.UnitPrice),
	}, nil
}

// recompute refreshes the derived totals from the items at the current tax
// rate. It must run inside the same transaction as the triggering write.
func (s *Service) recompute(ctx context.Context, repo Repository, invoiceID int64, taxRate decimal.Decimal) error {
	itemTotals, err := repo.ListItemTotals(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("sum items: %w", err)
	}
	return repo.UpdateTotals(ctx, invoiceID, documents.ComputeTotals(itemTotals, taxRate))
}

// Create numbers and stores a new invoice with its initial items, all in one
// transaction.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest, p shared.Principal) (*Invoice, error) {
	if err := validTaxRate(req.TaxRate); err != nil {
		return nil, err
	}

	issueDate := s.now().UTC()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	var invoiceID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, s.now())
		if err != nil {
			return err
		}
		invoiceID, err = repo.Create(ctx, Invoice{
			DocumentNumber: number,
			ClientName:     req.ClientName,
			ClientEmail:    req.ClientEmail,
			ClientPhone:    req.ClientPhone,
			ClientAddress:  req.ClientAddress,
			IssueDate:      issueDate,
			DueDate:        req.DueDate,
			TaxRate:        req.TaxRate,
			Status:         StatusDraft,
			Notes:          req.Notes,
			CreatedBy:      p.UserID,
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		for _, itemReq := range req.Items {
			item, err := s.buildItem(ctx, repo, invoiceID, itemReq)
			if err != nil {
				return err
			}
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert invoice item: %w", err)
			}
		}
		return s.recompute(ctx, repo, invoiceID, req.TaxRate)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// Update applies header changes. Paid invoices reject any mutation; a tax
// rate change recomputes the derived totals in the same transaction.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest, p shared.Principal) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanManage(existing.CreatedBy) {
		return nil, fmt.Errorf("%w: not the invoice owner", httpx.ErrForbidden)
	}
	if existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: invoice is %s and can no longer be modified", httpx.ErrConflict, existing.Status)
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
	if req.DueDate != nil {
		existing.DueDate = req.DueDate
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
	taxRateChanged := false
	if req.TaxRate != nil && !req.TaxRate.Equal(existing.TaxRate) {
		if err := validTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
		existing.TaxRate = *req.TaxRate
		taxRateChanged = true
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, *existing); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if taxRateChanged {
			return s.recompute(ctx, repo, id, existing.TaxRate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Get fetches an invoice with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of invoices.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req)
}

// Delete removes an invoice and its items. Paid invoices are immutable, which
// includes deletion.
func (s *Service) Delete(ctx context.Context, id int64, p shared.Principal) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanManage(existing.CreatedBy) {
		return fmt.Errorf("%w: not the invoice owner", httpx.ErrForbidden)
	}
	if existing.Status.Terminal() {
		return fmt.Errorf("%w: invoice is %s and can no longer be modified", httpx.ErrConflict, existing.Status)
	}
	return s.repo.Delete(ctx, id)
}

// guardMutable loads the invoice and rejects item writes on terminal status.
func (s *Service) guardMutable(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status.Terminal() {
		return nil, fmt.Errorf("%w: invoice is %s and can no longer be modified", httpx.ErrConflict, inv.Status)
	}
	return inv, nil
}

// AddItem appends a line and recomputes the totals.
func (s *Service) AddItem(ctx context.Context, invoiceID int64, req ItemRequest) (*Item, error) {
	inv, err := s.guardMutable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	var inserted *Item
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		item, err := s.buildItem(ctx, repo, invoiceID, req)
		if err != nil {
			return err
		}
		inserted, err = repo.InsertItem(ctx, item)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
		return s.recompute(ctx, repo, invoiceID, inv.TaxRate)
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// UpdateItem replaces a line and recomputes the totals.
func (s *Service) UpdateItem(ctx context.Context, invoiceID, itemID int64, req ItemRequest) (*Item, error) {
	inv, err := s.guardMutable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItem(ctx, invoiceID, itemID); err != nil {
		return nil, err
	}
	var updated *Item
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		item, err := s.buildItem(ctx, repo, invoiceID, req)
		if err != nil {
			return err
		}
		item.ID = itemID
		updated, err = repo.UpdateItem(ctx, item)
		if err != nil {
			return fmt.Errorf("update invoice item: %w", err)
		}
		return s.recompute(ctx, repo, invoiceID, inv.TaxRate)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes a line and recomputes the totals.
func (s *Service) DeleteItem(ctx context.Context, invoiceID, itemID int64) error {
	inv, err := s.guardMutable(ctx, invoiceID)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetItem(ctx, invoiceID, itemID); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteItem(ctx, invoiceID, itemID); err != nil {
			return err
		}
		return s.recompute(ctx, repo, invoiceID, inv.TaxRate)
	})
}

// MarkOverdue advances sent invoices whose due date has passed. The worker
// calls this once a day.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdue(ctx, s.now().UTC())
}
