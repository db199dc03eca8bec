package quotes

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

// Service coordinates quote business rules: numbering, the terminal-state
// guard and total recomputation after every item write.
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

func (s *Service) buildItem(ctx context.Context, repo Repository, quoteID int64, req ItemRequest) (Item, error) {
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
		QuoteID:     quoteID,
		EquipmentID: req.EquipmentID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalPrice:  documents.LineTotal(req.Quantity, req.UnitPrice),
	}, nil
}

// recompute refreshes the derived totals from the items at the current tax
// rate. It must run inside the same transaction as the triggering write.
func (s *Service) recompute(ctx context.Context, repo Repository, quoteID int64, taxRate decimal.Decimal) error {
	itemTotals, err := repo.ListItemTotals(ctx, quoteID)
	if err != nil {
		return fmt.Errorf("sum items: %w", err)
	}
	return repo.UpdateTotals(ctx, quoteID, documents.ComputeTotals(itemTotals, taxRate))
}

// Create numbers and stores a new quote with its initial items, all in one
// transaction.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest, p shared.Principal) (*Quote, error) {
	if err := validTaxRate(req.TaxRate); err != nil {
		return nil, err
	}

	issueDate := s.now().UTC()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	var quoteID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, s.now())
		if err != nil {
			return err
		}
		quoteID, err = repo.Create(ctx, Quote{
			DocumentNumber: number,
			ClientName:     req.ClientName,
			ClientEmail:    req.ClientEmail,
			ClientPhone:    req.ClientPhone,
			ClientAddress:  req.ClientAddress,
			IssueDate:      issueDate,
			ValidUntil:     req.ValidUntil,
			TaxRate:        req.TaxRate,
			Status:         StatusDraft,
			Notes:          req.Notes,
			CreatedBy:      p.UserID,
		})
		if err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		for _, itemReq := range req.Items {
			item, err := s.buildItem(ctx, repo, quoteID, itemReq)
			if err != nil {
				return err
			}
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert quote item: %w", err)
			}
		}
		return s.recompute(ctx, repo, quoteID, req.TaxRate)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quoteID)
}

// Update applies header changes. Terminal quotes reject any mutation; a tax
// rate change recomputes the derived totals in the same transaction.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuoteRequest, p shared.Principal) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanManage(existing.CreatedBy) {
		return nil, fmt.Errorf("%w: not the quote owner", httpx.ErrForbidden)
	}
	if existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: quote is %s and can no longer be modified", httpx.ErrConflict, existing.Status)
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
	if req.ValidUntil != nil {
		existing.ValidUntil = req.ValidUntil
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
			return fmt.Errorf("update quote: %w", err)
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

// Get fetches a quote with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of quotes.
func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req)
}

// Delete removes a quote and its items. Accepted quotes are immutable, which
// includes deletion.
func (s *Service) Delete(ctx context.Context, id int64, p shared.Principal) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanManage(existing.CreatedBy) {
		return fmt.Errorf("%w: not the quote owner", httpx.ErrForbidden)
	}
	if existing.Status.Terminal() {
		return fmt.Errorf("%w: quote is %s and can no longer be modified", httpx.ErrConflict, existing.Status)
	}
	return s.repo.Delete(ctx, id)
}

// guardMutable loads the quote and rejects item writes on terminal status.
func (s *Service) guardMutable(ctx context.Context, id int64) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status.Terminal() {
		return nil, fmt.Errorf("%w: quote is %s and can no longer be modified", httpx.ErrConflict, quote.Status)
	}
	return quote, nil
}

// AddItem appends a line and recomputes the totals.
func (s *Service) AddItem(ctx context.Context, quoteID int64, req ItemRequest) (*Item, error) {
	quote, err := s.guardMutable(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	var inserted *Item
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		item, err := s.buildItem(ctx, repo, quoteID, req)
		if err != nil {
			return err
		}
		inserted, err = repo.InsertItem(ctx, item)
		if err != nil {
			return fmt.Errorf("insert quote item: %w", err)
		}
		return s.recompute(ctx, repo, quoteID, quote.TaxRate)
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// UpdateItem replaces a line and recomputes the totals.
func (s *Service) UpdateItem(ctx context.Context, quoteID, itemID int64, req ItemRequest) (*Item, error) {
	quote, err := s.guardMutable(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItem(ctx, quoteID, itemID); err != nil {
		return nil, err
	}
	var updated *Item
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		item, err := s.buildItem(ctx, repo, quoteID, req)
		if err != nil {
			return err
		}
		item.ID = itemID
		updated, err = repo.UpdateItem(ctx, item)
		if err != nil {
			return fmt.Errorf("update quote item: %w", err)
		}
		return s.recompute(ctx, repo, quoteID, quote.TaxRate)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes a line and recomputes the totals.
func (s *Service) DeleteItem(ctx context.Context, quoteID, itemID int64) error {
	quote, err := s.guardMutable(ctx, quoteID)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetItem(ctx, quoteID, itemID); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteItem(ctx, quoteID, itemID); err != nil {
			return err
		}
		return s.recompute(ctx, repo, quoteID, quote.TaxRate)
	})
}
