package users

import (
	"context"
	"fmt"

	"github.com/backline-erp/backline/internal/auth"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// Service implements admin user management. Password changes stay with the
// auth module.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id int64) (*auth.User, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of accounts.
func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]auth.User, int, error) {
	if req.Role != nil && !req.Role.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, *req.Role)
	}
	return s.repo.List(ctx, req)
}

// Update changes email, role or active flag on an account.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*auth.User, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		existing.Email = *req.Email
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, *req.Role)
		}
		existing.Role = *req.Role
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	return s.repo.Update(ctx, *existing)
}

// Delete removes an account. Admins cannot delete themselves; it is too easy
// to lock the last admin out of the system that way.
func (s *Service) Delete(ctx context.Context, id int64, p shared.Principal) error {
	if id == p.UserID {
		return fmt.Errorf("%w: cannot delete your own account", httpx.ErrConflict)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
