package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	issuer  *TokenIssuer
	revoker Revoker
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer *TokenIssuer, revoker Revoker) *Service {
	return &Service{repo: repo, issuer: issuer, revoker: revoker}
}

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a user account. The very first account becomes admin so a
// fresh installation can be bootstrapped; everyone after starts as user.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, string, error) {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("count users: %w", err)
	}
	role := shared.RoleUser
	if count == 0 {
		role = shared.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, httpx.ErrConflict) {
			return nil, "", fmt.Errorf("%w: username or email already in use", httpx.ErrConflict)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login validates email/password credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issuer.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Me returns the account behind the principal.
func (s *Service) Me(ctx context.Context, p shared.Principal) (*User, error) {
	return s.repo.GetByID(ctx, p.UserID)
}

// UpdatePassword verifies the current password, stores a new hash and revokes
// every other outstanding token for the account.
func (s *Service) UpdatePassword(ctx context.Context, p shared.Principal, current, next string) error {
	user, err := s.repo.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, user.ID, p.TokenID); err != nil {
			return fmt.Errorf("revoke tokens: %w", err)
		}
	}
	return nil
}
