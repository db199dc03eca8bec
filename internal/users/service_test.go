package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/backline-erp/backline/internal/auth"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

type memRepo struct {
	users map[int64]*auth.User
}

func newMemRepo(seed ...auth.User) *memRepo {
	m := &memRepo{users: make(map[int64]*auth.User)}
	for i := range seed {
		u := seed[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *memRepo) Get(_ context.Context, id int64) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (m *memRepo) List(_ context.Context, req ListUsersRequest) ([]auth.User, int, error) {
	var out []auth.User
	for _, u := range m.users {
		if req.Role != nil && u.Role != *req.Role {
			continue
		}
		if req.Search != "" && !strings.Contains(u.Username, req.Search) && !strings.Contains(u.Email, req.Search) {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *memRepo) Update(_ context.Context, u auth.User) (*auth.User, error) {
	if _, ok := m.users[u.ID]; !ok {
		return nil, fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	for _, other := range m.users {
		if other.ID != u.ID && other.Email == u.Email {
			return nil, fmt.Errorf("%w: email already in use", httpx.ErrConflict)
		}
	}
	m.users[u.ID] = &u
	out := u
	return &out, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func seedUsers() []auth.User {
	return []auth.User{
		{ID: 1, Username: "admin", Email: "admin@example.com", Role: shared.RoleAdmin, IsActive: true},
		{ID: 2, Username: "tech", Email: "tech@example.com", Role: shared.RoleUser, IsActive: true},
	}
}

func TestUpdateChangesRole(t *testing.T) {
	svc := NewService(newMemRepo(seedUsers()...))

	role := shared.RoleManager
	updated, err := svc.Update(context.Background(), 2, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, shared.RoleManager, updated.Role)
	require.Equal(t, "tech@example.com", updated.Email)
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemRepo(seedUsers()...))

	role := shared.Role("superuser")
	_, err := svc.Update(context.Background(), 2, UpdateUserRequest{Role: &role})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateDuplicateEmailConflicts(t *testing.T) {
	svc := NewService(newMemRepo(seedUsers()...))

	email := "admin@example.com"
	_, err := svc.Update(context.Background(), 2, UpdateUserRequest{Email: &email})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestDeleteGuardsOwnAccount(t *testing.T) {
	repo := newMemRepo(seedUsers()...)
	svc := NewService(repo)
	self := shared.Principal{UserID: 1, Username: "admin", Role: shared.RoleAdmin}

	err := svc.Delete(context.Background(), 1, self)
	require.ErrorIs(t, err, httpx.ErrConflict)

	require.NoError(t, svc.Delete(context.Background(), 2, self))
	_, err = repo.Get(context.Background(), 2)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListFiltersByRole(t *testing.T) {
	svc := NewService(newMemRepo(seedUsers()...))

	role := shared.RoleAdmin
	found, total, err := svc.List(context.Background(), ListUsersRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "admin", found[0].Username)

	bogus := shared.Role("root")
	_, _, err = svc.List(context.Background(), ListUsersRequest{Role: &bogus})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
