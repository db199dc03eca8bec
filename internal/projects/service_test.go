package projects

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/backline-erp/backline/internal/customers"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// memRepo serializes WithTx with a mutex the way the database serializes
// transactions on the locked equipment row, so concurrent allocation calls
// exercise the same exactly-one-wins behavior.
type memRepo struct {
	mu          sync.Mutex
	projects    map[int64]*Project
	allocations map[int64]*Allocation
	available   map[int64]bool
	nextID      int64

	openAllocErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		projects:    make(map[int64]*Project),
		allocations: make(map[int64]*Allocation),
		available:   make(map[int64]bool),
	}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, lockedRepo{m})
}

// lockedRepo runs inside WithTx where the mutex is already held.
type lockedRepo struct{ m *memRepo }

func (r lockedRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r lockedRepo) Get(_ context.Context, id int64) (*Project, error) {
	p, ok := r.m.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project", httpx.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (r lockedRepo) List(_ context.Context, _ ListProjectsRequest) ([]Project, int, error) {
	var out []Project
	for _, p := range r.m.projects {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r lockedRepo) Create(_ context.Context, p Project) (*Project, error) {
	r.m.nextID++
	p.ID = r.m.nextID
	r.m.projects[p.ID] = &p
	out := p
	return &out, nil
}

func (r lockedRepo) Update(_ context.Context, p Project) (*Project, error) {
	if _, ok := r.m.projects[p.ID]; !ok {
		return nil, fmt.Errorf("%w: project", httpx.ErrNotFound)
	}
	r.m.projects[p.ID] = &p
	out := p
	return &out, nil
}

func (r lockedRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.m.projects[id]; !ok {
		return fmt.Errorf("%w: project", httpx.ErrNotFound)
	}
	delete(r.m.projects, id)
	return nil
}

func (r lockedRepo) ListAllocations(_ context.Context, projectID int64) ([]Allocation, error) {
	var out []Allocation
	for _, a := range r.m.allocations {
		if a.ProjectID == projectID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r lockedRepo) GetOpenAllocation(_ context.Context, projectID, equipmentID int64) (*Allocation, error) {
	if r.m.openAllocErr != nil {
		return nil, r.m.openAllocErr
	}
	for _, a := range r.m.allocations {
		if a.ProjectID == projectID && a.EquipmentID == equipmentID && a.Open() {
			out := *a
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: allocation", httpx.ErrNotFound)
}

func (r lockedRepo) HasOpenAllocations(_ context.Context, projectID int64) (bool, error) {
	for _, a := range r.m.allocations {
		if a.ProjectID == projectID && a.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (r lockedRepo) InsertAllocation(_ context.Context, a Allocation) (*Allocation, error) {
	r.m.nextID++
	a.ID = r.m.nextID
	r.m.allocations[a.ID] = &a
	out := a
	return &out, nil
}

func (r lockedRepo) CloseAllocation(_ context.Context, id int64, returnedDate time.Time) error {
	a, ok := r.m.allocations[id]
	if !ok || !a.Open() {
		return fmt.Errorf("%w: allocation", httpx.ErrNotFound)
	}
	a.ReturnedDate = &returnedDate
	return nil
}

func (r lockedRepo) LockEquipment(_ context.Context, equipmentID int64) (bool, error) {
	available, ok := r.m.available[equipmentID]
	if !ok {
		return false, fmt.Errorf("%w: equipment", httpx.ErrNotFound)
	}
	return available, nil
}

func (r lockedRepo) SetEquipmentAvailability(_ context.Context, equipmentID int64, available bool) error {
	r.m.available[equipmentID] = available
	return nil
}

// Pass-through methods for calls outside WithTx.

func (m *memRepo) Get(ctx context.Context, id int64) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.Get(ctx, id)
}

func (m *memRepo) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.List(ctx, req)
}

func (m *memRepo) Create(ctx context.Context, p Project) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.Create(ctx, p)
}

func (m *memRepo) Update(ctx context.Context, p Project) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.Update(ctx, p)
}

func (m *memRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.Delete(ctx, id)
}

func (m *memRepo) ListAllocations(ctx context.Context, projectID int64) ([]Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.ListAllocations(ctx, projectID)
}

func (m *memRepo) GetOpenAllocation(ctx context.Context, projectID, equipmentID int64) (*Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.GetOpenAllocation(ctx, projectID, equipmentID)
}

func (m *memRepo) HasOpenAllocations(ctx context.Context, projectID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.HasOpenAllocations(ctx, projectID)
}

func (m *memRepo) InsertAllocation(ctx context.Context, a Allocation) (*Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.InsertAllocation(ctx, a)
}

func (m *memRepo) CloseAllocation(ctx context.Context, id int64, returnedDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.CloseAllocation(ctx, id, returnedDate)
}

func (m *memRepo) LockEquipment(ctx context.Context, equipmentID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.LockEquipment(ctx, equipmentID)
}

func (m *memRepo) SetEquipmentAvailability(ctx context.Context, equipmentID int64, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lockedRepo{m}.SetEquipmentAvailability(ctx, equipmentID, available)
}

type memCustomerRepo struct {
	customers map[int64]*customers.Customer
}

func (m *memCustomerRepo) Get(_ context.Context, id int64) (*customers.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: customer", httpx.ErrNotFound)
	}
	out := *c
	return &out, nil
}

func (m *memCustomerRepo) List(_ context.Context, _ customers.ListCustomersRequest) ([]customers.Customer, int, error) {
	return nil, 0, nil
}

func (m *memCustomerRepo) Create(_ context.Context, c customers.Customer) (*customers.Customer, error) {
	return &c, nil
}

func (m *memCustomerRepo) Update(_ context.Context, c customers.Customer) (*customers.Customer, error) {
	return &c, nil
}

func (m *memCustomerRepo) Delete(_ context.Context, _ int64) error {
	return nil
}

func newTestService(repo Repository, customerRepo customers.Repository) *Service {
	if customerRepo == nil {
		customerRepo = &memCustomerRepo{customers: map[int64]*customers.Customer{}}
	}
	svc := NewService(repo, customerRepo)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func staffPrincipal() shared.Principal {
	return shared.Principal{UserID: 1, Username: "amp", Role: shared.RoleManager}
}

func createProject(t *testing.T, svc *Service) *Project {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateProjectRequest{
		Name:       "Summer Festival",
		ClientName: ptr("Festival GmbH"),
		StartDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
	}, staffPrincipal())
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	_, err := svc.Create(context.Background(), CreateProjectRequest{
		Name:       "Backwards",
		ClientName: ptr("X"),
		StartDate:  time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}, staffPrincipal())
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateSnapshotsCustomer(t *testing.T) {
	repo := newMemRepo()
	custRepo := &memCustomerRepo{customers: map[int64]*customers.Customer{
		7: {ID: 7, CompanyName: "Festival GmbH", Email: "booking@festival.example", Phone: ptr("+49 30 1234")},
	}}
	svc := newTestService(repo, custRepo)

	p, err := svc.Create(context.Background(), CreateProjectRequest{
		Name:       "Summer Festival",
		CustomerID: ptr(int64(7)),
		StartDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
	}, staffPrincipal())
	require.NoError(t, err)
	require.Equal(t, "Festival GmbH", p.ClientName)
	require.NotNil(t, p.ClientEmail)
	require.Equal(t, "booking@festival.example", *p.ClientEmail)

	// The snapshot survives customer deletion.
	delete(custRepo.customers, 7)
	reloaded, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "Festival GmbH", reloaded.ClientName)
}

func TestAllocateAndReturn(t *testing.T) {
	repo := newMemRepo()
	repo.available[10] = true
	svc := newTestService(repo, nil)
	p := createProject(t, svc)

	alloc, err := svc.Allocate(context.Background(), p.ID, AllocateRequest{EquipmentID: 10})
	require.NoError(t, err)
	require.True(t, alloc.Open())
	require.Equal(t, 1, alloc.Quantity)
	require.False(t, repo.available[10])

	// Second allocation of the same unit fails while it is out.
	_, err = svc.Allocate(context.Background(), p.ID, AllocateRequest{EquipmentID: 10})
	require.ErrorIs(t, err, httpx.ErrConflict)

	returned, err := svc.Return(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.False(t, returned.Open())
	require.True(t, repo.available[10])

	// Once returned the unit can go out again.
	again, err := svc.Allocate(context.Background(), p.ID, AllocateRequest{EquipmentID: 10})
	require.NoError(t, err)
	require.True(t, again.Open())
	require.NotEqual(t, alloc.ID, again.ID)
}

func TestAllocateSurfacesLookupFailure(t *testing.T) {
	repo := newMemRepo()
	repo.available[10] = true
	svc := newTestService(repo, nil)
	p := createProject(t, svc)

	boom := errors.New("connection reset")
	repo.openAllocErr = boom
	_, err := svc.Allocate(context.Background(), p.ID, AllocateRequest{EquipmentID: 10})
	require.ErrorIs(t, err, boom)
	require.Empty(t, repo.allocations)
}

func TestReturnWithoutOpenAllocation(t *testing.T) {
	repo := newMemRepo()
	repo.available[10] = true
	svc := newTestService(repo, nil)
	p := createProject(t, svc)

	_, err := svc.Return(context.Background(), p.ID, 10)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestAllocateToTerminalProject(t *testing.T) {
	repo := newMemRepo()
	repo.available[10] = true
	svc := newTestService(repo, nil)
	p := createProject(t, svc)

	completed := StatusCompleted
	_, err := svc.Update(context.Background(), p.ID, UpdateProjectRequest{Status: &completed}, staffPrincipal())
	require.NoError(t, err)

	_, err = svc.Allocate(context.Background(), p.ID, AllocateRequest{EquipmentID: 10})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestDeleteBlockedByOpenAllocation(t *testing.T) {
	repo := newMemRepo()
	repo.available[10] = true
	svc := newTestService(repo, nil)
	p := createProject(t, svc)

	_, err := svc.Allocate(context.Background(), p.ID, AllocateRequest{EquipmentID: 10})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), p.ID, staffPrincipal())
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.Return(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), p.ID, staffPrincipal()))
}

func TestConcurrentAllocationExactlyOneWins(t *testing.T) {
	repo := newMemRepo()
	repo.available[10] = true
	svc := newTestService(repo, nil)
	first := createProject(t, svc)
	second := createProject(t, svc)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, projectID := range []int64{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, projectID int64) {
			defer wg.Done()
			_, errs[i] = svc.Allocate(context.Background(), projectID, AllocateRequest{EquipmentID: 10})
		}(i, projectID)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, httpx.ErrConflict)
			lost++
		}
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)
	require.False(t, repo.available[10])
}
