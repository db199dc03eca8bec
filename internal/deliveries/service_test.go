package deliveries

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/backline-erp/backline/internal/documents"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

type memRepo struct {
	mu       sync.Mutex
	notes    map[int64]*DeliveryNote
	items    map[int64]*Item
	seqs     map[string]int64
	projects map[int64]bool
	gear     map[int64]bool
	nextID   int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		notes:    make(map[int64]*DeliveryNote),
		items:    make(map[int64]*Item),
		seqs:     make(map[string]int64),
		projects: map[int64]bool{1: true},
		gear:     map[int64]bool{10: true},
	}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) NextNumber(_ context.Context, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("DN-%d", now.Year())
	m.seqs[key]++
	return documents.FormatNumber(documents.TypeDeliveryNote, now.Year(), m.seqs[key]), nil
}

func (m *memRepo) Get(_ context.Context, id int64) (*DeliveryNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok {
		return nil, fmt.Errorf("%w: delivery note", httpx.ErrNotFound)
	}
	out := *note
	out.Items = nil
	for _, item := range m.items {
		if item.DeliveryNoteID == id {
			out.Items = append(out.Items, *item)
		}
	}
	return &out, nil
}

func (m *memRepo) List(_ context.Context, req ListDeliveryNotesRequest) ([]DeliveryNote, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DeliveryNote
	for _, note := range m.notes {
		if req.ProjectID != nil && (note.ProjectID == nil || *note.ProjectID != *req.ProjectID) {
			continue
		}
		if req.Status != nil && note.Status != *req.Status {
			continue
		}
		out = append(out, *note)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, note DeliveryNote) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	note.ID = m.nextID
	m.notes[note.ID] = &note
	return note.ID, nil
}

func (m *memRepo) UpdateHeader(_ context.Context, note DeliveryNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.notes[note.ID]
	if !ok {
		return fmt.Errorf("%w: delivery note", httpx.ErrNotFound)
	}
	note.Items = nil
	note.CreatedBy = existing.CreatedBy
	m.notes[note.ID] = &note
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return fmt.Errorf("%w: delivery note", httpx.ErrNotFound)
	}
	delete(m.notes, id)
	for itemID, item := range m.items {
		if item.DeliveryNoteID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}

func (m *memRepo) GetItem(_ context.Context, noteID, itemID int64) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.DeliveryNoteID != noteID {
		return nil, fmt.Errorf("%w: delivery item", httpx.ErrNotFound)
	}
	out := *item
	return &out, nil
}

func (m *memRepo) InsertItem(_ context.Context, item Item) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	item.ID = m.nextID
	m.items[item.ID] = &item
	out := item
	return &out, nil
}

func (m *memRepo) UpdateItem(_ context.Context, item Item) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return nil, fmt.Errorf("%w: delivery item", httpx.ErrNotFound)
	}
	m.items[item.ID] = &item
	out := item
	return &out, nil
}

func (m *memRepo) DeleteItem(_ context.Context, noteID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.DeliveryNoteID != noteID {
		return fmt.Errorf("%w: delivery item", httpx.ErrNotFound)
	}
	delete(m.items, itemID)
	return nil
}

func (m *memRepo) ProjectExists(_ context.Context, projectID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[projectID], nil
}

func (m *memRepo) EquipmentExists(_ context.Context, equipmentID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gear[equipmentID], nil
}

func newTestService(repo *memRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func ptr[T any](v T) *T { return &v }

var staff = shared.Principal{UserID: 1, Username: "ops", Role: shared.RoleManager}

func TestCreateNumbersNote(t *testing.T) {
	svc := newTestService(newMemRepo())

	note, err := svc.Create(context.Background(), CreateDeliveryNoteRequest{
		ClientName: "Festival GmbH",
		Items: []ItemRequest{
			{EquipmentID: ptr(int64(10)), Description: "QSC K12.2", Quantity: 4},
		},
	}, staff)
	require.NoError(t, err)
	require.Equal(t, "DN2025-0001", note.DocumentNumber)
	require.Equal(t, StatusDraft, note.Status)
	require.Len(t, note.Items, 1)
	require.Equal(t, 4, note.Items[0].Quantity)
}

func TestCreateRejectsUnknownProject(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, err := svc.Create(context.Background(), CreateDeliveryNoteRequest{
		ProjectID:  ptr(int64(404)),
		ClientName: "Festival GmbH",
	}, staff)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestItemRejectsUnknownEquipment(t *testing.T) {
	svc := newTestService(newMemRepo())

	note, err := svc.Create(context.Background(), CreateDeliveryNoteRequest{ClientName: "Festival GmbH"}, staff)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), note.ID, ItemRequest{
		EquipmentID: ptr(int64(404)),
		Description: "missing",
		Quantity:    1,
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeliveredNoteIsFrozen(t *testing.T) {
	svc := newTestService(newMemRepo())

	note, err := svc.Create(context.Background(), CreateDeliveryNoteRequest{ClientName: "Festival GmbH"}, staff)
	require.NoError(t, err)

	delivered := StatusDelivered
	note, err = svc.Update(context.Background(), note.ID, UpdateDeliveryNoteRequest{
		Status:       &delivered,
		DeliveryDate: ptr(time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)),
	}, staff)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, note.Status)

	_, err = svc.Update(context.Background(), note.ID, UpdateDeliveryNoteRequest{
		ClientName: ptr("Renamed"),
	}, staff)
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.AddItem(context.Background(), note.ID, ItemRequest{Description: "late add", Quantity: 1})
	require.ErrorIs(t, err, httpx.ErrConflict)

	err = svc.Delete(context.Background(), note.ID, staff)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestOwnershipGuard(t *testing.T) {
	svc := newTestService(newMemRepo())

	note, err := svc.Create(context.Background(), CreateDeliveryNoteRequest{ClientName: "Festival GmbH"}, staff)
	require.NoError(t, err)

	other := shared.Principal{UserID: 99, Username: "viewer", Role: shared.RoleUser}
	_, err = svc.Update(context.Background(), note.ID, UpdateDeliveryNoteRequest{
		ClientName: ptr("Hijacked"),
	}, other)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.True(t, errors.Is(svc.Delete(context.Background(), note.ID, other), httpx.ErrForbidden))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newMemRepo())

	bogus := Status("shipped")
	_, _, err := svc.List(context.Background(), ListDeliveryNotesRequest{Status: &bogus})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
