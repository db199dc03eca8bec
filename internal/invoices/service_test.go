package invoices

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/backline-erp/backline/internal/documents"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

type memRepo struct {
	mu       sync.Mutex
	invoices map[int64]*Invoice
	items    map[int64]*Item
	seq      int64
	nextID   int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		invoices: make(map[int64]*Invoice),
		items:    make(map[int64]*Item),
	}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) NextNumber(_ context.Context, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return documents.FormatNumber(documents.TypeInvoice, now.Year(), m.seq), nil
}

func (m *memRepo) Get(_ context.Context, id int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	out := *inv
	out.Items = nil
	for _, item := range m.items {
		if item.InvoiceID == id {
			out.Items = append(out.Items, *item)
		}
	}
	return &out, nil
}

func (m *memRepo) List(_ context.Context, _ ListInvoicesRequest) ([]Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, inv Invoice) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	inv.ID = m.nextID
	m.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (m *memRepo) UpdateHeader(_ context.Context, inv Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.invoices[inv.ID]
	if !ok {
		return fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	inv.Subtotal = existing.Subtotal
	inv.TaxAmount = existing.TaxAmount
	inv.TotalAmount = existing.TotalAmount
	m.invoices[inv.ID] = &inv
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	delete(m.invoices, id)
	return nil
}

func (m *memRepo) GetItem(_ context.Context, invoiceID, itemID int64) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.InvoiceID != invoiceID {
		return nil, fmt.Errorf("%w: invoice item", httpx.ErrNotFound)
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
	existing, ok := m.items[item.ID]
	if !ok || existing.InvoiceID != item.InvoiceID {
		return nil, fmt.Errorf("%w: invoice item", httpx.ErrNotFound)
	}
	m.items[item.ID] = &item
	out := item
	return &out, nil
}

func (m *memRepo) DeleteItem(_ context.Context, invoiceID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.InvoiceID != invoiceID {
		return fmt.Errorf("%w: invoice item", httpx.ErrNotFound)
	}
	delete(m.items, itemID)
	return nil
}

func (m *memRepo) ListItemTotals(_ context.Context, invoiceID int64) ([]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var totals []decimal.Decimal
	for _, item := range m.items {
		if item.InvoiceID == invoiceID {
			totals = append(totals, item.TotalPrice)
		}
	}
	return totals, nil
}

func (m *memRepo) UpdateTotals(_ context.Context, id int64, totals documents.Totals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.TotalAmount = totals.Total
	return nil
}

func (m *memRepo) EquipmentExists(_ context.Context, equipmentID int64) (bool, error) {
	return true, nil
}

func (m *memRepo) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, inv := range m.invoices {
		if inv.Status == StatusSent && inv.DueDate != nil && inv.DueDate.Before(asOf) {
			inv.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func staffPrincipal() shared.Principal {
	return shared.Principal{UserID: 1, Username: "amp", Role: shared.RoleManager}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateNumbersAndTotals(t *testing.T) {
	svc := newTestService(newMemRepo())

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientName: "Loud & Clear GmbH",
		TaxRate:    dec("8.5"),
		Items: []ItemRequest{
			{Description: "Line array rental", Quantity: 3, UnitPrice: dec("9.99")},
		},
	}, staffPrincipal())
	require.NoError(t, err)

	require.Equal(t, "INV2025-0001", inv.DocumentNumber)
	require.True(t, inv.Subtotal.Equal(dec("29.97")), "subtotal %s", inv.Subtotal)
	require.True(t, inv.TaxAmount.Equal(dec("2.55")), "tax %s", inv.TaxAmount)
	require.True(t, inv.TotalAmount.Equal(dec("32.52")), "total %s", inv.TotalAmount)
}

func TestPaidInvoiceIsFrozen(t *testing.T) {
	svc := newTestService(newMemRepo())
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientName: "Venue",
		TaxRate:    dec("10"),
		Items: []ItemRequest{
			{Description: "Backline package", Quantity: 1, UnitPrice: dec("200.00")},
		},
	}, staffPrincipal())
	require.NoError(t, err)

	paid := StatusPaid
	_, err = svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Status: &paid}, staffPrincipal())
	require.NoError(t, err)

	name := "Rewrite"
	_, err = svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{ClientName: &name}, staffPrincipal())
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.AddItem(context.Background(), inv.ID, ItemRequest{
		Description: "Late addition", Quantity: 1, UnitPrice: dec("1.00"),
	})
	require.ErrorIs(t, err, httpx.ErrConflict)

	err = svc.Delete(context.Background(), inv.ID, staffPrincipal())
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestMarkOverdueSweep(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	due := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientName: "Slow Payer",
		DueDate:    &due,
	}, staffPrincipal())
	require.NoError(t, err)

	futureDue := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	current, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientName: "On Time",
		DueDate:    &futureDue,
	}, staffPrincipal())
	require.NoError(t, err)

	sent := StatusSent
	_, err = svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Status: &sent}, staffPrincipal())
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), current.ID, UpdateInvoiceRequest{Status: &sent}, staffPrincipal())
	require.NoError(t, err)

	n, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	reloaded, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, reloaded.Status)

	untouched, err := svc.Get(context.Background(), current.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, untouched.Status)
}

func TestDraftStaysDraftOnSweep(t *testing.T) {
	svc := newTestService(newMemRepo())
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientName: "Never Sent",
		DueDate:    &due,
	}, staffPrincipal())
	require.NoError(t, err)

	n, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	reloaded, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, reloaded.Status)
}
