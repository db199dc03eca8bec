package customers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/backline-erp/backline/internal/platform/httpx"
)

type memRepo struct {
	customers map[int64]*Customer
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{customers: make(map[int64]*Customer)}
}

func (m *memRepo) Get(_ context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: customer", httpx.ErrNotFound)
	}
	out := *c
	return &out, nil
}

func (m *memRepo) List(_ context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.customers {
		if req.Search != "" && !strings.Contains(strings.ToLower(c.CompanyName), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, c Customer) (*Customer, error) {
	for _, existing := range m.customers {
		if existing.Email == c.Email {
			return nil, fmt.Errorf("%w: email already in use", httpx.ErrConflict)
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.customers[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memRepo) Update(_ context.Context, c Customer) (*Customer, error) {
	if _, ok := m.customers[c.ID]; !ok {
		return nil, fmt.Errorf("%w: customer", httpx.ErrNotFound)
	}
	m.customers[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return fmt.Errorf("%w: customer", httpx.ErrNotFound)
	}
	delete(m.customers, id)
	return nil
}

func newTestRouter(repo Repository) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := NewHandler(logger, NewService(repo))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env httpx.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func TestCreateAndFetchCustomer(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rec, env := doJSON(t, router, http.MethodPost, "/customers", map[string]any{
		"company_name": "Festival GmbH",
		"contact_name": "Dana Booker",
		"email":        "booking@festival.example",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)

	rec, env = doJSON(t, router, http.MethodGet, "/customers/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Festival GmbH", data["company_name"])
	require.Equal(t, true, data["is_active"])
}

func TestCreateCustomerValidation(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rec, env := doJSON(t, router, http.MethodPost, "/customers", map[string]any{
		"company_name": "No Contact Ltd",
		"email":        "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
	require.NotEmpty(t, env.Error)
}

func TestDuplicateEmailConflict(t *testing.T) {
	router := newTestRouter(newMemRepo())

	payload := map[string]any{
		"company_name": "Festival GmbH",
		"contact_name": "Dana Booker",
		"email":        "booking@festival.example",
	}
	rec, _ := doJSON(t, router, http.MethodPost, "/customers", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	payload["company_name"] = "Other GmbH"
	rec, env := doJSON(t, router, http.MethodPost, "/customers", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
}

func TestListEnvelope(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(repo)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(), Customer{
			CompanyName: fmt.Sprintf("Company %d", i),
			Email:       fmt.Sprintf("c%d@example.com", i),
			IsActive:    true,
		})
		require.NoError(t, err)
	}

	rec, env := doJSON(t, router, http.MethodGet, "/customers?page=1&limit=20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	require.NotNil(t, env.Count)
	require.Equal(t, 3, *env.Count)
	require.NotNil(t, env.TotalCount)
	require.Equal(t, 3, *env.TotalCount)
	require.NotNil(t, env.Pagination)
	require.Equal(t, 1, env.Pagination.Page)
	require.Equal(t, 1, env.Pagination.TotalPages)
}

func TestGetMissingCustomer(t *testing.T) {
	router := newTestRouter(newMemRepo())
	rec, env := doJSON(t, router, http.MethodGet, "/customers/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, env.Success)
}

func TestDeleteCustomer(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(repo)
	_, err := repo.Create(context.Background(), Customer{CompanyName: "Gone Ltd", Email: "gone@example.com"})
	require.NoError(t, err)

	rec, env := doJSON(t, router, http.MethodDelete, "/customers/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	require.NotEmpty(t, env.Message)

	rec, _ = doJSON(t, router, http.MethodGet, "/customers/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
