package invoices

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

type fakeEnqueuer struct {
	calls int
	err   error
}

func (f *fakeEnqueuer) EnqueueMarkOverdue(context.Context, time.Time) error {
	f.calls++
	return f.err
}

func newHandlerRouter(enqueuer OverdueEnqueuer) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := NewHandler(logger, newTestService(newMemRepo()), enqueuer)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func postSweep(t *testing.T, router http.Handler, p *shared.Principal) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invoices/mark-overdue", nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env httpx.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func TestMarkOverdueEndpointQueuesSweep(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := newHandlerRouter(enqueuer)

	staff := shared.Principal{UserID: 1, Username: "ops", Role: shared.RoleManager}
	rec, env := postSweep(t, router, &staff)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	require.Equal(t, 1, enqueuer.calls)
}

func TestMarkOverdueEndpointRequiresStaff(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := newHandlerRouter(enqueuer)

	rec, _ := postSweep(t, router, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	plain := shared.Principal{UserID: 2, Username: "tech", Role: shared.RoleUser}
	rec, env := postSweep(t, router, &plain)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, env.Success)
	require.Zero(t, enqueuer.calls)
}

func TestMarkOverdueEndpointSurfacesQueueFailure(t *testing.T) {
	enqueuer := &fakeEnqueuer{err: errors.New("redis down")}
	router := newHandlerRouter(enqueuer)

	staff := shared.Principal{UserID: 1, Username: "ops", Role: shared.RoleAdmin}
	rec, env := postSweep(t, router, &staff)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.False(t, env.Success)
}

func TestMarkOverdueRouteAbsentWithoutQueue(t *testing.T) {
	router := newHandlerRouter(nil)

	staff := shared.Principal{UserID: 1, Username: "ops", Role: shared.RoleAdmin}
	req := httptest.NewRequest(http.MethodPost, "/invoices/mark-overdue", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), staff))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
