package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	require.Equal(t, 2, p.Page)
	require.Equal(t, 20, p.Limit)
	require.Equal(t, 45, p.Total)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 20, p.Offset())

	p = NewPagination(0, 0, 0)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.Limit)
	require.Equal(t, 0, p.TotalPages)
	require.Equal(t, 0, p.Offset())

	p = NewPagination(1, 500, 10)
	require.Equal(t, 100, p.Limit)
}

func TestPageFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3&limit=50", nil)
	page, limit := PageFromRequest(r)
	require.Equal(t, 3, page)
	require.Equal(t, 50, limit)

	r = httptest.NewRequest("GET", "/?page=-1&limit=9999", nil)
	page, limit = PageFromRequest(r)
	require.Equal(t, 1, page)
	require.Equal(t, 100, limit)

	r = httptest.NewRequest("GET", "/", nil)
	page, limit = PageFromRequest(r)
	require.Equal(t, 1, page)
	require.Equal(t, 20, limit)
}

func TestCanManage(t *testing.T) {
	owner := Principal{UserID: 7, Role: RoleUser}
	require.True(t, owner.CanManage(7))
	require.False(t, owner.CanManage(8))

	manager := Principal{UserID: 1, Role: RoleManager}
	require.True(t, manager.CanManage(8))

	admin := Principal{UserID: 2, Role: RoleAdmin}
	require.True(t, admin.CanManage(8))
}
