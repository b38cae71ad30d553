package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestParseKeyring(t *testing.T) {
	k := ParseKeyring("alpha:staff, beta:admin, :staff, gamma, delta:bogus")
	require.False(t, k.Empty())

	role, ok := k.lookup("alpha")
	require.True(t, ok)
	require.Equal(t, RoleStaff, role)

	role, ok = k.lookup("beta")
	require.True(t, ok)
	require.Equal(t, RoleAdmin, role)

	_, ok = k.lookup("gamma")
	require.False(t, ok)
	_, ok = k.lookup("delta")
	require.False(t, ok)
}

func TestMiddlewareRejectsMissingAndUnknownKeys(t *testing.T) {
	k := ParseKeyring("alpha:staff")
	handler := k.Middleware(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer alpha")
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRoleAdminOverridesStaff(t *testing.T) {
	k := ParseKeyring("staffkey:staff,adminkey:admin")
	adminOnly := k.Middleware(RequireRole(RoleAdmin)(okHandler()))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer staffkey")
	adminOnly.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer adminkey")
	adminOnly.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	staffGate := k.Middleware(RequireRole(RoleStaff)(okHandler()))
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer adminkey")
	staffGate.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
