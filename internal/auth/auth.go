// Package auth gates the staff API behind bearer keys. Each key carries a
// role; the public portal and dashboard routes mount outside the gate.
package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// Role is the access level attached to an API key.
type Role string

const (
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// allows reports whether a holder of this role may act as required.
func (r Role) allows(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

type contextKey struct{}

// RoleFromContext returns the authenticated role of the request.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(contextKey{}).(Role)
	return role, ok
}

// Keyring maps API keys to roles.
type Keyring struct {
	keys map[string]Role
}

// ParseKeyring builds a Keyring from a comma-separated "key:role" list, the
// shape the environment variable uses.
func ParseKeyring(spec string) *Keyring {
	keys := make(map[string]Role)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, role, found := strings.Cut(pair, ":")
		if !found || key == "" {
			continue
		}
		switch Role(role) {
		case RoleStaff, RoleAdmin:
			keys[key] = Role(role)
		}
	}
	return &Keyring{keys: keys}
}

// Empty reports whether no keys are configured.
func (k *Keyring) Empty() bool {
	return len(k.keys) == 0
}

func (k *Keyring) lookup(key string) (Role, bool) {
	for stored, role := range k.keys {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(key)) == 1 {
			return role, true
		}
	}
	return "", false
}

// Middleware authenticates the bearer key and stores its role on the
// context. An empty keyring rejects everything; the server refuses to start
// that way, so this is a backstop.
func (k *Keyring) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		role, ok := k.lookup(token)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid API key")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, role)))
	})
}

// RequireRole rejects requests whose key does not carry the required role.
// Admin keys pass every check.
func RequireRole(required Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
				return
			}
			if !role.allows(required) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
