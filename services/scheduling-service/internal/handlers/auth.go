package handlers

import (
	"net/http"
	"slices"

	"github.com/clinicops/clinic-portal/libs/auth"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// verified claims on the request context.
func RequireAuth(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}
			if _, err := claims.UserID(); err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole allows only callers holding one of roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok || !slices.Contains(roles, model.Role(claims.Role)) {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Reason: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type caller struct {
	ID   int64
	Role model.Role
}

func callerFrom(r *http.Request) (caller, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return caller{}, false
	}
	id, err := claims.UserID()
	if err != nil {
		return caller{}, false
	}
	return caller{ID: id, Role: model.Role(claims.Role)}, true
}
