package middleware

import (
	"net/http"
	"strings"

	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/auth"
	"github.com/lopataa/schoolshop/pkg/response"
)

// AdminAuth protects admin-only routes.
//
// Three credentials are accepted:
//   - Authorization: Bearer <jwt> issued by the admin login endpoint
//   - ?token=<jwt> (WebSocket clients cannot set request headers)
//   - X-Admin-Token: <shared token> (legacy admin UI support)
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "); token != r.Header.Get("Authorization") && token != "" {
			if _, err := auth.ValidateToken(token); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		if token := r.URL.Query().Get("token"); token != "" {
			if _, err := auth.ValidateToken(token); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		if legacy := r.Header.Get("X-Admin-Token"); legacy != "" &&
			auth.ConstantTimeEquals(legacy, config.AdminToken()) {
			next.ServeHTTP(w, r)
			return
		}

		response.Unauthorized(w)
	})
}
