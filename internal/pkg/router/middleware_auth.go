package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
)

// middlewareAuthentication accepts a bearer access token or, without one, an
// identity bound to the request's session. Public endpoints pass through.
func middlewareAuthentication(verifier jwt.JWT, sessions *session.Manager, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			if header := r.Header.Get("Authorization"); header != "" {
				p := strings.Fields(header)
				if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
					writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
					return
				}

				claims, err := verifier.Verify(p[1])
				if err != nil {
					writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
					return
				}

				next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
				return
			}

			if sessions != nil {
				ident, err := sessions.Identity(r.Context(), session.IDFromContext(r.Context()))
				if err == nil {
					ctx := jwt.SetAuth(r.Context(), jwt.Claims{
						UserID:    ident.UserID,
						Username:  ident.Username,
						UserEmail: ident.Email,
					})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
		})
	}
}
