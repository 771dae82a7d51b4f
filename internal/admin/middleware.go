package admin

import (
	"context"
	"net/http"

	"casestatus/internal/admin/models"
	"casestatus/pkg/platform/httputil"
	"casestatus/pkg/requestcontext"
)

type adminKey struct{}

// AccessChecker is satisfied by *Gate.
type AccessChecker interface {
	CheckAccess(ctx context.Context) models.Decision
}

// WithAdmin stores the granted administrator in the context.
func WithAdmin(ctx context.Context, admin *models.AdminRecord) context.Context {
	return context.WithValue(ctx, adminKey{}, admin)
}

// AdminFromContext returns the administrator granted by RequireAdmin.
func AdminFromContext(ctx context.Context) (*models.AdminRecord, bool) {
	admin, ok := ctx.Value(adminKey{}).(*models.AdminRecord)
	return admin, ok && admin != nil
}

// RequireAdmin runs the gate for every request. Denied requests are
// redirected to loginURL with 303 whatever the internal reason was.
func RequireAdmin(gate AccessChecker, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")

			decision := gate.CheckAccess(r.Context())
			if !decision.IsGranted() {
				httputil.RedirectSeeOther(w, r, loginURL)
				return
			}

			ctx := WithAdmin(r.Context(), decision.Admin)
			ctx = requestcontext.WithUserID(ctx, decision.Admin.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
