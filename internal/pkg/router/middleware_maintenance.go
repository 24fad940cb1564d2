package router

import (
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the route patterns listed in
// app.maintenance.endpoints. The list is re-read when the config changes.
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := func() map[string]struct{} { return nil }
	if cfg != nil {
		blocked = func() map[string]struct{} {
			routes := lo.FilterMap(cfg.GetArray("app.maintenance.endpoints"), func(s string, _ int) (string, bool) {
				s = strings.TrimSpace(s)
				return s, s != ""
			})
			return lo.Keyify(routes)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := blocked()[matchedRoutePath(r)]; ok {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
