package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type pinger func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (a *App) healthHandler() http.Handler {
	checks := map[string]pinger{
		"database": func(ctx context.Context) error { return a.dbConn.Ping(ctx) },
		"redis":    func(ctx context.Context) error { return a.cacheConn.Ping(ctx).Err() },
	}

	return newHealthHandler(checks)
}

// newHealthHandler answers 200 when every check passes and 503 otherwise.
func newHealthHandler(checks map[string]pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.WarnContext(ctx, "health check failed", "check", name, "error", err)
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "up"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		//nolint:errcheck // client went away
		_ = json.NewEncoder(w).Encode(resp)
	})
}
