package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// Health reports liveness and, when a ping is configured, database reachability.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := a.ping(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("http: health check failed")
			a.error(w, r, http.StatusServiceUnavailable, codeUnavailable, "")
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
