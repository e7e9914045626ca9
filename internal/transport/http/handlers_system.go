package httptransport

import (
	"net/http"
	"time"

	"poma/pkg/platform/httputil"
)

// HandleVersion handles GET /system/version.
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// HandleStatus handles GET /system/status. Each store is probed
// independently; an unreachable store reads false rather than failing the
// request.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{
		"ephemeral_connected": h.ephemeral.Health(ctx) == nil,
		"durable_connected":   h.durable.Health(ctx) == nil,
	})
}

// HandleTime handles GET /system/time.
func (h *Handler) HandleTime(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"now": time.Now().Format(time.RFC3339Nano),
	})
}
