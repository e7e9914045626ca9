package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"poma/pkg/platform/httputil"
)

type acquireLockRequest struct {
	ResourceName string `json:"resource_name"`
	TTLSeconds   int    `json:"ttl_seconds"`
}

type acquireLockResponse struct {
	Acquired bool   `json:"acquired"`
	Token    string `json:"token,omitempty"`
}

// HandleAcquireLock handles POST /locks/acquire.
func (h *Handler) HandleAcquireLock(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[acquireLockRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ResourceName == "" {
		httputil.WriteError(w, http.StatusBadRequest, "resource_name is required")
		return
	}

	ttl := h.defaultLockTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	token, acquired, err := h.locks.Acquire(r.Context(), req.ResourceName, ttl)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acquireLockResponse{Acquired: acquired, Token: token})
}

type releaseLockRequest struct {
	ResourceName string `json:"resource_name"`
	// Token is optional: with it the release is ownership-checked, without
	// it the delete is unconditional.
	Token string `json:"token"`
}

type releaseLockResponse struct {
	Released bool `json:"released"`
}

// HandleReleaseLock handles POST /locks/release.
func (h *Handler) HandleReleaseLock(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[releaseLockRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ResourceName == "" {
		httputil.WriteError(w, http.StatusBadRequest, "resource_name is required")
		return
	}

	released, err := h.locks.Release(r.Context(), req.ResourceName, req.Token)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, releaseLockResponse{Released: released})
}

type incrementRateLimitRequest struct {
	Key           string `json:"key"`
	WindowSeconds int    `json:"window_seconds"`
}

type rateLimitResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// HandleIncrementRateLimit handles POST /rate-limits/increment.
func (h *Handler) HandleIncrementRateLimit(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[incrementRateLimitRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Key == "" {
		httputil.WriteError(w, http.StatusBadRequest, "key is required")
		return
	}

	window := h.defaultRateWindow
	if req.WindowSeconds > 0 {
		window = time.Duration(req.WindowSeconds) * time.Second
	}

	count, err := h.rates.Increment(r.Context(), req.Key, window)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rateLimitResponse{Key: req.Key, Count: count})
}

// HandleGetRateLimit handles GET /rate-limits/{key}.
func (h *Handler) HandleGetRateLimit(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	count, err := h.rates.Get(r.Context(), key)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rateLimitResponse{Key: key, Count: count})
}
