// Package httptransport is the thin HTTP layer. Handlers decode and validate
// request shapes, then delegate to the domain services; this is where
// malformed input is rejected so the core only ever sees validated records.
package httptransport

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"poma/internal/archive"
	"poma/internal/event"
	"poma/internal/lock"
	"poma/internal/ratelimit"
	"poma/internal/registry"
	"poma/internal/store/durable"
	"poma/internal/store/ephemeral"
	"poma/internal/workflow"
	"poma/pkg/platform/httputil"
)

// Handler wires all endpoints to their services.
type Handler struct {
	locks     *lock.Manager
	rates     *ratelimit.Limiter
	events    *event.Publisher
	registry  *registry.Service
	workflows *workflow.Service
	archive   *archive.Service

	// Store handles kept for the status probe only.
	ephemeral ephemeral.Store
	durable   durable.Store

	logger *slog.Logger

	defaultLockTTL    time.Duration
	defaultRateWindow time.Duration
	version           string
}

// Config carries handler construction parameters beyond the services.
type Config struct {
	DefaultLockTTL    time.Duration
	DefaultRateWindow time.Duration
	Version           string
}

// New constructs the handler with its dependencies.
func New(
	locks *lock.Manager,
	rates *ratelimit.Limiter,
	events *event.Publisher,
	reg *registry.Service,
	workflows *workflow.Service,
	arch *archive.Service,
	eph ephemeral.Store,
	dur durable.Store,
	logger *slog.Logger,
	cfg Config,
) *Handler {
	return &Handler{
		locks:             locks,
		rates:             rates,
		events:            events,
		registry:          reg,
		workflows:         workflows,
		archive:           arch,
		ephemeral:         eph,
		durable:           dur,
		logger:            logger,
		defaultLockTTL:    cfg.DefaultLockTTL,
		defaultRateWindow: cfg.DefaultRateWindow,
		version:           cfg.Version,
	}
}

// NewRouter mounts all endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/locks/acquire", h.HandleAcquireLock)
	r.Post("/locks/release", h.HandleReleaseLock)

	r.Post("/rate-limits/increment", h.HandleIncrementRateLimit)
	r.Get("/rate-limits/{key}", h.HandleGetRateLimit)

	r.Post("/events/audit", h.HandlePublishAudit)
	r.Post("/events/ccwj", h.HandlePublishContextPatch)
	r.Post("/events/feedback", h.HandlePublishFeedback)
	r.Post("/events/workflow", h.HandlePublishWorkflowEvent)

	r.Post("/registry", h.HandleAddRegistryEntry)
	r.Patch("/registry/{moduleName}", h.HandleUpdateRegistryEntry)
	r.Get("/registry/{moduleName}", h.HandleGetRegistryEntry)

	r.Post("/workflows", h.HandleCreateWorkflow)
	r.Patch("/workflows/{workflowID}", h.HandleUpdateWorkflow)
	r.Get("/workflows/{workflowID}", h.HandleGetWorkflow)

	r.Post("/archive/chat", h.HandleLogChatMessage)
	r.Post("/archive/ccwj-snapshot", h.HandleSaveContextSnapshot)
	r.Post("/archive/analytics", h.HandleLogAnalyticsReport)

	r.Get("/system/version", h.HandleVersion)
	r.Get("/system/status", h.HandleStatus)
	r.Get("/system/time", h.HandleTime)

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// writeServiceError maps domain errors onto HTTP statuses. Anything not
// recognized is a store-layer failure surfaced as 502 so callers can tell
// backend outages from their own bad requests.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, durable.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, durable.ErrDuplicate):
		httputil.WriteError(w, http.StatusConflict, "already exists")
	default:
		h.logger.ErrorContext(r.Context(), "store operation failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, http.StatusBadGateway, "store unavailable")
	}
}
