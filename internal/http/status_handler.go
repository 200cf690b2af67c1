package http

import (
	"net/http"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/logger"
)

// QueueStatsProvider exposes a point-in-time snapshot of the job queues.
type QueueStatsProvider interface {
	Stats() domain.QueueStats
}

// SchedulerStatus reports whether the sweep loops are active.
type SchedulerStatus interface {
	IsRunning() bool
}

// StatusHandler serves liveness and fleet status for the host process.
type StatusHandler struct {
	version   string
	queue     QueueStatsProvider
	scheduler SchedulerStatus
	domains   domain.DomainRepository
	pools     domain.PoolService
	logger    logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(version string, queue QueueStatsProvider, scheduler SchedulerStatus, domains domain.DomainRepository, pools domain.PoolService, logger logger.Logger) *StatusHandler {
	return &StatusHandler{
		version:   version,
		queue:     queue,
		scheduler: scheduler,
		domains:   domains,
		pools:     pools,
		logger:    logger,
	}
}

// RegisterRoutes registers the status HTTP endpoints
func (h *StatusHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/health", http.HandlerFunc(h.handleHealth))
	mux.Handle("/api/status", http.HandlerFunc(h.handleStatus))
	mux.Handle("/api/pools/metrics", http.HandlerFunc(h.handlePoolMetrics))
}

func (h *StatusHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StatusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := h.domains.CountByPool(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to count domains by pool")
		WriteJSONError(w, "Failed to compute status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"version":           h.version,
		"scheduler_running": h.scheduler.IsRunning(),
		"queues":            h.queue.Stats(),
		"pools":             counts,
	})
}

func (h *StatusHandler) handlePoolMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics := make([]*domain.PoolMetrics, 0, len(domain.PoolTypes))
	for _, poolType := range domain.PoolTypes {
		m, err := h.pools.GetPoolMetrics(r.Context(), poolType)
		if err != nil {
			h.logger.WithField("error", err.Error()).
				WithField("pool", string(poolType)).
				Error("Failed to compute pool metrics")
			WriteJSONError(w, "Failed to compute pool metrics", http.StatusInternalServerError)
			return
		}
		metrics = append(metrics, m)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pools": metrics,
	})
}
