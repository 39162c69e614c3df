package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jimale-ku/pricelens/internal/database"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/registry"
	"github.com/jimale-ku/pricelens/internal/scheduler"
)

// StatusHandler handles the /status endpoint.
type StatusHandler struct {
	registry  *registry.Registry
	scheduler *scheduler.Scheduler
	db        *database.DB
	startTime time.Time
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(reg *registry.Registry, sched *scheduler.Scheduler, db *database.DB) *StatusHandler {
	return &StatusHandler{
		registry:  reg,
		scheduler: sched,
		db:        db,
		startTime: time.Now(),
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := models.StatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Stores:        make(map[string]models.StoreStatus),
	}

	if h.scheduler != nil {
		response.SchedulerRunning = h.scheduler.IsRunning()
		response.LastRefreshAt = h.scheduler.LastRunAt()
		nextRun := h.scheduler.NextRunAt()
		if !nextRun.IsZero() {
			response.NextRefreshAt = &nextRun
		}
	}

	for _, a := range h.registry.Adapters() {
		store := a.Store()
		response.Stores[store.ID] = models.StoreStatus{
			Enabled:     a.IsEnabled(),
			Integration: store.Integration,
			Health:      a.Health(),
		}
	}

	response.Database = h.getDatabaseStatus(ctx)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *StatusHandler) getDatabaseStatus(ctx context.Context) models.DatabaseStatus {
	status := models.DatabaseStatus{
		Connected: false,
	}

	if h.db == nil {
		return status
	}

	if err := h.db.Ping(); err != nil {
		return status
	}
	status.Connected = true

	count, err := h.db.TotalPricesStored(ctx)
	if err == nil {
		status.TotalPricesStored = count
	}

	return status
}
