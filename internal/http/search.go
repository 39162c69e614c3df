package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/aggregate"
	"github.com/jimale-ku/pricelens/internal/database"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/registry"
)

// StoreOutcome is the per-store diagnostic attached to a search response.
type StoreOutcome struct {
	OK         bool   `json:"ok"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// SearchResponse is the response for /search. Partial provider failures are
// reported per store; the endpoint itself succeeds whenever the query is
// valid, even if every store is down.
type SearchResponse struct {
	Query           string                    `json:"query"`
	Results         []models.AggregatedResult `json:"results"`
	Stores          map[string]StoreOutcome   `json:"stores"`
	StoresSucceeded int                       `json:"stores_succeeded"`
	StoresFailed    int                       `json:"stores_failed"`
}

// SearchHandler handles the /search endpoint.
type SearchHandler struct {
	registry     *registry.Registry
	aggregator   *aggregate.Service
	db           *database.DB
	metrics      *Metrics
	defaultLimit int
	storeResults bool
	logger       zerolog.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(reg *registry.Registry, agg *aggregate.Service, db *database.DB, metrics *Metrics, defaultLimit int, storeResults bool, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		registry:     reg,
		aggregator:   agg,
		db:           db,
		metrics:      metrics,
		defaultLimit: defaultLimit,
		storeResults: storeResults,
		logger:       logger.With().Str("component", "search").Logger(),
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.metrics.RecordSearch("invalid")
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	limit := h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	opts := models.SearchOptions{
		Query:    query,
		Limit:    limit,
		Category: r.URL.Query().Get("category"),
		Locale:   r.URL.Query().Get("locale"),
	}

	results := h.registry.SearchAll(r.Context(), opts)
	aggregated := h.aggregator.Aggregate(results)

	response := SearchResponse{
		Query:   query,
		Results: aggregated,
		Stores:  make(map[string]StoreOutcome, len(results)),
	}
	for id, res := range results {
		outcome := StoreOutcome{
			OK:         res.Err == nil,
			Count:      len(res.Products),
			DurationMs: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			outcome.Error = res.Err.Error()
			response.StoresFailed++
		} else {
			response.StoresSucceeded++
		}
		response.Stores[id] = outcome
	}

	if h.storeResults && h.db != nil {
		stored, err := h.db.SaveResults(r.Context(), aggregated)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to store search results")
		} else if stored > 0 {
			h.metrics.RecordPricesStored(stored)
		}
	}

	h.metrics.RecordSearch("success")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode search response")
	}
}
