package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/spherical/libs/showroom/cmd/showroom-api/middleware"
	"github.com/spherical-ai/spherical/libs/showroom/internal/comparison"
	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

// ComparisonHandler serves the visitor's comparison selection and the
// comparison table.
type ComparisonHandler struct {
	logger   *observability.Logger
	registry *comparison.Registry
	vehicles comparison.VehicleSource
}

// NewComparisonHandler creates a new comparison handler.
func NewComparisonHandler(logger *observability.Logger, registry *comparison.Registry, vehicles comparison.VehicleSource) *ComparisonHandler {
	return &ComparisonHandler{
		logger:   logger.WithComponent("comparison_handler"),
		registry: registry,
		vehicles: vehicles,
	}
}

// SelectionDTO is the visitor's selection after a request.
type SelectionDTO struct {
	comparison.Snapshot
	// Added is false when an add request was ignored because the selection
	// is full.
	Added *bool `json:"added,omitempty"`
}

// ComparisonResponseDTO is a rendered comparison table.
type ComparisonResponseDTO struct {
	Locale locale.Locale `json:"locale"`
	comparison.Table
}

func (h *ComparisonHandler) store(r *http.Request) *comparison.Store {
	return h.registry.For(r.Context(), middleware.VisitorFromContext(r.Context()))
}

// Get handles GET /comparison.
func (h *ComparisonHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SelectionDTO{Snapshot: h.store(r).Snapshot()})
}

// Add handles POST /comparison/{id}. Adding to a full selection is not an
// error; the response reports whether the id is selected.
func (h *ComparisonHandler) Add(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "vehicle id is required", "")
		return
	}

	store := h.store(r)
	store.Add(r.Context(), id)
	added := store.Contains(id)

	writeJSON(w, http.StatusOK, SelectionDTO{Snapshot: store.Snapshot(), Added: &added})
}

// Remove handles DELETE /comparison/{id}.
func (h *ComparisonHandler) Remove(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	store.Remove(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, SelectionDTO{Snapshot: store.Snapshot()})
}

// Clear handles DELETE /comparison.
func (h *ComparisonHandler) Clear(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	store.Clear(r.Context())
	writeJSON(w, http.StatusOK, SelectionDTO{Snapshot: store.Snapshot()})
}

// Compare handles GET /{locale}/compare?ids=a,b,c. Fewer than two resolvable
// vehicles redirect to the locale home page.
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r)
	ids := comparison.ParseIDs(r.URL.Query().Get("ids"), comparison.MaxRequestIDs)

	table, err := comparison.Resolve(r.Context(), h.vehicles, ids, loc)
	if err != nil {
		if !errors.Is(err, comparison.ErrTooFewVehicles) {
			h.logger.WithContext(r.Context()).Warn().Err(err).Strs("vehicle_ids", ids).Msg("Comparison lookup failed")
		}
		http.Redirect(w, r, "/"+loc.String(), http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, ComparisonResponseDTO{Locale: loc, Table: *table})
}
