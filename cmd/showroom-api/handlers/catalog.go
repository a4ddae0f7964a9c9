package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/spherical/libs/showroom/internal/domain"
	"github.com/spherical-ai/spherical/libs/showroom/internal/filter"
	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
	"github.com/spherical-ai/spherical/libs/showroom/internal/product"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// VehicleCatalog is the read side of the vehicle catalog.
type VehicleCatalog interface {
	Vehicles(ctx context.Context, categorySlug string, loc locale.Locale) ([]storage.Vehicle, error)
	VehicleByID(ctx context.Context, id string, loc locale.Locale) (*storage.Vehicle, error)
	VehiclesByIDs(ctx context.Context, ids []string, loc locale.Locale) ([]storage.Vehicle, error)
	Featured(ctx context.Context, loc locale.Locale, limit int) ([]storage.Vehicle, error)
	Categories(ctx context.Context, loc locale.Locale) ([]storage.CategorySummary, error)
}

// CatalogHandler serves vehicle listings, details and the filtered grid.
type CatalogHandler struct {
	logger  *observability.Logger
	catalog VehicleCatalog
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(logger *observability.Logger, catalog VehicleCatalog) *CatalogHandler {
	return &CatalogHandler{
		logger:  logger.WithComponent("catalog_handler"),
		catalog: catalog,
	}
}

// VehicleListDTO is a page of product views.
type VehicleListDTO struct {
	Locale locale.Locale  `json:"locale"`
	Items  []product.View `json:"items"`
	Total  int            `json:"total"`
}

// FilterResponseDTO is the filtered grid with its facets.
type FilterResponseDTO struct {
	Locale   locale.Locale             `json:"locale"`
	Category string                    `json:"category,omitempty"`
	State    filter.State              `json:"state"`
	Query    string                    `json:"query"`
	Items    []product.View            `json:"items"`
	Total    int                       `json:"total"`
	Counts   map[string]map[string]int `json:"counts"`
	Facets   []filter.Facet            `json:"facets"`
}

// List handles GET /{locale}/vehicles. A backend failure renders an empty
// list so listing pages degrade instead of failing.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r)
	vehicles, err := h.catalog.Vehicles(r.Context(), r.URL.Query().Get("category"), loc)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn().Err(err).Msg("Serving empty vehicle list")
	}
	views := product.FromVehicles(vehicles, loc)
	writeJSON(w, http.StatusOK, VehicleListDTO{Locale: loc, Items: views, Total: len(views)})
}

// Featured handles GET /{locale}/vehicles/featured.
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	vehicles, err := h.catalog.Featured(r.Context(), loc, limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn().Err(err).Msg("Serving empty featured list")
	}
	views := product.FromVehicles(vehicles, loc)
	writeJSON(w, http.StatusOK, VehicleListDTO{Locale: loc, Items: views, Total: len(views)})
}

// Get handles GET /{locale}/vehicles/{id}.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r)
	id := chi.URLParam(r, "id")

	v, err := h.catalog.VehicleByID(r.Context(), id, loc)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vehicle not found", id)
			return
		}
		writeDomainError(w, r, h.logger, "failed to load vehicle", err)
		return
	}
	writeJSON(w, http.StatusOK, product.FromVehicle(*v, loc))
}

// Categories handles GET /{locale}/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r)
	categories, err := h.catalog.Categories(r.Context(), loc)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn().Err(err).Msg("Serving empty category list")
	}
	for i := range categories {
		href := categories[i].Href
		if href == "" {
			href = "/prodotti/" + categories[i].Slug
		}
		categories[i].Href = product.LocalizePath(loc, href)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locale":     loc,
		"categories": categories,
	})
}

// Filter handles GET /{locale}/catalog: the grid of one category or of the
// whole catalog narrowed by the query-string filter state.
func (h *CatalogHandler) Filter(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r)
	query := r.URL.Query()
	category := query.Get("category")

	vehicles, err := h.catalog.Vehicles(r.Context(), category, loc)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn().Err(err).Msg("Filtering an empty catalog")
	}

	sections := filter.StandardSections()
	if category != "" {
		sections = filter.CategoryPageSections()
	}

	st := filter.ParseState(query, loc)
	res := filter.Apply(product.FromVehicles(vehicles, loc), st, sections)

	writeJSON(w, http.StatusOK, FilterResponseDTO{
		Locale:   loc,
		Category: category,
		State:    st,
		Query:    st.Encode().Encode(),
		Items:    res.Items,
		Total:    res.Total,
		Counts:   res.Counts,
		Facets:   res.Facets,
	})
}
