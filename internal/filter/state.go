package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
)

// SortKey selects the result ordering.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc:
		return true
	}
	return false
}

// PriceRange bounds the price filter. A nil bound is open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// State is the set of user choices applied to one grid.
type State struct {
	SearchQuery string              `json:"searchQuery"`
	Selected    map[string][]string `json:"selectedFilters"`
	Price       *PriceRange         `json:"priceRange,omitempty"`
	SortBy      SortKey             `json:"sortBy"`
	// SearchType extends the text search to the vehicle type.
	SearchType bool `json:"searchType,omitempty"`
	// Locale drives name collation.
	Locale locale.Locale `json:"locale,omitempty"`
}

// NewState returns the default state of a freshly opened grid.
func NewState() State {
	return State{
		Selected: map[string][]string{},
		SortBy:   SortNewest,
		Locale:   locale.Default,
	}
}

// Toggle flips value in section. In a radio section selecting a value replaces
// the previous one and selecting the current value clears it.
func (s *State) Toggle(section Section, value string) {
	if s.Selected == nil {
		s.Selected = map[string][]string{}
	}
	current := s.Selected[section.ID]

	idx := -1
	for i, v := range current {
		if v == value {
			idx = i
			break
		}
	}

	switch {
	case idx >= 0 && section.Kind == Radio:
		delete(s.Selected, section.ID)
	case idx >= 0:
		next := append(append([]string{}, current[:idx]...), current[idx+1:]...)
		if len(next) == 0 {
			delete(s.Selected, section.ID)
		} else {
			s.Selected[section.ID] = next
		}
	case section.Kind == Radio:
		s.Selected[section.ID] = []string{value}
	default:
		s.Selected[section.ID] = append(append([]string{}, current...), value)
	}
}

// IsSelected reports whether value is selected in section id.
func (s State) IsSelected(sectionID, value string) bool {
	for _, v := range s.Selected[sectionID] {
		if v == value {
			return true
		}
	}
	return false
}

// Reset clears every choice except the locale.
func (s *State) Reset() {
	loc := s.Locale
	*s = NewState()
	if loc != "" {
		s.Locale = loc
	}
}

// Query string parameter names.
const (
	paramQuery   = "q"
	paramMin     = "min"
	paramMax     = "max"
	paramSort    = "sort"
	paramType    = "type"
	paramSection = "f."
)

// ParseState reads a state from query parameters:
//
//	q=asya&f.category=moto,auto&f.autonomy=50to100&min=1000&max=5000&sort=price-asc&type=1
//
// Unknown sort keys and malformed bounds are ignored.
func ParseState(values url.Values, loc locale.Locale) State {
	st := NewState()
	st.Locale = loc
	st.SearchQuery = strings.TrimSpace(values.Get(paramQuery))

	if k := SortKey(values.Get(paramSort)); k.Valid() {
		st.SortBy = k
	}
	st.SearchType = values.Get(paramType) == "1" || values.Get(paramType) == "true"

	for key, raw := range values {
		if !strings.HasPrefix(key, paramSection) {
			continue
		}
		id := strings.TrimPrefix(key, paramSection)
		var selected []string
		for _, r := range raw {
			for _, v := range strings.Split(r, ",") {
				if v = strings.TrimSpace(v); v != "" && !contains(selected, v) {
					selected = append(selected, v)
				}
			}
		}
		if id != "" && len(selected) > 0 {
			st.Selected[id] = selected
		}
	}

	minP, okMin := parseBound(values.Get(paramMin))
	maxP, okMax := parseBound(values.Get(paramMax))
	if okMin || okMax {
		st.Price = &PriceRange{}
		if okMin {
			st.Price.Min = &minP
		}
		if okMax {
			st.Price.Max = &maxP
		}
	}

	return st
}

// Encode writes s back to query parameters, omitting defaults.
func (s State) Encode() url.Values {
	values := url.Values{}
	if s.SearchQuery != "" {
		values.Set(paramQuery, s.SearchQuery)
	}
	if s.SortBy != "" && s.SortBy != SortNewest {
		values.Set(paramSort, string(s.SortBy))
	}
	if s.SearchType {
		values.Set(paramType, "1")
	}

	ids := make([]string, 0, len(s.Selected))
	for id := range s.Selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if sel := s.Selected[id]; len(sel) > 0 {
			values.Set(paramSection+id, strings.Join(sel, ","))
		}
	}

	if s.Price != nil {
		if s.Price.Min != nil {
			values.Set(paramMin, strconv.FormatFloat(*s.Price.Min, 'f', -1, 64))
		}
		if s.Price.Max != nil {
			values.Set(paramMax, strconv.FormatFloat(*s.Price.Max, 'f', -1, 64))
		}
	}
	return values
}

func parseBound(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
