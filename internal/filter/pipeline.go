// Package filter narrows and orders product grids and computes the per-option
// counts shown next to each filter.
package filter

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/product"
)

// Facet is a section with its options resolved against the current items.
type Facet struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Kind    Kind          `json:"kind"`
	Options []FacetOption `json:"options"`
}

// FacetOption is one option with its count and selection state.
type FacetOption struct {
	Option
	Count    int  `json:"count"`
	Selected bool `json:"selected"`
}

// Result is the filtered view of a grid.
type Result struct {
	Items  []product.View            `json:"items"`
	Total  int                       `json:"total"`
	Counts map[string]map[string]int `json:"counts"`
	Facets []Facet                   `json:"facets"`
}

// Apply filters and sorts items. Stages run in order: text search, per
// section membership, price range, then a stable sort. items is not modified.
//
// Counts are taken over the search-narrowed list and ignore every section and
// price selection, so an option's count never changes when options are
// toggled. Selected options are always listed.
func Apply(items []product.View, st State, sections []Section) Result {
	searched := make([]product.View, 0, len(items))
	for _, it := range items {
		if matchesSearch(it, st.SearchQuery, st.SearchType) {
			searched = append(searched, it)
		}
	}

	out := make([]product.View, 0, len(searched))
	for _, it := range searched {
		if matchesSections(it, st, sections) && matchesPrice(it, st.Price) {
			out = append(out, it)
		}
	}

	sortItems(out, st.SortBy, st.Locale)

	counts, facets := countOptions(items, searched, st, sections)

	return Result{
		Items:  out,
		Total:  len(out),
		Counts: counts,
		Facets: facets,
	}
}

func matchesSearch(it product.View, query string, withType bool) bool {
	q := foldText(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	fields := []string{it.Name, it.Model, it.Category}
	if withType {
		fields = append(fields, it.Type)
	}
	for _, f := range fields {
		if strings.Contains(foldText(f), q) {
			return true
		}
	}
	return false
}

// foldText lowercases s and strips diacritics, so "citta" finds "Città".
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// selection returns the effective selected values of a section. Radio
// sections honour only the first value.
func selection(st State, sec Section) []string {
	sel := st.Selected[sec.ID]
	if sec.Kind == Radio && len(sel) > 1 {
		return sel[:1]
	}
	return sel
}

func matchesSections(it product.View, st State, sections []Section) bool {
	for _, sec := range sections {
		sel := selection(st, sec)
		if len(sel) == 0 || sec.Attr == nil {
			continue
		}
		if !anyIn(sec.Attr(it), sel) {
			return false
		}
	}
	return true
}

func anyIn(values, selected []string) bool {
	for _, v := range values {
		for _, s := range selected {
			if v == s {
				return true
			}
		}
	}
	return false
}

// matchesPrice keeps items without a price regardless of the range.
func matchesPrice(it product.View, pr *PriceRange) bool {
	if it.Price == nil || pr == nil {
		return true
	}
	lo, hi := 0.0, math.Inf(1)
	if pr.Min != nil {
		lo = *pr.Min
	}
	if pr.Max != nil {
		hi = *pr.Max
	}
	p := *it.Price
	return p >= lo && p <= hi
}

func priceOf(it product.View) float64 {
	if it.Price == nil {
		return 0
	}
	return *it.Price
}

func sortItems(items []product.View, key SortKey, loc locale.Locale) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool { return priceOf(items[i]) < priceOf(items[j]) })
	case SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool { return priceOf(items[i]) > priceOf(items[j]) })
	case SortNameAsc:
		if loc == "" {
			loc = locale.Default
		}
		col := collate.New(loc.Tag(), collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			return col.CompareString(items[i].Name, items[j].Name) < 0
		})
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].IsNew && !items[j].IsNew })
	}
}

func countOptions(all, base []product.View, st State, sections []Section) (map[string]map[string]int, []Facet) {
	counts := make(map[string]map[string]int, len(sections))
	facets := make([]Facet, 0, len(sections))

	for _, sec := range sections {
		c := tally(base, sec)
		// a selected option hidden by the search falls back to its catalog count
		var full map[string]int
		for _, v := range selection(st, sec) {
			if c[v] > 0 {
				continue
			}
			if full == nil {
				full = tally(all, sec)
			}
			if n := full[v]; n > 0 {
				c[v] = n
			}
		}

		options := sec.Options
		if len(options) == 0 {
			options = deriveOptions(all, sec)
		}

		facet := Facet{ID: sec.ID, Label: sec.Label, Kind: sec.Kind, Options: []FacetOption{}}
		listed := map[string]bool{}
		for _, opt := range options {
			listed[opt.Value] = true
			facet.Options = append(facet.Options, FacetOption{
				Option:   opt,
				Count:    c[opt.Value],
				Selected: st.IsSelected(sec.ID, opt.Value),
			})
			ensureKey(c, opt.Value)
		}
		for _, v := range selection(st, sec) {
			if listed[v] {
				continue
			}
			facet.Options = append(facet.Options, FacetOption{
				Option:   Option{Value: v, Label: v},
				Count:    c[v],
				Selected: true,
			})
			ensureKey(c, v)
		}

		counts[sec.ID] = c
		facets = append(facets, facet)
	}
	return counts, facets
}

func tally(items []product.View, sec Section) map[string]int {
	c := map[string]int{}
	if sec.Attr == nil {
		return c
	}
	for _, it := range items {
		for _, v := range sec.Attr(it) {
			c[v]++
		}
	}
	return c
}

func ensureKey(m map[string]int, k string) {
	if _, ok := m[k]; !ok {
		m[k] = 0
	}
}

// deriveOptions collects the distinct values of a section across items,
// sorted by value.
func deriveOptions(items []product.View, sec Section) []Option {
	if sec.Attr == nil {
		return nil
	}
	labels := map[string]string{}
	for _, it := range items {
		for _, v := range sec.Attr(it) {
			if _, ok := labels[v]; ok {
				continue
			}
			label := v
			if sec.Display != nil {
				if d := sec.Display(it); d != "" {
					label = d
				}
			}
			labels[v] = label
		}
	}

	values := make([]string, 0, len(labels))
	for v := range labels {
		values = append(values, v)
	}
	sort.Strings(values)

	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: labels[v]}
	}
	return out
}
