package comparison

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/text/collate"

	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/product"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// Missing is rendered for a spec a vehicle does not declare.
const Missing = "N/D"

// MinVehicles is the fewest vehicles a comparison is rendered for.
const MinVehicles = 2

// MaxRequestIDs bounds how many ids a compare link is parsed for. Unknown ids
// are dropped before the table is capped at DefaultMaxItems vehicles.
const MaxRequestIDs = 32

// ErrTooFewVehicles is returned when fewer than MinVehicles ids resolve.
var ErrTooFewVehicles = errors.New("comparison needs at least two vehicles")

// Row is one spec across every compared vehicle.
type Row struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// FeatureRow marks which vehicles offer an optional feature.
type FeatureRow struct {
	Name    string `json:"name"`
	Present []bool `json:"present"`
}

// Table is the side-by-side comparison matrix. Column i of every row belongs
// to Vehicles[i].
type Table struct {
	Vehicles []product.View `json:"vehicles"`
	Rows     []Row          `json:"rows"`
	Features []FeatureRow   `json:"features"`
}

type specRow struct {
	key   string
	label string
	value func(product.View) string
}

var specRows = []specRow{
	{"battery", "Batteria", func(p product.View) string { return p.Battery }},
	{"range", "Autonomia", func(p product.View) string { return p.Range }},
	{"power", "Potenza", func(p product.View) string { return p.Power }},
	{"topSpeed", "Velocità massima", func(p product.View) string { return p.TopSpeed }},
	{"weight", "Peso", func(p product.View) string { return p.Weight }},
	{"chargingTime", "Tempo di ricarica", func(p product.View) string { return p.ChargingTime }},
}

// BuildTable renders items side by side. It does not enforce MinVehicles.
func BuildTable(items []product.View) Table {
	vehicles := make([]product.View, len(items))
	copy(vehicles, items)

	rows := make([]Row, 0, len(specRows))
	for _, sr := range specRows {
		values := make([]string, len(vehicles))
		for i, v := range vehicles {
			val := strings.TrimSpace(sr.value(v))
			if val == "" {
				val = Missing
			}
			values[i] = val
		}
		rows = append(rows, Row{Key: sr.key, Label: sr.label, Values: values})
	}

	return Table{
		Vehicles: vehicles,
		Rows:     rows,
		Features: featureRows(vehicles),
	}
}

func featureRows(vehicles []product.View) []FeatureRow {
	offered := make([]map[string]bool, len(vehicles))
	union := map[string]bool{}
	for i, v := range vehicles {
		offered[i] = map[string]bool{}
		for _, f := range v.OptionalFeatures {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			offered[i][f] = true
			union[f] = true
		}
	}

	names := make([]string, 0, len(union))
	for f := range union {
		names = append(names, f)
	}
	col := collate.New(locale.Default.Tag())
	sort.Slice(names, func(i, j int) bool {
		if c := col.CompareString(names[i], names[j]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})

	out := make([]FeatureRow, len(names))
	for i, name := range names {
		present := make([]bool, len(vehicles))
		for j := range vehicles {
			present[j] = offered[j][name]
		}
		out[i] = FeatureRow{Name: name, Present: present}
	}
	return out
}

// VehicleSource resolves vehicle ids for a comparison.
type VehicleSource interface {
	VehiclesByIDs(ctx context.Context, ids []string, loc locale.Locale) ([]storage.Vehicle, error)
}

// ParseIDs splits a comma separated id list, dropping blanks and duplicates
// and keeping at most limit ids. A non-positive limit keeps all of them.
func ParseIDs(raw string, limit int) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" || containsID(ids, id) {
			continue
		}
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, id)
	}
	return ids
}

// Resolve loads the vehicles behind ids and builds their table from the first
// DefaultMaxItems that exist. Fewer than MinVehicles resolvable ids yields
// ErrTooFewVehicles.
func Resolve(ctx context.Context, src VehicleSource, ids []string, loc locale.Locale) (*Table, error) {
	if len(ids) < MinVehicles {
		return nil, ErrTooFewVehicles
	}
	vehicles, err := src.VehiclesByIDs(ctx, ids, loc)
	if err != nil {
		return nil, err
	}
	if len(vehicles) < MinVehicles {
		return nil, ErrTooFewVehicles
	}
	if len(vehicles) > DefaultMaxItems {
		vehicles = vehicles[:DefaultMaxItems]
	}
	table := BuildTable(product.FromVehicles(vehicles, loc))
	return &table, nil
}
