package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/showroom/internal/chat"
	"github.com/spherical-ai/spherical/libs/showroom/internal/comparison"
	"github.com/spherical-ai/spherical/libs/showroom/internal/config"
	"github.com/spherical-ai/spherical/libs/showroom/internal/crm"
	"github.com/spherical-ai/spherical/libs/showroom/internal/filter"
	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
	"github.com/spherical-ai/spherical/libs/showroom/internal/product"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestUI_Table(t *testing.T) {
	var out bytes.Buffer
	u := NewUI(&out, &out, false, true)

	u.Table([]string{"ID", "Autonomia"}, [][]string{{"asya", "80-100 KM"}, {"kick", comparison.Missing}})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "│ ID   │ Autonomia │", lines[1])
	assert.Equal(t, "│ kick │ N/D       │", lines[4])
	for _, l := range lines {
		assert.Equal(t, len([]rune(lines[0])), len([]rune(l)))
	}
}

func TestUI_JSONModeSilencesText(t *testing.T) {
	var out bytes.Buffer
	u := NewUI(&out, &out, true, true)

	u.Info("hidden")
	u.Table([]string{"a"}, [][]string{{"b"}})
	require.NoError(t, u.JSON(map[string]int{"seeded": 2}))

	assert.JSONEq(t, `{"seeded":2}`, out.String())
}

func TestFilterValues(t *testing.T) {
	tests := []struct {
		name       string
		selections []string
		sortBy     string
		want       string
		wantErr    bool
	}{
		{name: "empty", want: ""},
		{name: "sections", selections: []string{"autonomy=50to100", "category = moto"}, want: "f.autonomy=50to100&f.category=moto"},
		{name: "sort", sortBy: "price-desc", want: "sort=price-desc"},
		{name: "unknown sort", sortBy: "cheapest", wantErr: true},
		{name: "missing value", selections: []string{"autonomy="}, wantErr: true},
		{name: "no separator", selections: []string{"autonomy"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := filterValues("", tt.selections, "", "", tt.sortBy, false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, values.Encode())
		})
	}
}

func TestFilterValues_ParsedByGrid(t *testing.T) {
	values, err := filterValues("asya", []string{"brand=Wolf"}, "1000", "abc", "name-asc", true)
	require.NoError(t, err)

	st := filter.ParseState(values, locale.Parse("en"))
	assert.Equal(t, "asya", st.SearchQuery)
	assert.Equal(t, []string{"Wolf"}, st.Selected["brand"])
	assert.Equal(t, filter.SortNameAsc, st.SortBy)
	assert.True(t, st.SearchType)
	require.NotNil(t, st.Price)
	assert.Equal(t, 1000.0, *st.Price.Min)
	assert.Nil(t, st.Price.Max)
}

func TestComparisonRows(t *testing.T) {
	table := comparison.BuildTable([]product.View{
		{Name: "ASYA", Battery: "48V 20Ah", OptionalFeatures: []string{"Bauletto"}},
		{Name: "Kick"},
	})

	headers, rows := comparisonRows(table)

	assert.Equal(t, []string{"", "ASYA", "Kick"}, headers)
	assert.Equal(t, []string{"Batteria", "48V 20Ah", comparison.Missing}, rows[0])
	assert.Equal(t, []string{"Bauletto", "✓", "✗"}, rows[len(rows)-1])
}

func TestFormatPrice(t *testing.T) {
	price := 1299.5
	assert.Equal(t, comparison.Missing, formatPrice(nil, locale.Default))
	assert.Contains(t, formatPrice(&price, locale.Parse("en")), "1,299.50")
}

func TestDecodeVehicles(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []string
		wantErr string
	}{
		{name: "array", input: `[{"id":"asya","name":"ASYA"},{"id":" kick ","name":"Kick"}]`, wantIDs: []string{"asya", "kick"}},
		{name: "wrapped", input: `{"vehicles":[{"id":"asya","name":"ASYA","availability":"limited"}]}`, wantIDs: []string{"asya"}},
		{name: "empty", input: `[]`, wantErr: "no vehicles"},
		{name: "missing id", input: `[{"name":"ASYA"}]`, wantErr: "id is required"},
		{name: "missing name", input: `[{"id":"asya"}]`, wantErr: "name is required"},
		{name: "duplicate", input: `[{"id":"a","name":"A"},{"id":"a","name":"B"}]`, wantErr: "duplicate id"},
		{name: "bad availability", input: `[{"id":"a","name":"A","availability":"soon"}]`, wantErr: "unknown availability"},
		{name: "not json", input: `id,name`, wantErr: "decode vehicles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vehicles, err := decodeVehicles(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(vehicles))
			for i, v := range vehicles {
				ids[i] = v.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestVehicleRows(t *testing.T) {
	price := 990.0
	rows := vehicleRows([]product.View{
		{ID: "asya", Name: "ASYA", Category: "Moto", Subcategory: "Scooter", Range: "80 KM", Price: &price, Availability: storage.AvailabilityInStock},
		{ID: "kick", Name: "Kick", Category: "Monopattini", Subcategory: "Monopattini"},
	}, locale.Default)

	require.Len(t, rows, 2)
	assert.Equal(t, "Moto / Scooter", rows[0][3])
	assert.Equal(t, "Monopattini", rows[1][3])
	assert.Equal(t, comparison.Missing, rows[1][4])
	assert.Equal(t, comparison.Missing, rows[1][5])
}

type scriptedCRM struct {
	reply []string
}

func (s scriptedCRM) CreateSession(context.Context, crm.Customer) (string, error) { return "s-1", nil }
func (s scriptedCRM) SaveMessage(context.Context, string, string, crm.MessageType) error {
	return nil
}
func (s scriptedCRM) StreamAIResponse(_ context.Context, _, _ string, onChunk func(string)) error {
	for _, part := range s.reply {
		onChunk(part)
	}
	return nil
}
func (s scriptedCRM) RequestOperator(context.Context, string) error { return nil }

func setupChat(t *testing.T) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	ui = NewUI(out, &syncBuffer{}, false, true)
	cfg = config.DefaultConfig()
	logger = observability.Nop()
	return out
}

func TestRunChat_Conversation(t *testing.T) {
	out := setupChat(t)
	session := chat.NewSession(scriptedCRM{reply: []string{"Certo, ", "eccomi."}}, chat.Config{}, nil)
	in := bufio.NewScanner(strings.NewReader("Anna\nBianchi\nanna@example.it\n333\nMi aiuti?\n/esci\n"))

	require.NoError(t, runChat(context.Background(), session, in, chat.Customer{}))

	text := out.String()
	assert.Contains(t, text, chat.DefaultTexts().Welcome)
	assert.Contains(t, text, "Certo, eccomi.")
	assert.NotContains(t, text, "Mi aiuti?")
	assert.Equal(t, chat.StateClosed, session.State())
}

func TestRunChat_Operator(t *testing.T) {
	out := setupChat(t)
	session := chat.NewSession(scriptedCRM{}, chat.Config{OperatorCloseDelay: 10 * time.Millisecond}, nil)
	in := bufio.NewScanner(strings.NewReader("/operatore\n"))

	customer := chat.Customer{FirstName: "Anna", LastName: "Bianchi", Email: "anna@example.it", Phone: "333"}
	require.NoError(t, runChat(context.Background(), session, in, customer))

	assert.Contains(t, out.String(), chat.DefaultTexts().Farewell)
	assert.Equal(t, chat.StateClosed, session.State())
}

func TestRunChat_InvalidCustomer(t *testing.T) {
	setupChat(t)
	session := chat.NewSession(scriptedCRM{}, chat.Config{}, nil)
	in := bufio.NewScanner(strings.NewReader("Anna\nBianchi\nnot-an-email\n333\n"))

	err := runChat(context.Background(), session, in, chat.Customer{})
	assert.Error(t, err)
}
