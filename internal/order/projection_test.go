package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testAggregate(code, state, clientName string, createdAt time.Time, items ...LineItem) *OrderAggregate {
	if items == nil {
		items = []LineItem{}
	}
	return &OrderAggregate{
		ID:        uuid.New(),
		Code:      code,
		State:     state,
		Client:    ClientInfo{Name: clientName},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Items:     items,
	}
}

func TestProjectVisibility(t *testing.T) {
	now := time.Now()
	aggs := []*OrderAggregate{
		testAggregate("ORD-1", StateNew, "Ana", now),
		testAggregate("ORD-2", StateDeleted, "Luis", now),
		testAggregate("ORD-3", StateToPack, "Marta", now),
	}

	tests := []struct {
		name           string
		includeDeleted bool
		wantCodes      []string
	}{
		{
			name:           "hideDeletedByDefault",
			includeDeleted: false,
			wantCodes:      []string{"ORD-1", "ORD-3"},
		},
		{
			name:           "includeDeleted",
			includeDeleted: true,
			wantCodes:      []string{"ORD-1", "ORD-2", "ORD-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(aggs, ViewParams{IncludeDeleted: tt.includeDeleted})
			assertCodes(t, got, tt.wantCodes)
		})
	}
}

func TestProjectSearch(t *testing.T) {
	now := time.Now()
	aggs := []*OrderAggregate{
		testAggregate("ORD-100", StateNew, "Ana María", now,
			LineItem{SKU: "CAM-01", Product: "Camiseta azul"}),
		testAggregate("ORD-200", StateNew, "Luis Gómez", now,
			LineItem{SKU: "PAN-02", Product: "Pantalón"}),
		testAggregate("ORD-300", StateNew, "Marta", now),
	}

	tests := []struct {
		name      string
		search    string
		wantCodes []string
	}{
		{
			name:      "matchesCode",
			search:    "ord-2",
			wantCodes: []string{"ORD-200"},
		},
		{
			name:      "matchesClientNameCaseInsensitive",
			search:    "ana m",
			wantCodes: []string{"ORD-100"},
		},
		{
			name:      "matchesProduct",
			search:    "camiseta",
			wantCodes: []string{"ORD-100"},
		},
		{
			name:      "matchesSKU",
			search:    "pan-02",
			wantCodes: []string{"ORD-200"},
		},
		{
			name:      "whitespaceOnlyMatchesAll",
			search:    "   ",
			wantCodes: []string{"ORD-100", "ORD-200", "ORD-300"},
		},
		{
			name:      "noMatch",
			search:    "zapato",
			wantCodes: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(aggs, ViewParams{Search: tt.search})
			assertCodes(t, got, tt.wantCodes)
		})
	}
}

func TestProjectStateFilter(t *testing.T) {
	now := time.Now()
	aggs := []*OrderAggregate{
		testAggregate("ORD-1", StateNew, "Ana", now),
		testAggregate("ORD-2", StateToPack, "Luis", now),
		testAggregate("ORD-3", StateNew, "Marta", now),
	}

	got := Project(aggs, ViewParams{State: StateNew})
	assertCodes(t, got, []string{"ORD-1", "ORD-3"})
}

func TestProjectDateRange(t *testing.T) {
	day := func(d int, hour, min int) time.Time {
		return time.Date(2026, time.March, d, hour, min, 30, 0, time.UTC)
	}
	aggs := []*OrderAggregate{
		testAggregate("ORD-1", StateNew, "Ana", day(1, 8, 0)),
		testAggregate("ORD-2", StateNew, "Luis", day(2, 12, 0)),
		testAggregate("ORD-3", StateNew, "Marta", day(3, 23, 59)),
		testAggregate("ORD-4", StateNew, "Pedro", day(4, 0, 0)),
	}

	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		params     ViewParams
		wantCodes  []string
	}{
		{
			name:      "bothBoundsRequired",
			params:    ViewParams{From: &from},
			wantCodes: []string{"ORD-1", "ORD-2", "ORD-3", "ORD-4"},
		},
		{
			name:      "defaultClocksCoverWholeDays",
			params:    ViewParams{From: &from, To: &to},
			wantCodes: []string{"ORD-2", "ORD-3"},
		},
		{
			name: "clockNarrowsRange",
			params: ViewParams{
				From:       &from,
				To:         &to,
				StartClock: "10:00",
				EndClock:   "13:00",
			},
			wantCodes: []string{"ORD-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(aggs, tt.params)
			assertCodes(t, got, tt.wantCodes)
		})
	}
}

func TestProjectEndOfRangeMinuteIsInclusive(t *testing.T) {
	createdAt := time.Date(2026, time.March, 3, 23, 59, 59, 0, time.UTC)
	aggs := []*OrderAggregate{
		testAggregate("ORD-1", StateNew, "Ana", createdAt),
	}

	from := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	to := from

	got := Project(aggs, ViewParams{From: &from, To: &to})
	assertCodes(t, got, []string{"ORD-1"})
}

func TestProjectSort(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 10, 0, 0, 0, time.UTC)
	}
	aggs := []*OrderAggregate{
		testAggregate("ORD-2", StateNew, "Luis", day(2)),
		testAggregate("ORD-1", StateNew, "Ana", day(1)),
		testAggregate("ORD-3", StateNew, "Marta", day(3)),
	}

	tests := []struct {
		name      string
		direction SortDirection
		wantCodes []string
	}{
		{
			name:      "ascendingByDefault",
			direction: "",
			wantCodes: []string{"ORD-1", "ORD-2", "ORD-3"},
		},
		{
			name:      "descending",
			direction: SortDesc,
			wantCodes: []string{"ORD-3", "ORD-2", "ORD-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(aggs, ViewParams{Direction: tt.direction})
			assertCodes(t, got, tt.wantCodes)
		})
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 10, 0, 0, 0, time.UTC)
	}
	aggs := []*OrderAggregate{
		testAggregate("ORD-2", StateNew, "Luis", day(2)),
		testAggregate("ORD-1", StateNew, "Ana", day(1)),
	}

	Project(aggs, ViewParams{Direction: SortDesc})

	if aggs[0].Code != "ORD-2" || aggs[1].Code != "ORD-1" {
		t.Error("Project() mutated the input slice order")
	}
}

func TestStateCounts(t *testing.T) {
	now := time.Now()
	aggs := []*OrderAggregate{
		testAggregate("ORD-1", StateNew, "Ana", now),
		testAggregate("ORD-2", StateNew, "Luis", now),
		testAggregate("ORD-3", StateToPack, "Marta", now),
		testAggregate("ORD-4", StateDeleted, "Pedro", now),
	}

	tests := []struct {
		name           string
		includeDeleted bool
		want           map[string]int
	}{
		{
			name:           "excludesDeleted",
			includeDeleted: false,
			want:           map[string]int{StateNew: 2, StateToPack: 1},
		},
		{
			name:           "includesDeleted",
			includeDeleted: true,
			want:           map[string]int{StateNew: 2, StateToPack: 1, StateDeleted: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StateCounts(aggs, tt.includeDeleted)
			if len(got) != len(tt.want) {
				t.Fatalf("StateCounts() = %v, want %v", got, tt.want)
			}
			for state, count := range tt.want {
				if got[state] != count {
					t.Errorf("StateCounts()[%q] = %d, want %d", state, got[state], count)
				}
			}
		})
	}
}

func assertCodes(t *testing.T, got []*OrderAggregate, want []string) {
	t.Helper()
	if len(got) != len(want) {
		gotCodes := make([]string, len(got))
		for i, a := range got {
			gotCodes[i] = a.Code
		}
		t.Fatalf("got codes %v, want %v", gotCodes, want)
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Errorf("result[%d].Code = %q, want %q", i, got[i].Code, code)
		}
	}
}
