package order

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ViewParams is the full set of list-view filters. The zero value means: hide
// soft-deleted orders, no search, all states, no date range, ascending by
// creation timestamp.
type ViewParams struct {
	IncludeDeleted bool
	Search         string
	State          string
	From           *time.Time
	To             *time.Time
	// StartClock and EndClock are "HH:MM" times of day applied to From and
	// To. They default to 00:00 and 23:59 (the range end is inclusive up to
	// 23:59:59.999).
	StartClock string
	EndClock   string
	Direction  SortDirection
}

// Project applies the filter pipeline to an aggregate collection: visibility,
// date range, free-text search, state filter, then sort. It is a pure
// function of its inputs and is re-applied on every parameter change.
func Project(aggs []*OrderAggregate, p ViewParams) []*OrderAggregate {
	base := visible(aggs, p.IncludeDeleted)

	if p.From != nil && p.To != nil {
		start, end := rangeBounds(*p.From, *p.To, p.StartClock, p.EndClock)
		filtered := base[:0:0]
		for _, a := range base {
			t := a.CreatedAt
			if !t.Before(start) && !t.After(end) {
				filtered = append(filtered, a)
			}
		}
		base = filtered
	}

	if q := strings.ToLower(strings.TrimSpace(p.Search)); q != "" {
		filtered := base[:0:0]
		for _, a := range base {
			if matchesSearch(a, q) {
				filtered = append(filtered, a)
			}
		}
		base = filtered
	}

	if p.State != "" {
		filtered := base[:0:0]
		for _, a := range base {
			if a.State == p.State {
				filtered = append(filtered, a)
			}
		}
		base = filtered
	}

	sorted := make([]*OrderAggregate, len(base))
	copy(sorted, base)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	if p.Direction == SortDesc {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	return sorted
}

// StateCounts tallies aggregates per lifecycle state over the visibility
// filtered collection only, for use as filter-chip badges.
func StateCounts(aggs []*OrderAggregate, includeDeleted bool) map[string]int {
	counts := make(map[string]int)
	for _, a := range visible(aggs, includeDeleted) {
		counts[a.State]++
	}
	return counts
}

func visible(aggs []*OrderAggregate, includeDeleted bool) []*OrderAggregate {
	if includeDeleted {
		return aggs
	}
	out := make([]*OrderAggregate, 0, len(aggs))
	for _, a := range aggs {
		if !a.IsDeleted() {
			out = append(out, a)
		}
	}
	return out
}

func matchesSearch(a *OrderAggregate, q string) bool {
	if strings.Contains(strings.ToLower(a.Code), q) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Client.Name), q) {
		return true
	}
	for _, it := range a.Items {
		if strings.Contains(strings.ToLower(it.Product), q) || strings.Contains(strings.ToLower(it.SKU), q) {
			return true
		}
	}
	return false
}

// rangeBounds expands two dates plus optional "HH:MM" clocks into an
// inclusive [start, end] range. The start second is 0, the end second is
// 59.999 so that the whole closing minute is covered.
func rangeBounds(from, to time.Time, startClock, endClock string) (time.Time, time.Time) {
	sh, sm := parseClock(startClock, 0, 0)
	eh, em := parseClock(endClock, 23, 59)

	start := time.Date(from.Year(), from.Month(), from.Day(), sh, sm, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), eh, em, 59, int(999*time.Millisecond), to.Location())
	return start, end
}

func parseClock(clock string, defHour, defMin int) (int, int) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return defHour, defMin
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		h = defHour
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		m = defMin
	}
	return h, m
}
