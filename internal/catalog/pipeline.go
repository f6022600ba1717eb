package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort keys understood by Apply. Any other key keeps the filtered order.
const (
	SortAZ           = "A-Z"
	SortZA           = "Z-A"
	SortNewest       = "Newest First"
	SortOldest       = "Oldest First"
	SortPriceLowHigh = "Price: Low to High"
	SortPriceHighLow = "Price: High to Low"
	SortDisplayOrder = "Display Order"
)

// SortKeys lists the supported keys in the order storefronts offer them.
var SortKeys = []string{SortAZ, SortZA, SortNewest, SortOldest, SortPriceLowHigh, SortPriceHighLow, SortDisplayOrder}

// Strategy decides whether a selected filter value matches a record value.
type Strategy int

const (
	// Exact compares case-insensitively for equality.
	Exact Strategy = iota
	// Substring matches when the record value contains the filter.
	Substring
	// Bidirectional matches when either value contains the other, so
	// "Fantasy" matches "High Fantasy" and the reverse.
	Bidirectional
)

func (s Strategy) String() string {
	switch s {
	case Exact:
		return "exact"
	case Substring:
		return "substring"
	case Bidirectional:
		return "bidirectional"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a configuration value onto a Strategy.
func ParseStrategy(v string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "exact":
		return Exact, true
	case "substring":
		return Substring, true
	case "bidirectional":
		return Bidirectional, true
	}
	return Exact, false
}

func (s Strategy) match(filter, value string) bool {
	f, v := strings.ToLower(filter), strings.ToLower(value)
	switch s {
	case Substring:
		return strings.Contains(v, f)
	case Bidirectional:
		return strings.Contains(v, f) || strings.Contains(f, v)
	default:
		return f == v
	}
}

// Match picks one strategy per facet type. Facets are genres and categories.
type Match struct {
	Facet Strategy
	Tag   Strategy
}

// DefaultMatch is shared by products and series.
var DefaultMatch = Match{Facet: Exact, Tag: Bidirectional}

// Query describes one storefront view of a collection.
type Query struct {
	Search  string
	Filters []string
	Sort    string
	Match   Match
}

// Entry is the pipeline's view of a record.
type Entry struct {
	Title        string
	Description  string
	Facets       []string
	Tags         []string
	CreatedAt    time.Time
	Price        decimal.Decimal
	DisplayOrder int
}

// Apply narrows items by search and filters, then sorts them by q.Sort.
// items is not modified. Apply is deterministic and idempotent.
func Apply[T any](items []T, view func(T) Entry, q Query) []T {
	type row struct {
		item  T
		entry Entry
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	filters := nonBlank(q.Filters)

	rows := make([]row, 0, len(items))
	for _, item := range items {
		e := view(item)
		if term != "" && !searchMatches(e, term) {
			continue
		}
		if len(filters) > 0 && !filterMatches(e, filters, q.Match) {
			continue
		}
		rows = append(rows, row{item: item, entry: e})
	}

	var less func(a, b Entry) bool
	switch q.Sort {
	case SortAZ, SortZA:
		col := collate.New(language.English, collate.IgnoreCase)
		if q.Sort == SortAZ {
			less = func(a, b Entry) bool { return col.CompareString(a.Title, b.Title) < 0 }
		} else {
			less = func(a, b Entry) bool { return col.CompareString(a.Title, b.Title) > 0 }
		}
	case SortNewest:
		less = func(a, b Entry) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		less = func(a, b Entry) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceLowHigh:
		less = func(a, b Entry) bool { return a.Price.LessThan(b.Price) }
	case SortPriceHighLow:
		less = func(a, b Entry) bool { return a.Price.GreaterThan(b.Price) }
	case SortDisplayOrder:
		less = func(a, b Entry) bool { return a.DisplayOrder < b.DisplayOrder }
	}
	if less != nil {
		sort.SliceStable(rows, func(i, j int) bool { return less(rows[i].entry, rows[j].entry) })
	}

	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out
}

func searchMatches(e Entry, term string) bool {
	if strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Description), term) {
		return true
	}
	for _, f := range e.Facets {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	for _, t := range e.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func filterMatches(e Entry, filters []string, m Match) bool {
	for _, f := range filters {
		for _, facet := range e.Facets {
			if facet != "" && m.Facet.match(f, facet) {
				return true
			}
		}
		for _, tag := range e.Tags {
			if tag != "" && m.Tag.match(f, tag) {
				return true
			}
		}
	}
	return false
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Empty-state messages shown by list views.
const (
	EmptyCollection = "No items yet."
	EmptyFiltered   = "No items match the current filters."
)

// EmptyState returns the message for a view that matched nothing, or "" when
// there are matches. total is the collection size before the pipeline ran.
func EmptyState(total, matched int) string {
	switch {
	case matched > 0:
		return ""
	case total == 0:
		return EmptyCollection
	default:
		return EmptyFiltered
	}
}
