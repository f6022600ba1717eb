package catalog

import (
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
)

// ProductEntry exposes genres and the category as facets.
func ProductEntry(p db.Product) Entry {
	facets := make([]string, 0, len(p.Genres)+1)
	facets = append(facets, p.Genres...)
	if p.Category != "" {
		facets = append(facets, p.Category)
	}
	return Entry{
		Title:        p.Title,
		Description:  p.Description,
		Facets:       facets,
		Tags:         p.Tags,
		CreatedAt:    p.CreatedAt,
		Price:        p.Price,
		DisplayOrder: p.DisplayOrder,
	}
}

func SeriesEntry(s db.Series) Entry {
	return Entry{
		Title:        s.Title,
		Description:  s.Description,
		Facets:       s.Genres,
		Tags:         s.Tags,
		CreatedAt:    s.CreatedAt,
		DisplayOrder: s.DisplayOrder,
	}
}

// ProductScope selects the products a storefront grid starts from.
type ProductScope struct {
	Section    db.Section
	Type       db.ProductType
	ActiveOnly bool
	// TopLevel hides volumes, which are listed under their parent.
	TopLevel bool
}

func (s ProductScope) Select(products []db.Product) []db.Product {
	out := make([]db.Product, 0, len(products))
	for _, p := range products {
		if s.ActiveOnly && !p.IsActive {
			continue
		}
		if s.Section != "" && p.Section != s.Section {
			continue
		}
		if s.Type != "" && p.ProductType != s.Type {
			continue
		}
		if s.TopLevel && p.ParentID != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ActiveSeries drops inactive series.
func ActiveSeries(series []db.Series) []db.Series {
	out := make([]db.Series, 0, len(series))
	for _, s := range series {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}
