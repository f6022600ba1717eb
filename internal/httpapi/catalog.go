package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/catalog"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
)

// queryFrom reads q, filter, sort, facet_match and tag_match. filter may be
// repeated or comma separated.
func queryFrom(r *http.Request, defaultSort string) catalog.Query {
	v := r.URL.Query()
	q := catalog.Query{
		Search: v.Get("q"),
		Sort:   v.Get("sort"),
		Match:  catalog.DefaultMatch,
	}
	if q.Sort == "" {
		q.Sort = defaultSort
	}
	for _, raw := range v["filter"] {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				q.Filters = append(q.Filters, f)
			}
		}
	}
	if m, ok := catalog.ParseStrategy(v.Get("facet_match")); ok {
		q.Match.Facet = m
	}
	if m, ok := catalog.ParseStrategy(v.Get("tag_match")); ok {
		q.Match.Tag = m
	}
	return q
}

func listOf[T any](all, matched []T) listResponse {
	return listResponse{
		Items:        matched,
		Total:        len(all),
		Matched:      len(matched),
		EmptyMessage: catalog.EmptyState(len(all), len(matched)),
	}
}

func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	scope := catalog.ProductScope{
		Section:    db.Section(v.Get("section")),
		Type:       db.ProductType(v.Get("type")),
		ActiveOnly: v.Get("active") != "false",
		TopLevel:   v.Get("volumes") != "true",
	}
	if scope.Section != "" && !scope.Section.IsValid() {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("unknown section %q", scope.Section))
		return
	}
	if scope.Type != "" && !scope.Type.IsValid() {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("unknown product type %q", scope.Type))
		return
	}

	all, err := s.content.Products.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scoped := scope.Select(all)
	writeJSON(w, http.StatusOK, listOf(scoped, catalog.Apply(scoped, catalog.ProductEntry, queryFrom(r, ""))))
}

func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.content.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) ListVolumes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.content.Products.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	volumes, err := s.content.Volumes(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, volumes)
}

// GetMerchandise only resolves merchandise products.
func (s *Server) GetMerchandise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.content.Products.Get(r.Context(), id)
	if err == nil && (p.ProductType != db.ProductTypeMerchandise || !p.IsActive) {
		err = fmt.Errorf("%w: merchandise/%s", fallback.ErrNotFound, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) ListSeries(w http.ResponseWriter, r *http.Request) {
	all, err := s.content.Series.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	active := catalog.ActiveSeries(all)
	if r.URL.Query().Get("featured") == "true" {
		featured := make([]db.Series, 0, len(active))
		for _, se := range active {
			if se.IsFeatured {
				featured = append(featured, se)
			}
		}
		active = featured
	}
	writeJSON(w, http.StatusOK, listOf(active, catalog.Apply(active, catalog.SeriesEntry, queryFrom(r, ""))))
}

type seriesDetail struct {
	Series  db.Series     `json:"series"`
	Credits []repo.Credit `json:"credits"`
}

// GetSeries resolves a series by id or slug together with its credits.
func (s *Server) GetSeries(w http.ResponseWriter, r *http.Request) {
	se, err := s.content.SeriesByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	credits, err := s.content.CreditsForSeries(r.Context(), se.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesDetail{Series: se, Credits: credits})
}

func (s *Server) ListChapters(w http.ResponseWriter, r *http.Request) {
	se, err := s.content.SeriesByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	chapters, err := s.content.ChaptersForSeries(r.Context(), se.ID, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (s *Server) GetChapter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ch, err := s.content.Chapters.Get(r.Context(), id)
	if err == nil && !ch.IsActive {
		err = fmt.Errorf("%w: chapters/%s", fallback.ErrNotFound, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) ListCreators(w http.ResponseWriter, r *http.Request) {
	all, err := s.content.Creators.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := []db.Creator{}
	for _, c := range all {
		if c.IsActive {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) FeaturedSeries(w http.ResponseWriter, r *http.Request) {
	fs, err := s.content.ActiveFeaturedSeries(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

type shopAllResponse struct {
	repo.ShopAll
	DefaultSort string `json:"default_sort"`
}

func (s *Server) ShopAll(w http.ResponseWriter, r *http.Request) {
	sa, err := s.content.ActiveShopAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shopAllResponse{ShopAll: sa, DefaultSort: sa.DefaultSort()})
}

func (s *Server) HeroBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := s.content.ActiveHeroBanners(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

func (s *Server) Announcements(w http.ResponseWriter, r *http.Request) {
	live, err := s.content.LiveAnnouncements(r.Context(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, live)
}

func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	sections, err := s.content.Page(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (s *Server) CoinPackages(w http.ResponseWriter, r *http.Request) {
	all, err := s.content.CoinPackages.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := []db.CoinPackage{}
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
