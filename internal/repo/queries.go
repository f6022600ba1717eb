package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
)

// Volumes returns the volumes of parentID ordered by volume number.
func (c *Content) Volumes(ctx context.Context, parentID string) ([]db.Product, error) {
	all, err := c.Products.List(ctx)
	if err != nil {
		return nil, err
	}
	var vols []db.Product
	for _, p := range all {
		if p.ParentID != nil && *p.ParentID == parentID {
			vols = append(vols, p)
		}
	}
	sort.SliceStable(vols, func(i, j int) bool {
		return volumeNumber(vols[i]) < volumeNumber(vols[j])
	})
	return vols, nil
}

func volumeNumber(p db.Product) int {
	if p.VolumeNumber == nil {
		return 0
	}
	return *p.VolumeNumber
}

// SeriesByKey finds a series by id or slug.
func (c *Content) SeriesByKey(ctx context.Context, key string) (db.Series, error) {
	all, err := c.Series.List(ctx)
	if err != nil {
		return db.Series{}, err
	}
	for _, s := range all {
		if s.ID == key || s.Slug == key {
			return s, nil
		}
	}
	return db.Series{}, fmt.Errorf("%w: %s/%s", fallback.ErrNotFound, db.CollectionSeries, key)
}

// ChaptersForSeries returns the series' chapters ordered by chapter number.
func (c *Content) ChaptersForSeries(ctx context.Context, seriesID string, activeOnly bool) ([]db.Chapter, error) {
	all, err := c.Chapters.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []db.Chapter
	for _, ch := range all {
		if ch.SeriesID != seriesID || (activeOnly && !ch.IsActive) {
			continue
		}
		out = append(out, ch)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// Credit is a creator as credited on one series.
type Credit struct {
	Creator   db.Creator     `json:"creator"`
	Role      db.CreatorRole `json:"role"`
	IsPrimary bool           `json:"is_primary"`
}

// CreditsForSeries joins the series' creator assignments with the creators.
// Assignments whose creator no longer exists are skipped.
func (c *Content) CreditsForSeries(ctx context.Context, seriesID string) ([]Credit, error) {
	links, err := c.SeriesCreators.List(ctx)
	if err != nil {
		return nil, err
	}
	creators, err := c.Creators.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]db.Creator, len(creators))
	for _, cr := range creators {
		byID[cr.ID] = cr
	}

	var credits []Credit
	for _, l := range links {
		if l.SeriesID != seriesID {
			continue
		}
		cr, ok := byID[l.CreatorID]
		if !ok {
			continue
		}
		credits = append(credits, Credit{Creator: cr, Role: l.Role, IsPrimary: l.IsPrimary})
	}
	// primary creators first, assignment order otherwise
	sort.SliceStable(credits, func(i, j int) bool { return credits[i].IsPrimary && !credits[j].IsPrimary })
	return credits, nil
}

type FeaturedSeries struct {
	Configs []db.FeaturedSeriesConfig `json:"configs"`
	Badges  []db.FeaturedSeriesBadge  `json:"badges"`
}

// ActiveFeaturedSeries returns the active configs and badges.
func (c *Content) ActiveFeaturedSeries(ctx context.Context) (FeaturedSeries, error) {
	configs, err := c.FeaturedConfigs.List(ctx)
	if err != nil {
		return FeaturedSeries{}, err
	}
	badges, err := c.FeaturedBadges.List(ctx)
	if err != nil {
		return FeaturedSeries{}, err
	}
	out := FeaturedSeries{Configs: []db.FeaturedSeriesConfig{}, Badges: []db.FeaturedSeriesBadge{}}
	for _, cfg := range configs {
		if cfg.IsActive {
			out.Configs = append(out.Configs, cfg)
		}
	}
	for _, b := range badges {
		if b.IsActive {
			out.Badges = append(out.Badges, b)
		}
	}
	return out, nil
}

// ShopAll is the content of the shop-all page header and controls.
type ShopAll struct {
	Hero    *db.ShopAllHero    `json:"hero"`
	Filters []db.ShopAllFilter `json:"filters"`
	Sorts   []db.ShopAllSort   `json:"sorts"`
}

// DefaultSort returns the sort key flagged as default, or "".
func (s ShopAll) DefaultSort() string {
	for _, o := range s.Sorts {
		if o.IsDefault {
			return o.SortKey
		}
	}
	return ""
}

func (c *Content) ActiveShopAll(ctx context.Context) (ShopAll, error) {
	heroes, err := c.ShopAllHeroes.List(ctx)
	if err != nil {
		return ShopAll{}, err
	}
	filters, err := c.ShopAllFilters.List(ctx)
	if err != nil {
		return ShopAll{}, err
	}
	sorts, err := c.ShopAllSorts.List(ctx)
	if err != nil {
		return ShopAll{}, err
	}

	out := ShopAll{Filters: []db.ShopAllFilter{}, Sorts: []db.ShopAllSort{}}
	for i := range heroes {
		if heroes[i].IsActive {
			out.Hero = &heroes[i]
			break
		}
	}
	for _, f := range filters {
		if f.IsActive {
			out.Filters = append(out.Filters, f)
		}
	}
	for _, s := range sorts {
		if s.IsActive {
			out.Sorts = append(out.Sorts, s)
		}
	}
	return out, nil
}

// Page returns the active sections of one marketing page.
func (c *Content) Page(ctx context.Context, page string) ([]db.PageSection, error) {
	all, err := c.PageSections.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []db.PageSection{}
	for _, s := range all {
		if s.PageName == page && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Content) ActiveHeroBanners(ctx context.Context) ([]db.HeroBanner, error) {
	all, err := c.HeroBanners.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []db.HeroBanner{}
	for _, b := range all {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

// LiveAnnouncements returns active announcements whose window contains now.
func (c *Content) LiveAnnouncements(ctx context.Context, now time.Time) ([]db.Announcement, error) {
	all, err := c.Announcements.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []db.Announcement{}
	for _, a := range all {
		if !a.IsActive {
			continue
		}
		if a.StartsAt != nil && now.Before(*a.StartsAt) {
			continue
		}
		if a.EndsAt != nil && now.After(*a.EndsAt) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Stats counts products for the catalog size gauges.
func (c *Content) Stats(ctx context.Context) (total, active int, err error) {
	all, err := c.Products.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list products: %w", err)
	}
	for _, p := range all {
		if p.IsActive {
			active++
		}
	}
	return len(all), active, nil
}
