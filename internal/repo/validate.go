package repo

import (
	"context"
	"regexp"
	"strings"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cms"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Slugify lowercases title and joins its words with dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func validateProduct(_ context.Context, p *db.Product) error {
	var c cms.Checks
	c.NotBlank(p.Title, "title")
	c.Require(p.Price.IsPositive(), "price", "must be greater than 0")
	c.Require(!p.OriginalPrice.Valid || p.OriginalPrice.Decimal.IsPositive(), "original_price", "must be greater than 0")
	c.Require(p.ProductType.IsValid(), "product_type", "must be one of book, merchandise, print, digital, other")
	c.Require(p.Section.IsValid(), "section", "must be one of new-releases, best-sellers, leaving-soon, featured, trending")
	c.Require(p.CoinPrice == nil || *p.CoinPrice > 0, "coin_price", "must be greater than 0")
	c.Require(!p.CanUnlockWithCoins || p.CoinPrice != nil, "coin_price", "is required to unlock with coins")
	if p.ParentID != nil {
		c.Require(*p.ParentID != p.ID, "parent_id", "cannot reference itself")
		c.Require(p.VolumeNumber != nil && *p.VolumeNumber > 0, "volume_number", "is required for volumes")
	}
	return c.Err()
}

func (c *Content) validateSeries(ctx context.Context, s *db.Series) error {
	if strings.TrimSpace(s.Slug) == "" {
		s.Slug = Slugify(s.Title)
	}

	var checks cms.Checks
	checks.NotBlank(s.Title, "title")
	checks.Require(slugPattern.MatchString(s.Slug), "slug", "must be lowercase words separated by dashes")
	checks.Require(s.Status.IsValid(), "status", "must be one of ongoing, completed, hiatus, cancelled")
	checks.Require(s.AgeRating.IsValid(), "age_rating", "must be one of all, teen, mature")
	if err := checks.Err(); err != nil {
		return err
	}

	all, err := c.Series.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID != s.ID && other.Slug == s.Slug {
			checks.Unique(false, "slug", "is already used by "+other.Title)
		}
	}
	return checks.Err()
}

func validateChapter(_ context.Context, ch *db.Chapter) error {
	var c cms.Checks
	c.NotBlank(ch.SeriesID, "series_id")
	c.NotBlank(ch.Title, "title")
	c.Require(ch.Number > 0, "chapter_number", "must be greater than 0")
	c.Require(ch.IsFree || ch.CoinPrice > 0, "coin_price", "must be greater than 0 for paid chapters")
	return c.Err()
}

func validateCreator(_ context.Context, cr *db.Creator) error {
	var c cms.Checks
	c.NotBlank(cr.Name, "name")
	return c.Err()
}

func validateSeriesCreator(_ context.Context, sc *db.SeriesCreator) error {
	var c cms.Checks
	c.NotBlank(sc.SeriesID, "series_id")
	c.NotBlank(sc.CreatorID, "creator_id")
	c.Require(sc.Role.IsValid(), "role", "is not a known creator role")
	return c.Err()
}

func validateHeroBanner(_ context.Context, b *db.HeroBanner) error {
	var c cms.Checks
	c.NotBlank(b.Title, "title")
	c.NotBlank(b.ImageURL, "image_url")
	return c.Err()
}

func validateAnnouncement(_ context.Context, a *db.Announcement) error {
	var c cms.Checks
	c.NotBlank(a.Title, "title")
	if a.StartsAt != nil && a.EndsAt != nil {
		c.Require(!a.EndsAt.Before(*a.StartsAt), "ends_at", "must not be before starts_at")
	}
	return c.Err()
}

func validatePageSection(_ context.Context, p *db.PageSection) error {
	var c cms.Checks
	c.NotBlank(p.PageName, "page_name")
	c.NotBlank(p.SectionName, "section_name")
	return c.Err()
}

func validateCoinPackage(_ context.Context, p *db.CoinPackage) error {
	var c cms.Checks
	c.NotBlank(p.Name, "name")
	c.Require(p.Coins > 0, "coins", "must be greater than 0")
	c.Require(p.BonusCoins >= 0, "bonus_coins", "cannot be negative")
	c.Require(p.Price.IsPositive(), "price", "must be greater than 0")
	if p.Currency == "" {
		p.Currency = "USD"
	}
	c.Require(len(p.Currency) == 3, "currency", "must be a 3 letter code")
	return c.Err()
}

func validateFeaturedConfig(_ context.Context, f *db.FeaturedSeriesConfig) error {
	var c cms.Checks
	c.NotBlank(f.Title, "title")
	c.NotBlank(f.PrimaryButtonText, "primary_button_text")
	return c.Err()
}

func validateFeaturedBadge(_ context.Context, b *db.FeaturedSeriesBadge) error {
	var c cms.Checks
	c.NotBlank(b.Name, "name")
	return c.Err()
}

func validateTemplate(_ context.Context, t *db.FeaturedSeriesTemplate) error {
	var c cms.Checks
	c.NotBlank(t.Name, "name")
	return c.Err()
}

func validateShopAllHero(_ context.Context, h *db.ShopAllHero) error {
	var c cms.Checks
	c.NotBlank(h.Title, "title")
	return c.Err()
}

func validateShopAllFilter(_ context.Context, f *db.ShopAllFilter) error {
	var c cms.Checks
	c.NotBlank(f.Name, "name")
	c.Require(f.FilterType.IsValid(), "filter_type", "is not a known filter type")
	if f.FilterType == db.FilterSection {
		c.Require(db.Section(f.Value).IsValid(), "value", "is not a known section")
	}
	if f.FilterType == db.FilterProductType {
		c.Require(db.ProductType(f.Value).IsValid(), "value", "is not a known product type")
	}
	return c.Err()
}

func validateShopAllSort(_ context.Context, s *db.ShopAllSort) error {
	var c cms.Checks
	c.NotBlank(s.Name, "name")
	c.NotBlank(s.SortKey, "sort_key")
	return c.Err()
}

func validateOrder(_ context.Context, o *db.Order) error {
	var c cms.Checks
	c.NotBlank(o.UserID, "user_id")
	c.Require(o.Status.IsValid(), "status", "is not a known order status")
	c.Require(len(o.Items) > 0, "items", "must contain at least one item")
	c.Require(!o.Total.IsNegative(), "total", "cannot be negative")
	return c.Err()
}
