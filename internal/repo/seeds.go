package repo

import (
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/catalog"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/shopspring/decimal"
)

// Default content served by a fresh install before an admin edits anything.

func defaultCoinPackages() []db.CoinPackage {
	pkg := func(order int, name string, coins, bonus int, price string, popular, best bool) db.CoinPackage {
		return db.CoinPackage{
			Meta:        db.Meta{DisplayOrder: order},
			Name:        name,
			Coins:       coins,
			BonusCoins:  bonus,
			Price:       decimal.RequireFromString(price),
			Currency:    "USD",
			IsPopular:   popular,
			IsBestValue: best,
			IsActive:    true,
		}
	}
	return []db.CoinPackage{
		pkg(1, "Starter Pack", 100, 0, "0.99", false, false),
		pkg(2, "Reader Pack", 500, 50, "4.99", true, false),
		pkg(3, "Collector Pack", 1000, 150, "9.99", false, false),
		pkg(4, "Mega Pack", 2500, 500, "19.99", false, true),
	}
}

func defaultFeaturedConfigs() []db.FeaturedSeriesConfig {
	return []db.FeaturedSeriesConfig{
		{
			Meta:                db.Meta{DisplayOrder: 1},
			Title:               "Discover Your Next Favorite Series",
			Description:         "Hand-picked comics and manga from our editors, updated every week.",
			PrimaryButtonText:   "Start Reading",
			PrimaryButtonLink:   "/comics",
			SecondaryButtonText: "Browse Shop",
			SecondaryButtonLink: "/shop-all",
			IsActive:            true,
		},
	}
}

func defaultFeaturedBadges() []db.FeaturedSeriesBadge {
	names := []string{"New Chapter", "Trending", "Staff Pick", "Completed"}
	badges := make([]db.FeaturedSeriesBadge, len(names))
	for i, n := range names {
		badges[i] = db.FeaturedSeriesBadge{Meta: db.Meta{DisplayOrder: i + 1}, Name: n, IsActive: true}
	}
	return badges
}

func defaultShopAllHeroes() []db.ShopAllHero {
	return []db.ShopAllHero{{
		Meta:              db.Meta{DisplayOrder: 1},
		Title:             "Shop All",
		Subtitle:          "Books, merchandise and prints",
		Description:       "Everything in the store in one place.",
		PrimaryButtonText: "Browse New Releases",
		PrimaryButtonLink: "/shop-all?section=new-releases",
		IsActive:          true,
	}}
}

func defaultShopAllFilters() []db.ShopAllFilter {
	f := func(order int, name string, typ db.FilterType, value string) db.ShopAllFilter {
		return db.ShopAllFilter{Meta: db.Meta{DisplayOrder: order}, Name: name, FilterType: typ, Value: value, IsActive: true}
	}
	return []db.ShopAllFilter{
		f(1, "Action", db.FilterGenre, "Action"),
		f(2, "Adventure", db.FilterGenre, "Adventure"),
		f(3, "Fantasy", db.FilterGenre, "Fantasy"),
		f(4, "Romance", db.FilterGenre, "Romance"),
		f(5, "Books", db.FilterProductType, string(db.ProductTypeBook)),
		f(6, "Merchandise", db.FilterProductType, string(db.ProductTypeMerchandise)),
		f(7, "Prints", db.FilterProductType, string(db.ProductTypePrint)),
	}
}

func defaultShopAllSorts() []db.ShopAllSort {
	sorts := make([]db.ShopAllSort, 0, len(catalog.SortKeys))
	for i, key := range catalog.SortKeys {
		sorts = append(sorts, db.ShopAllSort{
			Meta:      db.Meta{DisplayOrder: i + 1},
			Name:      key,
			SortKey:   key,
			IsDefault: key == catalog.SortNewest,
			IsActive:  true,
		})
	}
	return sorts
}

// Page names with editable sections.
const (
	PageAboutUs    = "about-us"
	PageOurJourney = "our-journey"
)

func defaultPageSections() []db.PageSection {
	s := func(order int, page, section, title, content string) db.PageSection {
		return db.PageSection{
			Meta:        db.Meta{DisplayOrder: order},
			PageName:    page,
			SectionName: section,
			Title:       title,
			Content:     content,
			IsActive:    true,
		}
	}
	return []db.PageSection{
		s(1, PageAboutUs, "hero", "About Us", "We are a small team of readers building a home for independent comics."),
		s(2, PageAboutUs, "mission", "Our Mission", "Connect creators with the readers who will love their work."),
		s(3, PageAboutUs, "team", "The Team", "Editors, designers and collectors who read everything we sell."),
		s(1, PageOurJourney, "hero", "Our Journey", "From a market stall to an online shop."),
		s(2, PageOurJourney, "timeline", "Milestones", "First print run, first convention, first thousand readers."),
	}
}
