package db

import (
	"gorm.io/gorm"
)

// Models lists every table owned by the storefront, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Product{},
		&Series{},
		&Chapter{},
		&Creator{},
		&SeriesCreator{},
		&HeroBanner{},
		&Announcement{},
		&PageSection{},
		&CoinPackage{},
		&FeaturedSeriesConfig{},
		&FeaturedSeriesBadge{},
		&FeaturedSeriesTemplate{},
		&ShopAllHero{},
		&ShopAllFilter{},
		&ShopAllSort{},
		&Order{},
		&Profile{},
		&UserRole{},
		&CoinTransaction{},
		&CoinUnlock{},
	}
}

// RunMigrations runs all database migrations
func RunMigrations(db *DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := createIndexes(db.DB); err != nil {
			return err
		}
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// storefront grids read active rows of a section in display order
		`CREATE INDEX IF NOT EXISTS idx_books_active_section ON books(section, display_order) WHERE is_active = true`,

		`CREATE INDEX IF NOT EXISTS idx_books_title_search ON books USING gin(to_tsvector('english', title))`,

		`CREATE INDEX IF NOT EXISTS idx_chapters_series_number ON chapters(series_id, number)`,

		`CREATE INDEX IF NOT EXISTS idx_coin_tx_user_created ON coin_transactions(user_id, created_at DESC)`,

		// balance can never go negative; spends rely on it as a second guard
		`DO $$ BEGIN
			ALTER TABLE profiles ADD CONSTRAINT chk_profiles_coin_balance CHECK (coin_balance >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}

	return nil
}
