package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Collection names shared by the remote tables and the local fallback documents.
const (
	CollectionBooks                   = "books"
	CollectionSeries                  = "series"
	CollectionChapters                = "chapters"
	CollectionCreators                = "creators"
	CollectionSeriesCreators          = "series_creators"
	CollectionHeroBanners             = "hero_banners"
	CollectionAnnouncements           = "announcements"
	CollectionPageSections            = "page_sections"
	CollectionProfiles                = "profiles"
	CollectionUserRoles               = "user_roles"
	CollectionCoinPackages            = "coin_packages"
	CollectionCoinTransactions        = "coin_transactions"
	CollectionFeaturedSeriesConfigs   = "featured_series_configs"
	CollectionFeaturedSeriesBadges    = "featured_series_badges"
	CollectionFeaturedSeriesTemplates = "featured_series_templates"
	CollectionShopAllHeroes           = "shop_all_heroes"
	CollectionShopAllFilters          = "shop_all_filters"
	CollectionShopAllSorts            = "shop_all_sorts"
	CollectionOrders                  = "orders"
	CollectionUnlocks                 = "coin_unlocks"
)

// Meta carries the columns every admin-curated record has. It is embedded
// in each entity so the fallback store can stamp ids, timestamps and read
// the display order without knowing the concrete type.
type Meta struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DisplayOrder int       `gorm:"not null;default:0;index" json:"display_order"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Record gives generic code access to the embedded Meta.
func (m *Meta) Record() *Meta { return m }

// Product is a book, merchandise or print item. Volumes are products with a
// ParentID and VolumeNumber.
type Product struct {
	Meta
	Title              string              `gorm:"type:varchar(255);not null" json:"title"`
	Author             string              `gorm:"type:varchar(255)" json:"author,omitempty"`
	Description        string              `gorm:"type:text" json:"description,omitempty"`
	Category           string              `gorm:"type:varchar(100);index" json:"category"`
	Genres             []string            `gorm:"serializer:json" json:"genre,omitempty"`
	Price              decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"price"`
	OriginalPrice      decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"original_price"`
	CoinPrice          *int                `json:"coin_price,omitempty"`
	ImageURL           string              `json:"image_url"`
	HoverImageURL      string              `json:"hover_image_url,omitempty"`
	IsNew              bool                `json:"is_new"`
	IsOnSale           bool                `json:"is_on_sale"`
	IsActive           bool                `gorm:"index" json:"is_active"`
	CanUnlockWithCoins bool                `json:"can_unlock_with_coins"`
	Section            Section             `gorm:"type:varchar(32);index" json:"section,omitempty"`
	Tags               []string            `gorm:"serializer:json" json:"tags"`
	ProductType        ProductType         `gorm:"type:varchar(32);index" json:"product_type"`
	SeriesID           *string             `gorm:"type:varchar(64);index" json:"series_id,omitempty"`
	ParentID           *string             `gorm:"type:varchar(64);index" json:"parent_id,omitempty"`
	VolumeNumber       *int                `json:"volume_number,omitempty"`
}

func (Product) TableName() string { return CollectionBooks }

// Series is a comic series; creators are attached through SeriesCreator rows.
type Series struct {
	Meta
	Title          string       `gorm:"type:varchar(255);not null" json:"title"`
	Slug           string       `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description    string       `gorm:"type:text" json:"description,omitempty"`
	CoverImageURL  string       `json:"cover_image_url,omitempty"`
	BannerImageURL string       `json:"banner_image_url,omitempty"`
	Status         SeriesStatus `gorm:"type:varchar(16)" json:"status"`
	AgeRating      AgeRating    `gorm:"type:varchar(16)" json:"age_rating"`
	Genres         []string     `gorm:"serializer:json" json:"genre"`
	Tags           []string     `gorm:"serializer:json" json:"tags"`
	IsFeatured     bool         `json:"is_featured"`
	IsActive       bool         `gorm:"index" json:"is_active"`
}

func (Series) TableName() string { return CollectionSeries }

type Chapter struct {
	Meta
	SeriesID      string     `gorm:"type:varchar(64);not null;index" json:"series_id"`
	Number        float64    `json:"chapter_number"`
	Title         string     `gorm:"type:varchar(255)" json:"title"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	CoverImageURL string     `json:"cover_image_url,omitempty"`
	Pages         []string   `gorm:"serializer:json" json:"pages"`
	IsFree        bool       `json:"is_free"`
	CoinPrice     int        `json:"coin_price"`
	IsActive      bool       `json:"is_active"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

func (Chapter) TableName() string { return CollectionChapters }

type Creator struct {
	Meta
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Bio      string `gorm:"type:text" json:"bio,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Website  string `json:"website,omitempty"`
	IsActive bool   `json:"is_active"`
}

func (Creator) TableName() string { return CollectionCreators }

// SeriesCreator is the role-tagged many-to-many link between series and creators.
type SeriesCreator struct {
	Meta
	SeriesID  string      `gorm:"type:varchar(64);not null;index" json:"series_id"`
	CreatorID string      `gorm:"type:varchar(64);not null;index" json:"creator_id"`
	Role      CreatorRole `gorm:"type:varchar(32);not null" json:"role"`
	IsPrimary bool        `json:"is_primary"`
}

func (SeriesCreator) TableName() string { return CollectionSeriesCreators }

type HeroBanner struct {
	Meta
	Title      string `gorm:"type:varchar(255);not null" json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	ImageURL   string `json:"image_url"`
	LinkURL    string `json:"link_url,omitempty"`
	ButtonText string `json:"button_text,omitempty"`
	IsActive   bool   `json:"is_active"`
}

func (HeroBanner) TableName() string { return CollectionHeroBanners }

type Announcement struct {
	Meta
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	BadgeText   string     `json:"badge_text,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	ButtonText  string     `json:"button_text,omitempty"`
	ButtonLink  string     `json:"button_link,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

func (Announcement) TableName() string { return CollectionAnnouncements }

// PageSection is one block of a marketing page such as "about-us" or "our-journey".
type PageSection struct {
	Meta
	PageName    string            `gorm:"type:varchar(64);not null;index" json:"page_name"`
	SectionName string            `gorm:"type:varchar(64);not null" json:"section_name"`
	Title       string            `gorm:"type:varchar(255)" json:"title"`
	Subtitle    string            `json:"subtitle,omitempty"`
	Content     string            `gorm:"type:text" json:"content"`
	ImageURL    string            `json:"image_url,omitempty"`
	Extra       map[string]string `gorm:"serializer:json" json:"extra,omitempty"`
	IsActive    bool              `json:"is_active"`
}

func (PageSection) TableName() string { return CollectionPageSections }

type CoinPackage struct {
	Meta
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Coins       int             `gorm:"not null" json:"coins"`
	BonusCoins  int             `json:"bonus_coins"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	IsPopular   bool            `json:"is_popular"`
	IsBestValue bool            `json:"is_best_value"`
	IsActive    bool            `json:"is_active"`
}

func (CoinPackage) TableName() string { return CollectionCoinPackages }

// TotalCoins is what a purchase of the package credits.
func (p CoinPackage) TotalCoins() int { return p.Coins + p.BonusCoins }

type FeaturedSeriesConfig struct {
	Meta
	SeriesID            *string `gorm:"type:varchar(64)" json:"series_id,omitempty"`
	Title               string  `gorm:"type:varchar(255);not null" json:"title"`
	Description         string  `gorm:"type:text" json:"description"`
	ImageURL            string  `json:"image_url,omitempty"`
	PrimaryButtonText   string  `json:"primary_button_text"`
	PrimaryButtonLink   string  `json:"primary_button_link"`
	SecondaryButtonText string  `json:"secondary_button_text,omitempty"`
	SecondaryButtonLink string  `json:"secondary_button_link,omitempty"`
	IsActive            bool    `json:"is_active"`
}

func (FeaturedSeriesConfig) TableName() string { return CollectionFeaturedSeriesConfigs }

type FeaturedSeriesBadge struct {
	Meta
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Color    string `gorm:"type:varchar(32)" json:"color,omitempty"`
	IsActive bool   `json:"is_active"`
}

func (FeaturedSeriesBadge) TableName() string { return CollectionFeaturedSeriesBadges }

// FeaturedSeriesTemplate is a named snapshot of all featured-series configs and badges.
type FeaturedSeriesTemplate struct {
	Meta
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `json:"description,omitempty"`
	Snapshot    datatypes.JSON `json:"snapshot"`
}

func (FeaturedSeriesTemplate) TableName() string { return CollectionFeaturedSeriesTemplates }

type ShopAllHero struct {
	Meta
	Title              string `gorm:"type:varchar(255);not null" json:"title"`
	Subtitle           string `json:"subtitle,omitempty"`
	Description        string `gorm:"type:text" json:"description,omitempty"`
	BackgroundImageURL string `json:"background_image_url,omitempty"`
	PrimaryButtonText  string `json:"primary_button_text,omitempty"`
	PrimaryButtonLink  string `json:"primary_button_link,omitempty"`
	IsActive           bool   `json:"is_active"`
}

func (ShopAllHero) TableName() string { return CollectionShopAllHeroes }

type ShopAllFilter struct {
	Meta
	Name       string     `gorm:"type:varchar(100);not null" json:"name"`
	FilterType FilterType `gorm:"type:varchar(32);not null" json:"filter_type"`
	Value      string     `gorm:"type:varchar(100)" json:"value"`
	IsActive   bool       `json:"is_active"`
}

func (ShopAllFilter) TableName() string { return CollectionShopAllFilters }

type ShopAllSort struct {
	Meta
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	SortKey   string `gorm:"type:varchar(64);not null" json:"sort_key"`
	IsDefault bool   `json:"is_default"`
	IsActive  bool   `json:"is_active"`
}

func (ShopAllSort) TableName() string { return CollectionShopAllSorts }

// OrderItem freezes the product fields at checkout time.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	Title       string          `json:"title"`
	ProductType ProductType     `json:"product_type"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Order struct {
	Meta
	UserID        string          `gorm:"type:varchar(64);not null;index" json:"user_id"`
	OrderNumber   string          `gorm:"type:varchar(64);uniqueIndex" json:"order_number"`
	Status        OrderStatus     `gorm:"type:varchar(16);not null" json:"status"`
	Items         []OrderItem     `gorm:"serializer:json" json:"items"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	PaymentMethod string          `gorm:"type:varchar(32)" json:"payment_method"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
}

func (Order) TableName() string { return CollectionOrders }

// Profile is the per-user row holding the coin balance.
type Profile struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email       string    `gorm:"type:varchar(255)" json:"email"`
	DisplayName string    `gorm:"type:varchar(255)" json:"display_name,omitempty"`
	CoinBalance int       `gorm:"not null;default:0" json:"coin_balance"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return CollectionProfiles }

type UserRole struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role      string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string { return CollectionUserRoles }

// CoinTransaction is an append-only ledger row. BalanceAfter is recorded at
// write time and equals the previous row's BalanceAfter plus Amount.
type CoinTransaction struct {
	ID           string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string          `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Type         TransactionType `gorm:"type:varchar(16);not null" json:"type"`
	Amount       int             `gorm:"not null" json:"amount"`
	BalanceAfter int             `gorm:"not null" json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	Reference    string          `gorm:"type:varchar(64);index" json:"reference,omitempty"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (CoinTransaction) TableName() string { return CollectionCoinTransactions }

// CoinUnlock records that a user unlocked a product or chapter with coins.
type CoinUnlock struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_unlock" json:"user_id"`
	ItemID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_unlock" json:"item_id"`
	CoinsSpent int       `json:"coins_spent"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CoinUnlock) TableName() string { return CollectionUnlocks }
