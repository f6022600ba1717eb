package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cms"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"go.uber.org/zap"
)

// ErrUnknownCollection is returned for admin requests naming no collection.
var ErrUnknownCollection = errors.New("unknown collection")

// ErrInvalidBody is returned when an admin payload cannot be decoded.
var ErrInvalidBody = errors.New("invalid request body")

// Options configures NewContent.
type Options struct {
	// DB is the remote store; nil runs every collection on local documents.
	DB       *db.DB
	Docs     fallback.Documents
	Notifier cms.Notifier
	Recorder fallback.Recorder
	Logger   *zap.Logger
}

// Content holds one CMS service per storefront collection.
type Content struct {
	Products        *cms.Service[db.Product, *db.Product]
	Series          *cms.Service[db.Series, *db.Series]
	Chapters        *cms.Service[db.Chapter, *db.Chapter]
	Creators        *cms.Service[db.Creator, *db.Creator]
	SeriesCreators  *cms.Service[db.SeriesCreator, *db.SeriesCreator]
	HeroBanners     *cms.Service[db.HeroBanner, *db.HeroBanner]
	Announcements   *cms.Service[db.Announcement, *db.Announcement]
	PageSections    *cms.Service[db.PageSection, *db.PageSection]
	CoinPackages    *cms.Service[db.CoinPackage, *db.CoinPackage]
	FeaturedConfigs *cms.Service[db.FeaturedSeriesConfig, *db.FeaturedSeriesConfig]
	FeaturedBadges  *cms.Service[db.FeaturedSeriesBadge, *db.FeaturedSeriesBadge]
	Templates       *cms.Service[db.FeaturedSeriesTemplate, *db.FeaturedSeriesTemplate]
	ShopAllHeroes   *cms.Service[db.ShopAllHero, *db.ShopAllHero]
	ShopAllFilters  *cms.Service[db.ShopAllFilter, *db.ShopAllFilter]
	ShopAllSorts    *cms.Service[db.ShopAllSort, *db.ShopAllSort]
	Orders          *cms.Service[db.Order, *db.Order]

	collections map[string]Collection
	log         *zap.Logger
}

// NewContent builds every collection service over the same remote and documents.
func NewContent(opts Options) *Content {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Docs == nil {
		opts.Docs = fallback.NewMemoryDocuments()
	}
	if opts.Notifier == nil {
		opts.Notifier = cms.NoopNotifier{}
	}

	c := &Content{log: opts.Logger}

	c.Products = newService(opts, db.CollectionBooks, "Product", validateProduct)
	c.Series = newService(opts, db.CollectionSeries, "Series", c.validateSeries)
	c.Chapters = newService(opts, db.CollectionChapters, "Chapter", validateChapter)
	c.Creators = newService(opts, db.CollectionCreators, "Creator", validateCreator)
	c.SeriesCreators = newService(opts, db.CollectionSeriesCreators, "Creator assignment", validateSeriesCreator)
	c.HeroBanners = newService(opts, db.CollectionHeroBanners, "Hero banner", validateHeroBanner)
	c.Announcements = newService(opts, db.CollectionAnnouncements, "Announcement", validateAnnouncement)
	c.PageSections = newService(opts, db.CollectionPageSections, "Page section", validatePageSection, defaultPageSections()...)
	c.CoinPackages = newService(opts, db.CollectionCoinPackages, "Coin package", validateCoinPackage, defaultCoinPackages()...)
	c.FeaturedConfigs = newService(opts, db.CollectionFeaturedSeriesConfigs, "Featured series", validateFeaturedConfig, defaultFeaturedConfigs()...)
	c.FeaturedBadges = newService(opts, db.CollectionFeaturedSeriesBadges, "Badge", validateFeaturedBadge, defaultFeaturedBadges()...)
	c.Templates = newService(opts, db.CollectionFeaturedSeriesTemplates, "Template", validateTemplate)
	c.ShopAllHeroes = newService(opts, db.CollectionShopAllHeroes, "Shop all hero", validateShopAllHero, defaultShopAllHeroes()...)
	c.ShopAllFilters = newService(opts, db.CollectionShopAllFilters, "Filter", validateShopAllFilter, defaultShopAllFilters()...)
	c.ShopAllSorts = newService(opts, db.CollectionShopAllSorts, "Sort option", validateShopAllSort, defaultShopAllSorts()...)
	c.Orders = newService(opts, db.CollectionOrders, "Order", validateOrder)

	c.collections = map[string]Collection{}
	for _, col := range []Collection{
		adminOf(c.Products), adminOf(c.Series), adminOf(c.Chapters), adminOf(c.Creators),
		adminOf(c.SeriesCreators), adminOf(c.HeroBanners), adminOf(c.Announcements),
		adminOf(c.PageSections), adminOf(c.CoinPackages), adminOf(c.FeaturedConfigs),
		adminOf(c.FeaturedBadges), adminOf(c.Templates), adminOf(c.ShopAllHeroes),
		adminOf(c.ShopAllFilters), adminOf(c.ShopAllSorts), adminOf(c.Orders),
	} {
		c.collections[col.Name()] = col
	}
	return c
}

func newService[T any, PT interface {
	*T
	fallback.Entity
}](opts Options, collection, label string, validate cms.Validator[T], seed ...T) *cms.Service[T, PT] {
	var remote fallback.Remote[T]
	if opts.DB != nil {
		remote = fallback.NewGormRemote[T, PT](opts.DB)
	}
	store := fallback.New[T, PT](collection, remote, opts.Docs, opts.Logger).WithSeed(seed...)
	if opts.Recorder != nil {
		store.WithRecorder(opts.Recorder)
	}
	return cms.NewService(label, store, validate, opts.Notifier, opts.Logger)
}

// Collection is the type-erased admin view of one collection service.
type Collection interface {
	Name() string
	List(ctx context.Context) (any, int, error)
	Create(ctx context.Context, body []byte) (any, cms.Notice, error)
	Update(ctx context.Context, id string, body []byte) (any, cms.Notice, error)
	Delete(ctx context.Context, id string) (cms.Notice, error)
	Sync(ctx context.Context) (int, error)
}

type adminCollection[T any, PT interface {
	*T
	fallback.Entity
}] struct {
	svc *cms.Service[T, PT]
}

func adminOf[T any, PT interface {
	*T
	fallback.Entity
}](svc *cms.Service[T, PT]) Collection {
	return adminCollection[T, PT]{svc: svc}
}

func (a adminCollection[T, PT]) Name() string { return a.svc.Collection() }

func (a adminCollection[T, PT]) List(ctx context.Context) (any, int, error) {
	recs, err := a.svc.List(ctx)
	return recs, len(recs), err
}

func (a adminCollection[T, PT]) Create(ctx context.Context, body []byte) (any, cms.Notice, error) {
	var rec T
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, cms.Notice{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return a.svc.Create(ctx, rec)
}

func (a adminCollection[T, PT]) Update(ctx context.Context, id string, body []byte) (any, cms.Notice, error) {
	var patch fallback.Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, cms.Notice{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	delete(patch, "id")
	delete(patch, "created_at")
	return a.svc.Update(ctx, id, patch)
}

func (a adminCollection[T, PT]) Delete(ctx context.Context, id string) (cms.Notice, error) {
	return a.svc.Delete(ctx, id)
}

func (a adminCollection[T, PT]) Sync(ctx context.Context) (int, error) {
	return a.svc.Store().Sync(ctx)
}

// Collection looks up the admin view of a collection by name.
func (c *Content) Collection(name string) (Collection, error) {
	col, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return col, nil
}

// CollectionNames lists every collection in name order.
func (c *Content) CollectionNames() []string {
	names := make([]string, 0, len(c.collections))
	for name := range c.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sync refreshes the local mirror of one collection from the remote store.
func (c *Content) Sync(ctx context.Context, collection string) (int, error) {
	col, err := c.Collection(collection)
	if err != nil {
		return 0, err
	}
	n, err := col.Sync(ctx)
	if err != nil {
		return 0, err
	}
	c.log.Debug("Local mirror synced", zap.String("collection", collection), zap.Int("records", n))
	return n, nil
}

// SyncAll mirrors every collection, continuing past failures.
func (c *Content) SyncAll(ctx context.Context) error {
	var errs []error
	for _, name := range c.CollectionNames() {
		if _, err := c.Sync(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Seed writes the default records of every seeded collection through the
// admin path when the collection is empty. It returns the number created.
func (c *Content) Seed(ctx context.Context) (int, error) {
	created := 0
	err := errors.Join(
		seedInto(ctx, c.CoinPackages, defaultCoinPackages(), &created),
		seedInto(ctx, c.FeaturedConfigs, defaultFeaturedConfigs(), &created),
		seedInto(ctx, c.FeaturedBadges, defaultFeaturedBadges(), &created),
		seedInto(ctx, c.ShopAllHeroes, defaultShopAllHeroes(), &created),
		seedInto(ctx, c.ShopAllFilters, defaultShopAllFilters(), &created),
		seedInto(ctx, c.ShopAllSorts, defaultShopAllSorts(), &created),
		seedInto(ctx, c.PageSections, defaultPageSections(), &created),
	)
	return created, err
}

func seedInto[T any, PT interface {
	*T
	fallback.Entity
}](ctx context.Context, svc *cms.Service[T, PT], defaults []T, created *int) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, rec := range defaults {
		if _, _, err := svc.Create(ctx, rec); err != nil {
			return fmt.Errorf("seed %s: %w", svc.Collection(), err)
		}
		*created++
	}
	return nil
}
