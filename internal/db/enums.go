package db

// Section is the storefront shelf a product is assigned to.
type Section string

const (
	SectionNewReleases Section = "new-releases"
	SectionBestSellers Section = "best-sellers"
	SectionLeavingSoon Section = "leaving-soon"
	SectionFeatured    Section = "featured"
	SectionTrending    Section = "trending"
)

// IsValid reports whether s is a known section. The empty section means
// "not shelved" and is accepted.
func (s Section) IsValid() bool {
	switch s {
	case "", SectionNewReleases, SectionBestSellers, SectionLeavingSoon, SectionFeatured, SectionTrending:
		return true
	}
	return false
}

type ProductType string

const (
	ProductTypeBook        ProductType = "book"
	ProductTypeMerchandise ProductType = "merchandise"
	ProductTypePrint       ProductType = "print"
	ProductTypeDigital     ProductType = "digital"
	ProductTypeOther       ProductType = "other"
)

func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeBook, ProductTypeMerchandise, ProductTypePrint, ProductTypeDigital, ProductTypeOther:
		return true
	}
	return false
}

// SeriesStatus is the publication status of a series.
type SeriesStatus string

const (
	SeriesOngoing   SeriesStatus = "ongoing"
	SeriesCompleted SeriesStatus = "completed"
	SeriesHiatus    SeriesStatus = "hiatus"
	SeriesCancelled SeriesStatus = "cancelled"
)

func (s SeriesStatus) IsValid() bool {
	switch s {
	case SeriesOngoing, SeriesCompleted, SeriesHiatus, SeriesCancelled:
		return true
	}
	return false
}

type AgeRating string

const (
	AgeRatingAll    AgeRating = "all"
	AgeRatingTeen   AgeRating = "teen"
	AgeRatingMature AgeRating = "mature"
)

func (a AgeRating) IsValid() bool {
	switch a {
	case AgeRatingAll, AgeRatingTeen, AgeRatingMature:
		return true
	}
	return false
}

// CreatorRole is the part a creator played on a series.
type CreatorRole string

const (
	RoleWriter      CreatorRole = "writer"
	RoleArtist      CreatorRole = "artist"
	RoleColorist    CreatorRole = "colorist"
	RoleLetterer    CreatorRole = "letterer"
	RoleCoverArtist CreatorRole = "cover_artist"
	RoleEditor      CreatorRole = "editor"
	RoleTranslator  CreatorRole = "translator"
)

func (r CreatorRole) IsValid() bool {
	switch r {
	case RoleWriter, RoleArtist, RoleColorist, RoleLetterer, RoleCoverArtist, RoleEditor, RoleTranslator:
		return true
	}
	return false
}

// TransactionType classifies a coin ledger row.
type TransactionType string

const (
	TxPurchase TransactionType = "purchase"
	TxSpend    TransactionType = "spend"
	TxEarn     TransactionType = "earn"
	TxRefund   TransactionType = "refund"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TxPurchase, TxSpend, TxEarn, TxRefund:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// FilterType says which product facet a shop-all filter targets.
type FilterType string

const (
	FilterGenre       FilterType = "genre"
	FilterCategory    FilterType = "category"
	FilterTag         FilterType = "tag"
	FilterSection     FilterType = "section"
	FilterProductType FilterType = "product_type"
)

func (f FilterType) IsValid() bool {
	switch f {
	case FilterGenre, FilterCategory, FilterTag, FilterSection, FilterProductType:
		return true
	}
	return false
}

// Admin role name in user_roles.
const RoleAdmin = "admin"
