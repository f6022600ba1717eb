package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cart"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/checkout"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/coins"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/config"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/grpc"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/metrics"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/storage"
	"go.uber.org/zap"
)

// AdminChecker reports stored admin roles.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Deps are the services behind the HTTP API. Wallet, Uploader, Roles,
// Metrics and Health may be nil.
type Deps struct {
	Content  *repo.Content
	Carts    *cart.Store
	Checkout *checkout.Service
	Wallet   *coins.Wallet
	Uploader storage.Uploader
	Roles    AdminChecker
	Metrics  *metrics.Metrics
	Health   *grpc.HealthServer
	Auth     config.AuthConfig
	// MaxUploadBytes caps multipart uploads; 0 means 10 MB.
	MaxUploadBytes int64
	Logger         *zap.Logger
}

type Server struct {
	content   *repo.Content
	carts     *cart.Store
	checkout  *checkout.Service
	wallet    *coins.Wallet
	uploader  storage.Uploader
	roles     AdminChecker
	metrics   *metrics.Metrics
	health    *grpc.HealthServer
	auth      config.AuthConfig
	maxUpload int64
	log       *zap.Logger
	now       func() time.Time
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 10 << 20
	}
	return &Server{
		content:   d.Content,
		carts:     d.Carts,
		checkout:  d.Checkout,
		wallet:    d.Wallet,
		uploader:  d.Uploader,
		roles:     d.Roles,
		metrics:   d.Metrics,
		health:    d.Health,
		auth:      d.Auth,
		maxUpload: d.MaxUploadBytes,
		log:       d.Logger,
		now:       time.Now,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(AllowAll())
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.Healthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.ListProducts)
		r.Get("/products/{id}", s.GetProduct)
		r.Get("/products/{id}/volumes", s.ListVolumes)
		r.Get("/merchandise/{id}", s.GetMerchandise)
		r.Get("/series", s.ListSeries)
		r.Get("/series/{key}", s.GetSeries)
		r.Get("/series/{key}/chapters", s.ListChapters)
		r.Get("/chapters/{id}", s.GetChapter)
		r.Get("/creators", s.ListCreators)
		r.Get("/featured-series", s.FeaturedSeries)
		r.Get("/shop-all", s.ShopAll)
		r.Get("/hero-banners", s.HeroBanners)
		r.Get("/announcements", s.Announcements)
		r.Get("/pages/{page}", s.Page)
		r.Get("/coins/packages", s.CoinPackages)

		r.Group(func(r chi.Router) {
			r.Use(s.Auth)

			r.Get("/cart", s.GetCart)
			r.Post("/cart", s.AddToCart)
			r.Patch("/cart/{productID}", s.SetCartQuantity)
			r.Delete("/cart/{productID}", s.RemoveFromCart)

			r.Get("/wishlist", s.GetWishlist)
			r.Post("/wishlist", s.AddToWishlist)
			r.Delete("/wishlist/{productID}", s.RemoveFromWishlist)

			r.Get("/coins/balance", s.CoinBalance)
			r.Get("/coins/transactions", s.CoinTransactions)
			r.Post("/coins/purchase", s.PurchaseCoins)
			r.Post("/coins/spend", s.SpendCoins)
			r.Post("/coins/unlock/{productID}", s.UnlockProduct)
			r.Post("/coins/unlock/chapters/{chapterID}", s.UnlockChapter)

			r.Post("/checkout", s.CheckoutCart)
			r.Post("/direct-checkout/{id}", s.DirectCheckout)
			r.Get("/orders", s.Orders)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.RequireAdmin)

				r.Post("/uploads", s.Upload)
				r.Delete("/uploads", s.DeleteUpload)
				r.Post("/featured-series/templates", s.SaveTemplate)
				r.Post("/featured-series/templates/{id}/apply", s.ApplyTemplate)
				r.Post("/coins/grant", s.GrantCoins)
				r.Post("/sync", s.SyncAll)

				r.Get("/{collection}", s.AdminList)
				r.Post("/{collection}", s.AdminCreate)
				r.Put("/{collection}/{id}", s.AdminUpdate)
				r.Delete("/{collection}/{id}", s.AdminDelete)
			})
		})
	})

	return r
}

// Healthz reports dependency health. Content stays available while the
// database is down, so only required checks turn it into a 503.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	serving, results := s.health.Run(r.Context())
	status, code := "ok", http.StatusOK
	if !serving {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": results})
}
