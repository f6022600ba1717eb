package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cart"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/checkout"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/coins"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/config"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/metrics"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/storage"
	"github.com/mahinbs/series-shop-beacon-32-sub001/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUploader struct {
	uploads map[string]string
}

func (f *fakeUploader) Upload(_ context.Context, folder, filename string, body io.Reader, contentType string) (string, error) {
	if _, ok := storage.ImageTypes[contentType]; !ok {
		return "", storage.ErrUnsupportedType
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	url := "https://cdn.example.com/" + folder + "/" + filename
	f.uploads[url] = string(data)
	return url, nil
}

func (f *fakeUploader) Delete(_ context.Context, url string) error {
	delete(f.uploads, url)
	return nil
}

type fixture struct {
	t        *testing.T
	handler  http.Handler
	content  *repo.Content
	roles    *repo.RoleRepository
	metrics  *metrics.Metrics
	uploader *fakeUploader
}

func setup(t *testing.T) *fixture {
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database))
	t.Cleanup(func() { _ = database.Close() })

	log := logger.NewLogger("test", "error", "json")
	docs := fallback.NewMemoryDocuments()
	content := repo.NewContent(repo.Options{Docs: docs, Logger: log})
	carts := cart.NewStore(docs)
	roles := repo.NewRoleRepository(database, log)
	m := metrics.New()
	up := &fakeUploader{uploads: map[string]string{}}

	srv := NewServer(Deps{
		Content:  content,
		Carts:    carts,
		Checkout: checkout.NewService(content.Products, content.Orders, carts, nil, log),
		Wallet:   coins.NewWallet(database, content.CoinPackages, log),
		Uploader: up,
		Roles:    roles,
		Metrics:  m,
		Auth:     config.AuthConfig{JWTSecret: testSecret},
		Logger:   log,
	})
	return &fixture{t: t, handler: srv.Routes(), content: content, roles: roles, metrics: m, uploader: up}
}

func token(t *testing.T, userID, role string) string {
	tok, err := IssueToken(testSecret, "", userID, userID+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, tok string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) product(p db.Product) db.Product {
	created, _, err := f.content.Products.Create(context.Background(), p)
	require.NoError(f.t, err)
	return created
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type productList struct {
	Items        []db.Product `json:"items"`
	Total        int          `json:"total"`
	Matched      int          `json:"matched"`
	EmptyMessage string       `json:"empty_message"`
}

func TestListProductsSearchFilterSort(t *testing.T) {
	f := setup(t)
	price := decimal.RequireFromString("9.99")
	f.product(db.Product{Title: "One Piece Vol. 1", Price: price, ProductType: db.ProductTypeBook, Genres: []string{"Action", "Adventure"}, IsActive: true})
	f.product(db.Product{Title: "Berserk Vol. 1", Price: price, ProductType: db.ProductTypeBook, Genres: []string{"Action", "Horror"}, IsActive: true})
	f.product(db.Product{Title: "Yotsuba&! Vol. 1", Price: price, ProductType: db.ProductTypeBook, Genres: []string{"Comedy"}, IsActive: true})
	f.product(db.Product{Title: "One Piece Poster", Price: price, ProductType: db.ProductTypeMerchandise, IsActive: false})

	rec := f.do(http.MethodGet, "/api/products?q=piece", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[productList](t, rec)
	assert.Equal(t, 3, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "One Piece Vol. 1", list.Items[0].Title)

	rec = f.do(http.MethodGet, "/api/products?filter=Action&sort=Z-A", "", nil)
	list = decode[productList](t, rec)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "One Piece Vol. 1", list.Items[0].Title)
	assert.Equal(t, "Berserk Vol. 1", list.Items[1].Title)

	rec = f.do(http.MethodGet, "/api/products?q=zzz", "", nil)
	list = decode[productList](t, rec)
	assert.Empty(t, list.Items)
	assert.Equal(t, "No items match the current filters.", list.EmptyMessage)

	rec = f.do(http.MethodGet, "/api/products?section=nowhere", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMerchandiseOnlyResolvesMerch(t *testing.T) {
	f := setup(t)
	book := f.product(db.Product{Title: "Book", Price: decimal.NewFromInt(5), ProductType: db.ProductTypeBook, IsActive: true})
	merch := f.product(db.Product{Title: "Tote", Price: decimal.NewFromInt(15), ProductType: db.ProductTypeMerchandise, IsActive: true})

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/merchandise/"+merch.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/merchandise/"+book.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/products/missing", "", nil).Code)
}

func TestSeededContentIsPublic(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/api/coins/packages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]db.CoinPackage](t, rec), 4)

	rec = f.do(http.MethodGet, "/api/shop-all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shop := decode[map[string]any](t, rec)
	assert.Equal(t, "Newest First", shop["default_sort"])

	rec = f.do(http.MethodGet, "/api/pages/"+repo.PageAboutUs, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]db.PageSection](t, rec), 3)
}

func TestAuthRequired(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/cart", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/cart", "not-a-jwt", nil).Code)

	forged, err := IssueToken("other-secret", "", "u1", "", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/cart", forged, nil).Code)

	expired, err := IssueToken(testSecret, "", "u1", "", "", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/cart", expired, nil).Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/cart", token(t, "u1", ""), nil).Code)
}

func TestCartAndCheckout(t *testing.T) {
	f := setup(t)
	tok := token(t, "u1", "")
	p := f.product(db.Product{Title: "Vagabond Vol. 1", Price: decimal.RequireFromString("12.50"), ProductType: db.ProductTypeBook, IsActive: true})

	rec := f.do(http.MethodPost, "/api/cart", tok, map[string]any{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := decode[cartResponse](t, rec)
	assert.Equal(t, 2, c.Count)
	assert.True(t, c.Subtotal.Equal(decimal.RequireFromString("25.00")))

	rec = f.do(http.MethodPatch, "/api/cart/"+p.ID, tok, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[cartResponse](t, rec).Count)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPatch, "/api/cart/other", tok, map[string]int{"quantity": 1}).Code)

	rec = f.do(http.MethodPost, "/api/checkout", tok, map[string]string{"payment_method": "paypal"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[db.Order](t, rec)
	assert.Equal(t, db.OrderPaid, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("37.50")))

	rec = f.do(http.MethodGet, "/api/cart", tok, nil)
	assert.Zero(t, decode[cartResponse](t, rec).Count)

	rec = f.do(http.MethodGet, "/api/orders", tok, nil)
	assert.Len(t, decode[[]db.Order](t, rec), 1)

	// someone else's orders stay private
	rec = f.do(http.MethodGet, "/api/orders", token(t, "u2", ""), nil)
	assert.Empty(t, decode[[]db.Order](t, rec))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/checkout", tok, nil).Code)
}

func TestWishlist(t *testing.T) {
	f := setup(t)
	tok := token(t, "u1", "")
	p := f.product(db.Product{Title: "Art Book", Price: decimal.NewFromInt(30), ProductType: db.ProductTypeBook, IsActive: true})

	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPost, "/api/wishlist", tok, map[string]string{"product_id": p.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[cart.Wishlist](t, rec).Items, 1)
	}

	rec := f.do(http.MethodDelete, "/api/wishlist/"+p.ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cart.Wishlist](t, rec).Items)
}

func TestCoinsSpendBeyondBalanceIsNotAnHTTPError(t *testing.T) {
	f := setup(t)
	admin := token(t, "root", db.RoleAdmin)
	user := token(t, "u1", "")

	rec := f.do(http.MethodPost, "/api/admin/coins/grant", admin, map[string]any{"user_id": "u1", "amount": 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/coins/spend", user, map[string]any{"amount": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[coins.Result](t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, coins.InsufficientCoins, res.Error)
	assert.Equal(t, 100, res.Balance)

	rec = f.do(http.MethodPost, "/api/coins/spend", user, map[string]any{"amount": 40})
	assert.True(t, decode[coins.Result](t, rec).Success)

	rec = f.do(http.MethodGet, "/api/coins/balance", user, nil)
	assert.Equal(t, 60, decode[map[string]int](t, rec)["balance"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/coins/spend", user, map[string]any{"amount": 0}).Code)
}

func TestAdminAccess(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/admin/hero_banners", token(t, "u1", ""), nil).Code)

	require.NoError(t, f.roles.Grant(context.Background(), "editor-1", db.RoleAdmin))
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/admin/hero_banners", token(t, "editor-1", ""), nil).Code)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/admin/nope", token(t, "root", db.RoleAdmin), nil).Code)
}

func TestAdminCRUD(t *testing.T) {
	f := setup(t)
	admin := token(t, "root", db.RoleAdmin)

	rec := f.do(http.MethodPost, "/api/admin/hero_banners", admin, map[string]any{"title": "Summer Sale"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, map[string]any{"image_url": "is required"}, body["fields"])

	rec = f.do(http.MethodPost, "/api/admin/hero_banners", admin, map[string]any{"title": "Summer Sale", "image_url": "https://cdn.example.com/a.png", "is_active": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Data   db.HeroBanner `json:"data"`
		Notice struct {
			Message string `json:"message"`
		} `json:"notice"`
	}](t, rec)
	assert.NotEmpty(t, created.Data.ID)
	assert.Contains(t, created.Notice.Message, "created successfully")

	rec = f.do(http.MethodPut, "/api/admin/hero_banners/"+created.Data.ID, admin, map[string]any{"title": "Winter Sale"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/hero-banners", "", nil)
	banners := decode[[]db.HeroBanner](t, rec)
	require.Len(t, banners, 1)
	assert.Equal(t, "Winter Sale", banners[0].Title)

	rec = f.do(http.MethodPost, "/api/admin/hero_banners", admin, "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/admin/hero_banners/"+created.Data.ID, admin, nil).Code)
	assert.Empty(t, decode[[]db.HeroBanner](t, f.do(http.MethodGet, "/api/hero-banners", "", nil)))
}

func TestDuplicateSlugConflicts(t *testing.T) {
	f := setup(t)
	admin := token(t, "root", db.RoleAdmin)
	series := map[string]any{"title": "Blue Period", "status": "ongoing", "age_rating": "teen", "is_active": true}

	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/admin/series", admin, series).Code)
	rec := f.do(http.MethodPost, "/api/admin/series", admin, series)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[map[string]any](t, rec)["fields"], "slug")

	rec = f.do(http.MethodGet, "/api/series/blue-period", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpload(t *testing.T) {
	f := setup(t)
	admin := token(t, "root", db.RoleAdmin)

	upload := func(contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("folder", "banners"))
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="file"; filename="cover.png"`}
		h["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("img"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+admin)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("image/png")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "https://cdn.example.com/banners/cover.png", decode[map[string]string](t, rec)["url"])
	assert.Len(t, f.uploader.uploads, 1)

	assert.Equal(t, http.StatusUnsupportedMediaType, upload("application/pdf").Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.do(http.MethodGet, "/api/products", "", nil)
	rec = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `route="/api/products"`), "request metric missing")
}

func TestCORSPreflight(t *testing.T) {
	f := setup(t)
	rec := f.do(http.MethodOptions, "/api/cart", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
