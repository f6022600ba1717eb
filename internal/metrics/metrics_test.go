package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fallback.Recorder = (*Metrics)(nil)

func TestFallbackCounters(t *testing.T) {
	m := New()
	m.FallbackUsed("hero_banners", "load")
	m.FallbackUsed("hero_banners", "load")
	m.RemoteError("hero_banners", "load")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fallbackUsed.WithLabelValues("hero_banners", "load")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.remoteErrors.WithLabelValues("hero_banners", "load")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.fallbackUsed.WithLabelValues("products", "create")))
}

func TestCatalogGaugesAndSpends(t *testing.T) {
	m := New()
	m.SetCatalogSize(12, 9)
	m.CoinSpend(true)
	m.CoinSpend(false)
	m.CoinSpend(false)

	assert.Equal(t, 12.0, testutil.ToFloat64(m.catalogItems.WithLabelValues("total")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.catalogItems.WithLabelValues("active")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.coinSpends.WithLabelValues("insufficient")))
}

func TestHandlerExposesRequests(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/products", http.StatusOK, 15*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `storefront_http_requests_total{method="GET",route="/api/products",status="200"} 1`)
	assert.Contains(t, string(body), `route="unmatched"`)
}
