package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodforward-data/internal/config"
	"foodforward-data/internal/store"
)

func testConfig(baseURL string) *config.GeocodeConfig {
	return &config.GeocodeConfig{
		BaseURL:        baseURL,
		TimeoutSeconds: 2,
		CacheTTLHours:  1,
	}
}

func TestFallback_Deterministic(t *testing.T) {
	first := Fallback("12 Baker St")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Fallback("12 Baker St"))
	}
}

func TestFallback_DistinctAddressesDistinctMarkers(t *testing.T) {
	a := Fallback("12 Baker St")
	b := Fallback("45 Market Rd")
	assert.NotEqual(t, a, b)
}

func TestFallback_StaysWithinJitterWindow(t *testing.T) {
	for _, addr := range []string{"a", "b", "12 Baker St", "45 Market Rd", ""} {
		c := Fallback(addr)
		assert.InDelta(t, fallbackBaseLat, c.Lat, fallbackJitter)
		assert.InDelta(t, fallbackBaseLng, c.Lng, fallbackJitter)
	}
}

func TestResolve_UsesLookupAndCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "12 Baker St", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"lat": "51.5074", "lon": "-0.1278"},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), store.NewMemoryKV(), zap.NewNop())

	coords := client.Resolve(context.Background(), "12 Baker St")
	assert.InDelta(t, 51.5074, coords.Lat, 0.0001)
	assert.InDelta(t, -0.1278, coords.Lng, 0.0001)
	assert.Equal(t, 1, calls)

	// 第二次命中缓存，不再请求上游
	again := client.Resolve(context.Background(), "12 Baker St")
	assert.Equal(t, coords, again)
	assert.Equal(t, 1, calls)
}

func TestResolve_FallsBackOnUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), store.NewMemoryKV(), zap.NewNop())

	coords := client.Resolve(context.Background(), "12 Baker St")
	assert.Equal(t, Fallback("12 Baker St"), coords)
}

func TestResolve_FallsBackOnEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), store.NewMemoryKV(), zap.NewNop())
	coords := client.Resolve(context.Background(), "unknown place")
	assert.Equal(t, Fallback("unknown place"), coords)
}

func TestResolve_NeverBlocksIndefinitely(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.TimeoutSeconds = 1
	client := NewClient(cfg, store.NewMemoryKV(), zap.NewNop())

	start := time.Now()
	coords := client.Resolve(context.Background(), "slow address")
	require.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, Fallback("slow address"), coords)
}
