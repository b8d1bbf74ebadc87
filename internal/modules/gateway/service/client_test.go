package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"options_bot/internal/modules/config"
	"options_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InfoLogger = zap.NewNop()
	logger.FatalLogger = zap.NewNop()
	m.Run()
}

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.Gateway.BaseURL = baseURL
	cfg.Gateway.Exchange = "NFO"
	cfg.Gateway.APIKey = "key"
	cfg.Gateway.APISecret = "secret"
	return NewClient(cfg)
}

func TestLastPriceFetchesLTP(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/quote/ltp", r.URL.Path)
		require.Equal(t, "NFO:NIFTY25SEP24800CE", r.URL.Query().Get("i"))
		assert.NotEmpty(t, r.Header.Get("X-API-SIGN"))
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"NFO:NIFTY25SEP24800CE":{"last_price":182.5}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	px, err := c.LastPrice(context.Background(), "NIFTY25SEP24800CE")
	require.NoError(t, err)
	assert.Equal(t, 182.5, px)

	// второй запрос обслуживается из кеша
	px, err = c.LastPrice(context.Background(), "NIFTY25SEP24800CE")
	require.NoError(t, err)
	assert.Equal(t, 182.5, px)
	assert.Equal(t, int64(1), hits.Load())
}

func TestLastPriceUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.LastPrice(context.Background(), "GHOST")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestLastPricesBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys := r.URL.Query()["i"]
		assert.ElementsMatch(t, []string{"NFO:AAA", "NFO:BBB"}, keys)
		_, _ = w.Write([]byte(`{"status":"success","data":{"NFO:AAA":{"last_price":10},"NFO:BBB":{"last_price":20}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	prices, err := c.LastPrices(context.Background(), []string{"AAA", "BBB"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAA": 10, "BBB": 20}, prices)
}

func TestLastPricesServesCacheWhenFetchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.storeTick("AAA", 11, time.Now())

	prices, err := c.LastPrices(context.Background(), []string{"AAA", "BBB"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAA": 11}, prices)
}

func TestCacheExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"NFO:AAA":{"last_price":42}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.storeTick("AAA", 11, time.Now().Add(-cacheTTL-time.Second))

	// протухший тик игнорируется, цена перечитывается по REST
	px, err := c.LastPrice(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, 42.0, px)
}

func TestLTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","data":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.LastPrice(context.Background(), "AAA")
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/profile", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	assert.False(t, c.IsAuthenticated())
	require.NoError(t, c.Authenticate(context.Background()))
	assert.True(t, c.IsAuthenticated())
}

func TestAuthenticateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	assert.Error(t, c.Authenticate(context.Background()))
	assert.False(t, c.IsAuthenticated())
}
