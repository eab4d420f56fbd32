package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/WHXisWH/AlpacaPay/internal/config"
)

const dai = "0x6b175474e89094c44da98b954eedeac495271d0f"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	cfg := config.Default()
	cfg.CoinGecko.RestURL = ts.URL
	cfg.CoinGecko.ApiKey = "test-key"
	return NewClient(cfg, zap.NewNop())
}

func TestFetchPrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/token_price/ethereum", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Contains(t, r.URL.Query().Get("contract_addresses"), dai)
		assert.Equal(t, "test-key", r.Header.Get("x-cg-demo-api-key"))

		w.Header().Set("Content-Type", "application/json")
		// checksummed key on purpose: the adapter must canonicalize
		_, _ = w.Write([]byte(`{
			"0x6B175474E89094C44Da98b954EedeAC495271d0F": {
				"usd": 0.9998, "usd_24h_change": -0.21, "usd_24h_vol": 250000000
			}
		}`))
	})

	prices, err := c.FetchPrices(context.Background(), []string{dai})
	require.NoError(t, err)
	assert.Equal(t, 0.9998, prices[dai])
}

func TestFetchVolatility_AbsChange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"` + dai + `": {"usd": 1.0, "usd_24h_change": -3.4}}`))
	})

	vols, err := c.FetchVolatility(context.Background(), []string{dai})
	require.NoError(t, err)
	assert.InDelta(t, 3.4, vols[dai], 1e-12)
}

func TestFetchSlippage_VolumeHeuristic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"` + dai + `": {"usd": 1.0, "usd_24h_vol": 1000000}}`))
	})

	slips, err := c.FetchSlippage(context.Background(), []string{dai})
	require.NoError(t, err)
	q := slips[dai]
	assert.InDelta(t, 0.05, q.SlippagePct, 1e-9) // 50/sqrt(1e6) = 0.05
	assert.InDelta(t, q.SlippagePct*0.5, q.EstimatedFeePct, 1e-12)
}

func TestFetch_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	})

	_, err := c.FetchPrices(context.Background(), []string{dai})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetch_EmptyIDs(t *testing.T) {
	called := false
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { called = true })

	prices, err := c.FetchPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.False(t, called, "no HTTP call for an empty batch")
}

func TestSlippageFromVolume_Bounds(t *testing.T) {
	assert.Equal(t, 10.0, slippageFromVolume(0))
	assert.Equal(t, 10.0, slippageFromVolume(1)) // 50/1 capped at 10
	assert.Equal(t, 0.05, slippageFromVolume(1e12))
}
