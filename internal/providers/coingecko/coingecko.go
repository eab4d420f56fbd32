package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/WHXisWH/AlpacaPay/internal/config"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

const platform = "ethereum"

// Client adapts the CoinGecko token-price API to the marketdata.Provider
// contract. Upstream quirks (key headers, root-URL variants, rate limits)
// stay here; the core only ever sees the typed maps.
type Client struct {
	base   string
	apiKey string
	pro    bool
	cli    *http.Client
	log    *zap.Logger
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(cfg.CoinGecko.RestURL, "/"),
		apiKey: cfg.CoinGecko.ApiKey,
		pro:    cfg.CoinGecko.ProKey,
		cli:    &http.Client{Timeout: cfg.CoinGeckoTimeout()},
		log:    log,
	}
}

// tokenQuote is the one response schema we accept from
// /simple/token_price/{platform}: contract address -> field -> value.
type tokenQuote struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
	Vol24hUSD float64 `json:"usd_24h_vol"`
}

func (c *Client) FetchPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	quotes, err := c.fetchQuotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(quotes))
	for id, q := range quotes {
		out[id] = q.USD
	}
	return out, nil
}

// FetchVolatility reports abs(24h change) as the volatility percentage.
func (c *Client) FetchVolatility(ctx context.Context, ids []string) (map[string]float64, error) {
	quotes, err := c.fetchQuotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(quotes))
	for id, q := range quotes {
		out[id] = math.Abs(q.Change24h)
	}
	return out, nil
}

// FetchSlippage estimates swap slippage from 24h quote volume: thin books
// slip harder. The estimate is bounded to [0.05%, 10%].
func (c *Client) FetchSlippage(ctx context.Context, ids []string) (map[string]types.SlippageQuote, error) {
	quotes, err := c.fetchQuotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.SlippageQuote, len(quotes))
	for id, q := range quotes {
		slip := slippageFromVolume(q.Vol24hUSD)
		out[id] = types.SlippageQuote{SlippagePct: slip, EstimatedFeePct: slip * 0.5}
	}
	return out, nil
}

func slippageFromVolume(vol24hUSD float64) float64 {
	if vol24hUSD <= 0 {
		return 10
	}
	slip := 50 / math.Sqrt(vol24hUSD)
	if slip < 0.05 {
		slip = 0.05
	}
	if slip > 10 {
		slip = 10
	}
	return slip
}

func (c *Client) fetchQuotes(ctx context.Context, ids []string) (map[string]tokenQuote, error) {
	if len(ids) == 0 {
		return map[string]tokenQuote{}, nil
	}
	q := url.Values{}
	q.Set("contract_addresses", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")

	u := fmt.Sprintf("%s/simple/token_price/%s?%s", c.base, platform, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		if c.pro {
			req.Header.Set("x-cg-pro-api-key", c.apiKey)
		} else {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}
	}

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusTooManyRequests {
			c.log.Warn("coingecko rate limited", zap.String("url", u))
		}
		return nil, fmt.Errorf("coingecko http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var raw map[string]tokenQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("coingecko decode: %w", err)
	}

	out := make(map[string]tokenQuote, len(raw))
	for addr, quote := range raw {
		out[types.NormalizeAddress(addr)] = quote
	}
	return out, nil
}
