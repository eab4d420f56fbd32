package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	imetrics "github.com/WHXisWH/AlpacaPay/internal/metrics"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

type entry struct {
	value     float64
	fetchedAt time.Time
}

// store is one TTL-bounded value store (price or volatility). Stale entries
// are retained as fallback material, never evicted.
type store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

func newStore(ttl time.Duration) *store {
	return &store{entries: make(map[string]entry, 64), ttl: ttl}
}

func (s *store) get(id string) (entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *store) putAll(values map[string]float64, at time.Time) {
	s.mu.Lock()
	for id, v := range values {
		s.entries[id] = entry{value: v, fetchedAt: at}
	}
	s.mu.Unlock()
}

// Cache serves per-token price and volatility through independent TTL
// stores, falling back to the last known value when the provider fails.
// Slippage is cheap to estimate and is fetched fresh on every call.
//
// Entries are idempotent snapshots, so concurrent refreshes of the same key
// are last-writer-wins; identical in-flight batches are coalesced.
type Cache struct {
	provider Provider
	prices   *store
	vols     *store
	sf       singleflight.Group
	now      func() time.Time // swapped out in tests
	log      *zap.Logger
}

func NewCache(p Provider, priceTTL, volatilityTTL time.Duration, log *zap.Logger) (*Cache, error) {
	if p == nil {
		return nil, fmt.Errorf("nil market data provider")
	}
	if priceTTL <= 0 || volatilityTTL <= 0 {
		return nil, fmt.Errorf("cache TTLs must be positive, got price=%s volatility=%s", priceTTL, volatilityTTL)
	}
	return &Cache{
		provider: p,
		prices:   newStore(priceTTL),
		vols:     newStore(volatilityTTL),
		now:      time.Now,
		log:      log,
	}, nil
}

// GetMarketData resolves a snapshot per requested token. It never fails:
// provider errors degrade to stale values, and tokens with no value at all
// are omitted so the scorer sees them as missing data.
func (c *Cache) GetMarketData(ctx context.Context, ids []string) map[string]types.MarketSnapshot {
	prices := c.resolve(ctx, c.prices, "price", ids, c.provider.FetchPrices)
	vols := c.resolve(ctx, c.vols, "volatility", ids, c.provider.FetchVolatility)

	slips, err := c.provider.FetchSlippage(ctx, ids)
	if err != nil {
		imetrics.ProviderErrors.WithLabelValues("slippage").Inc()
		c.log.Warn("slippage fetch failed, scoring with defaults", zap.Error(err))
		slips = nil
	}

	out := make(map[string]types.MarketSnapshot, len(ids))
	for _, id := range ids {
		var snap types.MarketSnapshot
		if p, ok := prices[id]; ok {
			snap.PriceUSD, snap.HasPrice = p, true
		}
		if v, ok := vols[id]; ok {
			snap.Volatility24h, snap.HasVolatility = v, true
		}
		if sq, ok := slips[id]; ok {
			snap.SlippagePct, snap.EstimatedFee, snap.HasSlippage = sq.SlippagePct, sq.EstimatedFeePct, true
		}
		if snap.HasPrice || snap.HasVolatility || snap.HasSlippage {
			out[id] = snap
		}
	}
	return out
}

type fetchFn func(ctx context.Context, ids []string) (map[string]float64, error)

// resolve serves fresh entries from the store and fetches exactly the
// missing-or-expired subset in one provider call.
func (c *Cache) resolve(ctx context.Context, st *store, kind string, ids []string, fetch fetchFn) map[string]float64 {
	now := c.now()
	out := make(map[string]float64, len(ids))
	need := make([]string, 0, len(ids))

	for _, id := range ids {
		if e, ok := st.get(id); ok && now.Sub(e.fetchedAt) <= st.ttl {
			out[id] = e.value
			imetrics.CacheHits.WithLabelValues(kind).Inc()
		} else {
			need = append(need, id)
			imetrics.CacheMisses.WithLabelValues(kind).Inc()
		}
	}
	if len(need) == 0 {
		return out
	}

	fetched, err := c.fetchCoalesced(ctx, kind, need, fetch)
	if err != nil {
		imetrics.ProviderErrors.WithLabelValues(kind).Inc()
		c.log.Warn("provider fetch failed, falling back to stale entries",
			zap.String("kind", kind),
			zap.Int("tokens", len(need)),
			zap.Error(err),
		)
		for _, id := range need {
			if e, ok := st.get(id); ok {
				out[id] = e.value
				imetrics.StaleFallbacks.WithLabelValues(kind).Inc()
			}
		}
		return out
	}

	st.putAll(fetched, c.now())
	for _, id := range need {
		if v, ok := fetched[id]; ok {
			out[id] = v
		}
	}
	return out
}

// fetchCoalesced de-duplicates identical concurrent batch fetches; distinct
// batches still fly in parallel.
func (c *Cache) fetchCoalesced(ctx context.Context, kind string, ids []string, fetch fetchFn) (map[string]float64, error) {
	key := batchKey(kind, ids)
	start := c.now()
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		return fetch(ctx, ids)
	})
	imetrics.FetchLatency.WithLabelValues(kind).Observe(c.now().Sub(start).Seconds())
	if err != nil {
		return nil, err
	}
	return v.(map[string]float64), nil
}

func batchKey(kind string, ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return kind + ":" + strings.Join(sorted, ",")
}
