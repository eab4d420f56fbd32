package staticprov

import (
	"context"
	"hash/fnv"

	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// Static is a fixture market data provider for tests and offline runs. It is
// fully deterministic: known tokens come from a baked-in table, everything
// else gets stable values derived from the address hash. The scoring engine
// itself never sees any of this machinery.
type Static struct {
	Prices map[string]float64
	Vols   map[string]float64
	Slips  map[string]types.SlippageQuote
}

// mainnet stables and majors, good enough for a dry run
var wellKnown = map[string]struct {
	price float64
	vol   float64
	slip  float64
}{
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": {1.00, 0.1, 0.05},    // USDC
	"0xdac17f958d2ee523a2206206994597c13d831ec7": {1.00, 0.15, 0.05},   // USDT
	"0x6b175474e89094c44da98b954eedeac495271d0f": {1.00, 0.2, 0.1},     // DAI
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {3400.0, 4.2, 0.15},  // WETH
	"0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9": {85.20, 9.3, 1.8},    // AAVE
	"0x514910771af9ca656af840dff83e8264ecf986ca": {14.75, 6.8, 0.9},    // LINK
	"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984": {7.10, 8.5, 1.2},     // UNI
}

func New() *Static { return &Static{} }

func (s *Static) FetchPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		if v, ok := s.Prices[id]; ok {
			out[id] = v
		} else if wk, ok := wellKnown[id]; ok {
			out[id] = wk.price
		} else {
			out[id] = derived(id, 0.01, 50)
		}
	}
	return out, nil
}

func (s *Static) FetchVolatility(ctx context.Context, ids []string) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		if v, ok := s.Vols[id]; ok {
			out[id] = v
		} else if wk, ok := wellKnown[id]; ok {
			out[id] = wk.vol
		} else {
			out[id] = derived(id, 0.5, 40)
		}
	}
	return out, nil
}

func (s *Static) FetchSlippage(ctx context.Context, ids []string) (map[string]types.SlippageQuote, error) {
	out := make(map[string]types.SlippageQuote, len(ids))
	for _, id := range ids {
		var slip float64
		if q, ok := s.Slips[id]; ok {
			out[id] = q
			continue
		} else if wk, ok := wellKnown[id]; ok {
			slip = wk.slip
		} else {
			slip = derived(id, 0.1, 6)
		}
		out[id] = types.SlippageQuote{SlippagePct: slip, EstimatedFeePct: slip * 0.5}
	}
	return out, nil
}

// derived maps an address into [lo, lo+span) so unknown tokens still get a
// stable, repeatable signal.
func derived(id string, lo, span float64) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return lo + span*float64(h.Sum32()%10_000)/10_000
}
