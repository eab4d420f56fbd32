package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/WHXisWH/AlpacaPay/internal/config"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// Defaults applied when a signal is absent: worst-case volatility and
// slippage so that missing data never looks attractive.
const (
	defaultVolatilityPct = 100.0
	defaultSlippagePct   = 10.0
)

// Display bands for reason strings. These do not feed the score.
const (
	highBalanceUSD     = 100.0
	moderateBalanceUSD = 20.0
	veryStableVolPct   = 1.0
	stableVolPct       = 5.0
	highVolPct         = 20.0
	minimalSlipPct     = 0.5
	highSlipPct        = 3.0
)

// Engine ranks fee-payment candidates. It is a pure computation: no I/O, no
// clock, no randomness, so identical inputs always produce identical output.
type Engine struct {
	weights    config.Weights
	minUSD     float64
	logDivisor float64
}

// NewEngine fails fast on a bad weight set; everything downstream assumes the
// weights sum to 1.
func NewEngine(cfg config.ScoringCfg) (*Engine, error) {
	if math.Abs(cfg.Weights.Sum()-1.0) > 1e-9 {
		return nil, fmt.Errorf("scoring weights sum to %.6f, expected 1.0", cfg.Weights.Sum())
	}
	if cfg.MinBalanceUSD <= 0 || cfg.LogScaleDivisor <= 0 {
		return nil, fmt.Errorf("scoring thresholds must be positive: min_balance_usd=%v log_scale_divisor=%v",
			cfg.MinBalanceUSD, cfg.LogScaleDivisor)
	}
	return &Engine{
		weights:    cfg.Weights,
		minUSD:     cfg.MinBalanceUSD,
		logDivisor: cfg.LogScaleDivisor,
	}, nil
}

// Score ranks the given assets by fee-payment suitability and returns the
// winner plus the full ranking. ok is false when there is nothing to rank.
// Callers are expected to have filtered for paymaster eligibility already.
//
// Assets missing from marketData are scored as unpriced, never skipped.
// Equal composite scores keep their input order (stable sort).
func (e *Engine) Score(assets []types.Asset, marketData map[string]types.MarketSnapshot) (*types.Recommendation, bool) {
	if len(assets) == 0 {
		return nil, false
	}

	ranked := make([]types.ScoredAsset, 0, len(assets))
	for _, a := range assets {
		ranked = append(ranked, e.scoreOne(a, marketData[a.Address]))
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	return &types.Recommendation{Best: ranked[0], Ranked: ranked}, true
}

func (e *Engine) scoreOne(a types.Asset, md types.MarketSnapshot) types.ScoredAsset {
	sa := types.ScoredAsset{Asset: a, Market: md}

	price := md.PriceUSD
	if !md.HasPrice || price < 0 {
		price = 0
	}
	sa.UsdBalance = a.Balance.Mul(decimal.NewFromFloat(price))

	// Short-circuits, in this order: a zero-balance zero-price asset reports
	// the balance reason, an unpriced positive balance the price reason.
	if a.Balance.Sign() <= 0 {
		sa.Reasons = []string{"Zero balance"}
		return sa
	}
	if price <= 0 {
		sa.Reasons = []string{"No price data available"}
		return sa
	}

	usd, _ := sa.UsdBalance.Float64()

	sa.BalanceScore = e.balanceScore(usd)
	sa.VolatilityScore = volatilityScore(md)
	sa.SlippageScore = slippageScore(md)
	sa.Score = e.weights.Balance*sa.BalanceScore +
		e.weights.Volatility*sa.VolatilityScore +
		e.weights.Slippage*sa.SlippageScore
	sa.Reasons = reasons(usd, md)
	return sa
}

// balanceScore maps a USD balance into [0,1]. Below the knee the scale is
// linear and steep (near-dust balances are penalized harder than the log
// curve alone would); at and above it, ln(usd)/divisor capped at 1 compresses
// $5..$100k+ into the remaining range.
func (e *Engine) balanceScore(usd float64) float64 {
	if usd < e.minUSD {
		s := 0.3 * (usd / e.minUSD)
		return clamp01(s)
	}
	return clamp01(math.Log(usd) / e.logDivisor)
}

// volatilityScore is 1 - vol/100 and deliberately NOT clamped below zero:
// assets swinging more than 100% in 24h drag the composite down even when
// balance and slippage are strong.
func volatilityScore(md types.MarketSnapshot) float64 {
	vol := defaultVolatilityPct
	if md.HasVolatility {
		vol = md.Volatility24h
	}
	return 1 - vol/100
}

// slippageScore is 1 - slippage/10, unclamped below zero like volatility.
func slippageScore(md types.MarketSnapshot) float64 {
	slip := defaultSlippagePct
	if md.HasSlippage {
		slip = md.SlippagePct
	}
	return 1 - slip/10
}

// reasons builds the display strings. The 5-20% volatility and 0.5-3%
// slippage bands are intentionally silent: nothing remarkable to report.
func reasons(usd float64, md types.MarketSnapshot) []string {
	out := make([]string, 0, 3)

	switch {
	case usd >= highBalanceUSD:
		out = append(out, fmt.Sprintf("High balance ($%.2f)", usd))
	case usd >= moderateBalanceUSD:
		out = append(out, fmt.Sprintf("Moderate balance ($%.2f)", usd))
	default:
		out = append(out, fmt.Sprintf("Low balance ($%.2f)", usd))
	}

	if md.HasVolatility {
		switch {
		case md.Volatility24h < veryStableVolPct:
			out = append(out, fmt.Sprintf("Very stable price (%.1f%% 24h volatility)", md.Volatility24h))
		case md.Volatility24h < stableVolPct:
			out = append(out, fmt.Sprintf("Stable price (%.1f%% 24h volatility)", md.Volatility24h))
		case md.Volatility24h > highVolPct:
			out = append(out, fmt.Sprintf("High volatility (%.1f%% 24h)", md.Volatility24h))
		}
	}

	if md.HasSlippage {
		switch {
		case md.SlippagePct < minimalSlipPct:
			out = append(out, fmt.Sprintf("Minimal slippage (%.2f%%)", md.SlippagePct))
		case md.SlippagePct > highSlipPct:
			out = append(out, fmt.Sprintf("High slippage expected (%.2f%%)", md.SlippagePct))
		}
	}

	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
