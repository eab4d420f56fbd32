package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Asset is one ERC-20 candidate for paying gas, as reported by the wallet.
// Built fresh per request; never persisted.
type Asset struct {
	Address  string // canonical lowercase hex, unique within a request
	Symbol   string
	Name     string
	Decimals uint8
	Balance  decimal.Decimal // token units, non-negative
}

// NewAsset validates and canonicalizes the address (lowercase hex) and
// rejects negative balances.
func NewAsset(address, symbol, name string, decimals uint8, balance decimal.Decimal) (Asset, error) {
	if !common.IsHexAddress(address) {
		return Asset{}, fmt.Errorf("invalid token address %q", address)
	}
	if balance.IsNegative() {
		return Asset{}, fmt.Errorf("negative balance %s for %s", balance, symbol)
	}
	return Asset{
		Address:  NormalizeAddress(address),
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
		Balance:  balance,
	}, nil
}

// NormalizeAddress lowercases a hex address so it can be used as a map key.
func NormalizeAddress(address string) string {
	return strings.ToLower(common.HexToAddress(address).Hex())
}

// SlippageQuote is the provider's slippage estimate for one token.
type SlippageQuote struct {
	SlippagePct     float64 `json:"slippagePct"`
	EstimatedFeePct float64 `json:"estimatedFeePct"` // slippage * 0.5, derived
}

// MarketSnapshot bundles the external signals for one token. The Has* flags
// distinguish "provider returned zero" from "no data at all"; scoring treats
// both unpriced cases the same but callers may not.
type MarketSnapshot struct {
	PriceUSD      float64 `json:"priceUSD"`
	Volatility24h float64 `json:"volatility24h"` // percent, unbounded above
	SlippagePct   float64 `json:"slippagePct"`   // percent, unbounded above
	EstimatedFee  float64 `json:"estimatedFee"`  // percent, slippage-derived

	HasPrice      bool `json:"hasPrice"`
	HasVolatility bool `json:"hasVolatility"`
	HasSlippage   bool `json:"hasSlippage"`
}

// ScoredAsset is an Asset with its snapshot and every derived score.
// Recomputed on every request; never cached.
type ScoredAsset struct {
	Asset  Asset
	Market MarketSnapshot

	UsdBalance      decimal.Decimal
	BalanceScore    float64
	VolatilityScore float64
	SlippageScore   float64
	Score           float64 // weighted composite, 0..1 for sane inputs
	Reasons         []string
}

// Recommendation is the result of one scoring call: the winner plus the full
// ranking for display and audit.
type Recommendation struct {
	Best   ScoredAsset
	Ranked []ScoredAsset
}
