package eligibility

import (
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// Filter narrows wallet assets to those the paymaster will accept for gas.
// The scoring engine never re-checks eligibility; it trusts this boundary.
type Filter interface {
	IsSupported(address string) bool
	FilterSupported(assets []types.Asset) []types.Asset
}

// StaticFilter accepts a fixed supported-token set, typically the
// paymaster's configured list. Addresses are canonicalized on construction
// so lookups are plain map hits.
type StaticFilter struct {
	supported map[string]struct{}
}

func NewStaticFilter(addresses []string) *StaticFilter {
	m := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		m[types.NormalizeAddress(a)] = struct{}{}
	}
	return &StaticFilter{supported: m}
}

func (f *StaticFilter) IsSupported(address string) bool {
	_, ok := f.supported[types.NormalizeAddress(address)]
	return ok
}

func (f *StaticFilter) FilterSupported(assets []types.Asset) []types.Asset {
	out := make([]types.Asset, 0, len(assets))
	for _, a := range assets {
		if f.IsSupported(a.Address) {
			out = append(out, a)
		}
	}
	return out
}
