package eligibility

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WHXisWH/AlpacaPay/internal/types"
)

const (
	dai  = "0x6b175474e89094c44da98b954eedeac495271d0f"
	usdc = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	weth = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
)

func TestStaticFilter_CaseInsensitive(t *testing.T) {
	// config lists often carry checksummed addresses
	f := NewStaticFilter([]string{"0x6B175474E89094C44Da98b954EedeAC495271d0F"})
	assert.True(t, f.IsSupported(dai))
	assert.True(t, f.IsSupported("0x6B175474E89094C44DA98B954EEDEAC495271D0F"))
	assert.False(t, f.IsSupported(usdc))
}

func TestStaticFilter_FilterSupported(t *testing.T) {
	f := NewStaticFilter([]string{dai, usdc})

	mk := func(addr, sym string) types.Asset {
		a, err := types.NewAsset(addr, sym, sym, 18, decimal.NewFromInt(1))
		require.NoError(t, err)
		return a
	}
	in := []types.Asset{mk(weth, "WETH"), mk(dai, "DAI"), mk(usdc, "USDC")}

	out := f.FilterSupported(in)
	require.Len(t, out, 2)
	assert.Equal(t, "DAI", out[0].Symbol)
	assert.Equal(t, "USDC", out[1].Symbol)
}

func TestStaticFilter_EmptyList(t *testing.T) {
	f := NewStaticFilter(nil)
	assert.False(t, f.IsSupported(dai))
	assert.Empty(t, f.FilterSupported([]types.Asset{{Address: dai}}))
}
