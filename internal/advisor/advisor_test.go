package advisor

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/WHXisWH/AlpacaPay/internal/config"
	"github.com/WHXisWH/AlpacaPay/internal/eligibility"
	"github.com/WHXisWH/AlpacaPay/internal/marketdata"
	"github.com/WHXisWH/AlpacaPay/internal/providers/staticprov"
	"github.com/WHXisWH/AlpacaPay/internal/scoring"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

const (
	dai  = "0x6b175474e89094c44da98b954eedeac495271d0f"
	aave = "0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9"
	weth = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
)

type capturingPublisher struct {
	wallet string
	rec    *types.Recommendation
}

func (c *capturingPublisher) PublishRecommendation(_ context.Context, wallet string, rec *types.Recommendation) error {
	c.wallet, c.rec = wallet, rec
	return nil
}

func newTestAdvisor(t *testing.T, filter eligibility.Filter, pub RecPublisher) *Advisor {
	t.Helper()
	cache, err := marketdata.NewCache(staticprov.New(), time.Minute, time.Minute, zap.NewNop())
	require.NoError(t, err)
	engine, err := scoring.NewEngine(config.Default().Scoring)
	require.NoError(t, err)
	return New(filter, cache, engine, pub, zap.NewNop())
}

func mkAsset(t *testing.T, addr, sym, balance string) types.Asset {
	t.Helper()
	a, err := types.NewAsset(addr, sym, sym, 18, decimal.RequireFromString(balance))
	require.NoError(t, err)
	return a
}

func TestRecommend_EndToEnd(t *testing.T) {
	pub := &capturingPublisher{}
	adv := newTestAdvisor(t, eligibility.NewStaticFilter([]string{dai, aave}), pub)

	assets := []types.Asset{
		mkAsset(t, dai, "DAI", "1000"),
		mkAsset(t, aave, "AAVE", "50"),
		mkAsset(t, weth, "WETH", "10"), // not paymaster-supported
	}

	rec, ok := adv.Recommend(context.Background(), "0xwallet", assets)
	require.True(t, ok)
	require.Len(t, rec.Ranked, 2, "ineligible assets never reach the scorer")
	// stable, liquid DAI with a fat balance beats AAVE on the fixture data
	assert.Equal(t, "DAI", rec.Best.Asset.Symbol)
	assert.Positive(t, rec.Best.Score)

	require.NotNil(t, pub.rec)
	assert.Equal(t, "0xwallet", pub.wallet)
	assert.Equal(t, rec.Best.Asset.Address, pub.rec.Best.Asset.Address)
}

func TestRecommend_NothingEligible(t *testing.T) {
	adv := newTestAdvisor(t, eligibility.NewStaticFilter(nil), nil)

	rec, ok := adv.Recommend(context.Background(), "0xwallet", []types.Asset{
		mkAsset(t, dai, "DAI", "1000"),
	})
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestRecommend_EmptyWallet(t *testing.T) {
	adv := newTestAdvisor(t, eligibility.NewStaticFilter([]string{dai}), nil)
	rec, ok := adv.Recommend(context.Background(), "0xwallet", nil)
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestRecommend_WorksWithoutPublisher(t *testing.T) {
	adv := newTestAdvisor(t, eligibility.NewStaticFilter([]string{dai}), nil)
	rec, ok := adv.Recommend(context.Background(), "0xwallet", []types.Asset{
		mkAsset(t, dai, "DAI", "250"),
	})
	require.True(t, ok)
	assert.Equal(t, "DAI", rec.Best.Asset.Symbol)
}
