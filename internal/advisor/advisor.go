package advisor

import (
	"context"

	"go.uber.org/zap"

	"github.com/WHXisWH/AlpacaPay/internal/eligibility"
	"github.com/WHXisWH/AlpacaPay/internal/marketdata"
	imetrics "github.com/WHXisWH/AlpacaPay/internal/metrics"
	"github.com/WHXisWH/AlpacaPay/internal/scoring"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// RecPublisher receives produced recommendations, e.g. the redis feed.
type RecPublisher interface {
	PublishRecommendation(ctx context.Context, wallet string, rec *types.Recommendation) error
}

// Advisor composes the recommendation pipeline: eligibility filter ->
// market data cache -> scoring engine. It owns no state of its own; each
// call is independent.
type Advisor struct {
	filter eligibility.Filter
	cache  *marketdata.Cache
	engine *scoring.Engine
	pub    RecPublisher // optional
	log    *zap.Logger
}

func New(filter eligibility.Filter, cache *marketdata.Cache, engine *scoring.Engine, pub RecPublisher, log *zap.Logger) *Advisor {
	return &Advisor{filter: filter, cache: cache, engine: engine, pub: pub, log: log}
}

// Recommend picks the best gas-fee token for the wallet's balances. ok is
// false when no eligible asset remains; that is an empty result, not an
// error. Provider trouble degrades to stale or missing market data and the
// scoring defaults absorb the rest.
func (a *Advisor) Recommend(ctx context.Context, wallet string, assets []types.Asset) (*types.Recommendation, bool) {
	supported := a.filter.FilterSupported(assets)
	if len(supported) == 0 {
		imetrics.EmptyRecommendations.Inc()
		a.log.Info("no eligible fee tokens",
			zap.String("wallet", wallet),
			zap.Int("assets_in", len(assets)),
		)
		return nil, false
	}

	ids := make([]string, 0, len(supported))
	for _, candidate := range supported {
		ids = append(ids, candidate.Address)
	}
	md := a.cache.GetMarketData(ctx, ids)

	rec, ok := a.engine.Score(supported, md)
	if !ok {
		imetrics.EmptyRecommendations.Inc()
		return nil, false
	}

	imetrics.Recommendations.Inc()
	imetrics.BestScore.Set(rec.Best.Score)
	a.log.Info("recommendation",
		zap.String("wallet", wallet),
		zap.String("token", rec.Best.Asset.Address),
		zap.String("symbol", rec.Best.Asset.Symbol),
		zap.Float64("score", rec.Best.Score),
		zap.Strings("reasons", rec.Best.Reasons),
		zap.Int("candidates", len(rec.Ranked)),
	)

	if a.pub != nil {
		if err := a.pub.PublishRecommendation(ctx, wallet, rec); err != nil {
			a.log.Warn("recommendation publish failed", zap.Error(err))
		}
	}
	return rec, true
}
