package marketdata

import (
	"context"

	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// Provider is the single typed contract for external market data. Upstream
// APIs with looser shapes are adapted in internal/providers; nothing past
// this boundary probes response shapes.
//
// All three calls take the exact identifier subset they should fetch and
// return a map keyed by canonical lowercase address. A missing key means the
// provider has no data for that token; that is not an error.
type Provider interface {
	FetchPrices(ctx context.Context, ids []string) (map[string]float64, error)
	FetchVolatility(ctx context.Context, ids []string) (map[string]float64, error)
	FetchSlippage(ctx context.Context, ids []string) (map[string]types.SlippageQuote, error)
}
