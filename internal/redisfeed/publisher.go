package redisfeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/WHXisWH/AlpacaPay/internal/config"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// Publisher mirrors each recommendation into Redis: an append-only stream
// for downstream consumers and a latest-per-wallet hash for the UI.
type Publisher struct {
	rdb    *redis.Client
	stream string
	snapNS string
}

func NewPublisher(cfg *config.Config) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	stream := cfg.Redis.Stream
	if stream == "" {
		stream = "gas:recommendations"
	}
	snapNS := cfg.Redis.SnapNS
	if snapNS == "" {
		snapNS = "gas:latest:"
	}
	return &Publisher{rdb: rdb, stream: stream, snapNS: snapNS}
}

func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// PublishRecommendation writes the winner to the stream and overwrites the
// wallet's latest snapshot. Ranked payload goes along as JSON for audit.
func (p *Publisher) PublishRecommendation(ctx context.Context, wallet string, rec *types.Recommendation) error {
	ranked, err := json.Marshal(rec.Ranked)
	if err != nil {
		return err
	}
	tsMs := time.Now().UnixMilli()

	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: 10_000,
		Approx: true,
		Values: map[string]interface{}{
			"wallet": wallet,
			"token":  rec.Best.Asset.Address,
			"symbol": rec.Best.Asset.Symbol,
			"score":  rec.Best.Score,
			"ts_ms":  tsMs,
		},
	}).Err(); err != nil {
		return err
	}

	return p.rdb.HSet(ctx, p.snapNS+wallet, map[string]interface{}{
		"token":  rec.Best.Asset.Address,
		"symbol": rec.Best.Asset.Symbol,
		"score":  rec.Best.Score,
		"ranked": ranked,
		"ts_ms":  tsMs,
	}).Err()
}

func (p *Publisher) Close() error { return p.rdb.Close() }
