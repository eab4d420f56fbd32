package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/WHXisWH/AlpacaPay/internal/advisor"
	"github.com/WHXisWH/AlpacaPay/internal/config"
	"github.com/WHXisWH/AlpacaPay/internal/eligibility"
	"github.com/WHXisWH/AlpacaPay/internal/marketdata"
	"github.com/WHXisWH/AlpacaPay/internal/metrics"
	"github.com/WHXisWH/AlpacaPay/internal/providers/coingecko"
	"github.com/WHXisWH/AlpacaPay/internal/redisfeed"
	"github.com/WHXisWH/AlpacaPay/internal/scoring"
	"github.com/WHXisWH/AlpacaPay/internal/server"
)

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg.Build()
}

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("received signal, shutting down...")
		cancel()
	}()

	metrics.Serve(ctx, cfg.Metrics.ListenAddr, nil, logger)

	provider := coingecko.NewClient(cfg, logger)
	cache, err := marketdata.NewCache(provider, cfg.PriceTTL(), cfg.VolatilityTTL(), logger)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}

	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		logger.Fatal("scoring engine init failed", zap.Error(err))
	}

	filter := eligibility.NewStaticFilter(cfg.Paymaster.SupportedTokens)
	if len(cfg.Paymaster.SupportedTokens) == 0 {
		logger.Warn("paymaster supported-token list is empty; every request will come back empty")
	}

	var pub advisor.RecPublisher
	if cfg.Redis.Addr != "" {
		rp := redisfeed.NewPublisher(cfg)
		if err := rp.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, publishing disabled", zap.Error(err))
		} else {
			pub = rp
			defer rp.Close()
		}
	}

	adv := advisor.New(filter, cache, engine, pub, logger)
	srv := server.New(adv, logger)
	srv.Serve(ctx, cfg.Server.ListenAddr)

	logger.Info("advisor started",
		zap.String("api_addr", cfg.Server.ListenAddr),
		zap.Int("supported_tokens", len(cfg.Paymaster.SupportedTokens)),
		zap.Duration("price_ttl", cfg.PriceTTL()),
		zap.Duration("volatility_ttl", cfg.VolatilityTTL()),
	)

	<-ctx.Done()
	logger.Info("advisor finished")
}
