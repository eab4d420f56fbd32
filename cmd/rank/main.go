package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/WHXisWH/AlpacaPay/internal/advisor"
	"github.com/WHXisWH/AlpacaPay/internal/config"
	"github.com/WHXisWH/AlpacaPay/internal/eligibility"
	"github.com/WHXisWH/AlpacaPay/internal/marketdata"
	"github.com/WHXisWH/AlpacaPay/internal/providers/coingecko"
	"github.com/WHXisWH/AlpacaPay/internal/providers/staticprov"
	"github.com/WHXisWH/AlpacaPay/internal/scoring"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// portfolioFile is the yaml shape the CLI reads: a wallet plus its balances.
type portfolioFile struct {
	Wallet string `yaml:"wallet"`
	Assets []struct {
		Address  string `yaml:"address"`
		Symbol   string `yaml:"symbol"`
		Name     string `yaml:"name"`
		Decimals uint8  `yaml:"decimals"`
		Balance  string `yaml:"balance"`
	} `yaml:"assets"`
}

func main() {
	portfolio := flag.String("portfolio", "./portfolio.yaml", "path to portfolio file")
	cfgPath := flag.String("config", "", "optional config file (defaults baked in)")
	live := flag.Bool("live", false, "use CoinGecko instead of the offline fixture provider")
	flag.Parse()

	log := zap.NewNop()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fatalf("config: %v", err)
		}
		cfg = loaded
	}

	b, err := os.ReadFile(*portfolio)
	if err != nil {
		fatalf("portfolio: %v", err)
	}
	var pf portfolioFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		fatalf("portfolio: %v", err)
	}

	assets := make([]types.Asset, 0, len(pf.Assets))
	for _, row := range pf.Assets {
		bal, err := decimal.NewFromString(row.Balance)
		if err != nil {
			fatalf("portfolio: bad balance %q for %s", row.Balance, row.Symbol)
		}
		a, err := types.NewAsset(row.Address, row.Symbol, row.Name, row.Decimals, bal)
		if err != nil {
			fatalf("portfolio: %v", err)
		}
		assets = append(assets, a)
	}
	if len(assets) == 0 {
		fatalf("portfolio: no assets")
	}

	var provider marketdata.Provider = staticprov.New()
	if *live {
		provider = coingecko.NewClient(cfg, log)
	}
	cache, err := marketdata.NewCache(provider, cfg.PriceTTL(), cfg.VolatilityTTL(), log)
	if err != nil {
		fatalf("cache: %v", err)
	}
	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		fatalf("scoring: %v", err)
	}

	// With no configured list every asset passes; the CLI is for inspecting
	// the ranking, not for enforcing the paymaster set.
	var filter eligibility.Filter
	if len(cfg.Paymaster.SupportedTokens) > 0 {
		filter = eligibility.NewStaticFilter(cfg.Paymaster.SupportedTokens)
	} else {
		addrs := make([]string, 0, len(assets))
		for _, a := range assets {
			addrs = append(addrs, a.Address)
		}
		filter = eligibility.NewStaticFilter(addrs)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adv := advisor.New(filter, cache, engine, nil, log)
	rec, ok := adv.Recommend(ctx, pf.Wallet, assets)
	if !ok {
		fmt.Println("no recommendation: no eligible assets")
		return
	}

	fmt.Printf("best fee token: %s (%s)  score=%.4f\n\n",
		rec.Best.Asset.Symbol, rec.Best.Asset.Address, rec.Best.Score)
	fmt.Printf("%-4s %-8s %-12s %8s %8s %8s %8s  %s\n",
		"#", "SYMBOL", "USD BALANCE", "BAL", "VOL", "SLIP", "SCORE", "REASONS")
	for i, sa := range rec.Ranked {
		fmt.Printf("%-4d %-8s %-12s %8.4f %8.4f %8.4f %8.4f  %s\n",
			i+1, sa.Asset.Symbol, "$"+sa.UsdBalance.StringFixed(2),
			sa.BalanceScore, sa.VolatilityScore, sa.SlippageScore, sa.Score,
			strings.Join(sa.Reasons, "; "))
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
