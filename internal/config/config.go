package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Weights struct {
	Balance    float64 `yaml:"balance"`
	Volatility float64 `yaml:"volatility"`
	Slippage   float64 `yaml:"slippage"`
}

func (w Weights) Sum() float64 { return w.Balance + w.Volatility + w.Slippage }

type ScoringCfg struct {
	Weights         Weights `yaml:"weights"`
	MinBalanceUSD   float64 `yaml:"min_balance_usd"`   // linear/log knee
	LogScaleDivisor float64 `yaml:"log_scale_divisor"` // ln(usd)/divisor
}

type CacheCfg struct {
	PriceTTLMs      int `yaml:"price_ttl_ms"`
	VolatilityTTLMs int `yaml:"volatility_ttl_ms"`
}

type Config struct {
	Scoring ScoringCfg `yaml:"scoring"`
	Cache   CacheCfg   `yaml:"cache"`

	Paymaster struct {
		SupportedTokens []string `yaml:"supported_tokens"`
	} `yaml:"paymaster"`

	CoinGecko struct {
		RestURL   string `yaml:"rest_url"`
		ApiKey    string `yaml:"api_key"`
		ProKey    bool   `yaml:"pro_key"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"coingecko"`

	Redis struct {
		Addr     string `yaml:"addr"`
		DB       int    `yaml:"db"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Stream   string `yaml:"stream"`
		SnapNS   string `yaml:"snap_ns"`
	} `yaml:"redis"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in configuration: the production scoring
// constants with no provider, redis or server wiring.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Scoring.Weights == (Weights{}) {
		c.Scoring.Weights = Weights{Balance: 0.4, Volatility: 0.3, Slippage: 0.3}
	}
	if c.Scoring.MinBalanceUSD == 0 {
		c.Scoring.MinBalanceUSD = 5
	}
	if c.Scoring.LogScaleDivisor == 0 {
		c.Scoring.LogScaleDivisor = 5
	}
	if c.Cache.PriceTTLMs == 0 {
		c.Cache.PriceTTLMs = 60_000
	}
	if c.Cache.VolatilityTTLMs == 0 {
		c.Cache.VolatilityTTLMs = 300_000
	}
	if c.CoinGecko.RestURL == "" {
		c.CoinGecko.RestURL = "https://api.coingecko.com/api/v3"
	}
	if c.CoinGecko.TimeoutMs == 0 {
		c.CoinGecko.TimeoutMs = 10_000
	}
}

// Validate rejects configurations the engine must not run with. This is the
// only error class that aborts instead of degrading.
func (c *Config) Validate() error {
	w := c.Scoring.Weights
	if w.Balance < 0 || w.Volatility < 0 || w.Slippage < 0 {
		return fmt.Errorf("scoring weights must be non-negative, got %+v", w)
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights sum to %.6f, expected 1.0", w.Sum())
	}
	if c.Scoring.MinBalanceUSD <= 0 {
		return fmt.Errorf("min_balance_usd must be positive, got %v", c.Scoring.MinBalanceUSD)
	}
	if c.Scoring.LogScaleDivisor <= 0 {
		return fmt.Errorf("log_scale_divisor must be positive, got %v", c.Scoring.LogScaleDivisor)
	}
	if c.Cache.PriceTTLMs <= 0 || c.Cache.VolatilityTTLMs <= 0 {
		return fmt.Errorf("cache TTLs must be positive, got price=%dms volatility=%dms",
			c.Cache.PriceTTLMs, c.Cache.VolatilityTTLMs)
	}
	return nil
}

func (c *Config) PriceTTL() time.Duration {
	return time.Duration(c.Cache.PriceTTLMs) * time.Millisecond
}

func (c *Config) VolatilityTTL() time.Duration {
	return time.Duration(c.Cache.VolatilityTTLMs) * time.Millisecond
}

func (c *Config) CoinGeckoTimeout() time.Duration {
	return time.Duration(c.CoinGecko.TimeoutMs) * time.Millisecond
}
