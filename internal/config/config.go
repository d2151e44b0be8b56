// Package config loads runtime configuration from flags, environment
// variables (prefix LPLAB_), and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/reconcile"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	// Funding policy.
	FundingAsset          string
	FundingRatio          float64
	BaseAssets            []string
	DeployFraction        float64
	OverMultiple          float64
	OptimalFraction       float64
	FDVHeuristic          string
	MarketCapDefaultRatio float64

	// Cycle bounds.
	PositionStaleness time.Duration
	MetricsWindow     time.Duration
	MismatchTolerance int

	// Storage.
	PostgresDSN   string
	ClickhouseDSN string

	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LPLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("funding-asset", "BIO")
	v.SetDefault("funding-ratio", 0.01)
	v.SetDefault("base-assets", []string{"BIO", "WETH", "ETH", "SOL", "USDC", "USDT"})
	v.SetDefault("deploy-fraction", 1.0/3.0)
	v.SetDefault("over-multiple", 2.0)
	v.SetDefault("optimal-fraction", 0.8)
	v.SetDefault("fdv-heuristic", string(reconcile.FDVHeuristicMax))
	v.SetDefault("market-cap-default-ratio", 0.5)
	v.SetDefault("position-staleness", 48*time.Hour)
	v.SetDefault("metrics-window", 7*24*time.Hour)
	v.SetDefault("mismatch-tolerance", 0)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		FundingAsset:          v.GetString("funding-asset"),
		FundingRatio:          v.GetFloat64("funding-ratio"),
		BaseAssets:            v.GetStringSlice("base-assets"),
		DeployFraction:        v.GetFloat64("deploy-fraction"),
		OverMultiple:          v.GetFloat64("over-multiple"),
		OptimalFraction:       v.GetFloat64("optimal-fraction"),
		FDVHeuristic:          v.GetString("fdv-heuristic"),
		MarketCapDefaultRatio: v.GetFloat64("market-cap-default-ratio"),
		PositionStaleness:     v.GetDuration("position-staleness"),
		MetricsWindow:         v.GetDuration("metrics-window"),
		MismatchTolerance:     v.GetInt("mismatch-tolerance"),
		PostgresDSN:           v.GetString("postgres-dsn"),
		ClickhouseDSN:         v.GetString("clickhouse-dsn"),
		LogLevel:              v.GetString("log-level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.FundingAsset == "" {
		return fmt.Errorf("funding-asset must not be empty")
	}
	if c.FundingRatio <= 0 || c.FundingRatio > 1 {
		return fmt.Errorf("funding-ratio must be in (0, 1], got %v", c.FundingRatio)
	}
	if !reconcile.FDVHeuristic(c.FDVHeuristic).Valid() {
		return fmt.Errorf("unknown fdv-heuristic %q", c.FDVHeuristic)
	}
	if c.DeployFraction <= 0 || c.OptimalFraction <= c.DeployFraction || c.OverMultiple <= 1 {
		return fmt.Errorf("status thresholds must satisfy 0 < deploy-fraction < optimal-fraction and over-multiple > 1")
	}
	if c.PositionStaleness <= 0 {
		return fmt.Errorf("position-staleness must be positive, got %v", c.PositionStaleness)
	}
	if c.MetricsWindow <= 0 {
		return fmt.Errorf("metrics-window must be positive, got %v", c.MetricsWindow)
	}
	if c.MismatchTolerance < 0 {
		return fmt.Errorf("mismatch-tolerance must not be negative, got %d", c.MismatchTolerance)
	}
	return nil
}

// Policy converts the loaded configuration into the funding policy threaded
// through the reconciliation pipeline.
func (c Config) Policy() reconcile.Policy {
	return reconcile.Policy{
		FundingAsset: domain.NormalizeSymbol(c.FundingAsset),
		FundingRatio: c.FundingRatio,
		Thresholds: reconcile.Thresholds{
			DeployFraction:  c.DeployFraction,
			OverMultiple:    c.OverMultiple,
			OptimalFraction: c.OptimalFraction,
		},
		BaseAssets:            domain.NewBaseAssetSet(c.BaseAssets),
		FDVHeuristic:          reconcile.FDVHeuristic(c.FDVHeuristic),
		DefaultMarketCapRatio: c.MarketCapDefaultRatio,
	}
}
