package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lp-gap-lab/internal/reconcile"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "BIO", cfg.FundingAsset)
	assert.InDelta(t, 0.01, cfg.FundingRatio, 1e-12)
	assert.Equal(t, 48*time.Hour, cfg.PositionStaleness)
	assert.Equal(t, 7*24*time.Hour, cfg.MetricsWindow)
	assert.Equal(t, string(reconcile.FDVHeuristicMax), cfg.FDVHeuristic)
	assert.Contains(t, cfg.BaseAssets, "USDC")
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LPLAB_FUNDING_RATIO", "0.02")
	t.Setenv("LPLAB_FDV_HEURISTIC", string(reconcile.FDVHeuristicLatest))
	t.Setenv("LPLAB_POSITION_STALENESS", "24h")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.02, cfg.FundingRatio, 1e-12)
	assert.Equal(t, string(reconcile.FDVHeuristicLatest), cfg.FDVHeuristic)
	assert.Equal(t, 24*time.Hour, cfg.PositionStaleness)
}

func TestLoad_FlagOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("funding-ratio", 0.01, "")
	flags.String("postgres-dsn", "", "")
	require.NoError(t, flags.Parse([]string{
		"--funding-ratio=0.05",
		"--postgres-dsn=postgres://localhost/gaps",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.InDelta(t, 0.05, cfg.FundingRatio, 1e-12)
	assert.Equal(t, "postgres://localhost/gaps", cfg.PostgresDSN)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"LPLAB_FUNDING_RATIO":      "0",
		"LPLAB_FDV_HEURISTIC":      "median",
		"LPLAB_POSITION_STALENESS": "-1h",
		"LPLAB_MISMATCH_TOLERANCE": "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("", nil)
			assert.Error(t, err)
		})
	}
}

func TestPolicy_Conversion(t *testing.T) {
	t.Setenv("LPLAB_FUNDING_ASSET", "bio")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	policy := cfg.Policy()
	assert.Equal(t, "BIO", policy.FundingAsset, "funding asset is normalized")
	assert.True(t, policy.BaseAssets.Contains("usdc"), "base asset lookup is case-insensitive")
	assert.InDelta(t, 1.0/3.0, policy.Thresholds.DeployFraction, 1e-12)
	assert.InDelta(t, 2.0, policy.Thresholds.OverMultiple, 1e-12)
	assert.InDelta(t, 0.8, policy.Thresholds.OptimalFraction, 1e-12)
	assert.Equal(t, reconcile.FDVHeuristicMax, policy.FDVHeuristic)
}
