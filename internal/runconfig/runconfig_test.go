package runconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/verdict/internal/contracts"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults_PerMarket(t *testing.T) {
	jp := Defaults(contracts.MarketJP)
	assert.Equal(t, 120, jp.LookbackDays)
	assert.Equal(t, "swing_basic", jp.PlanID)
	assert.Equal(t, 30, jp.MaxCandidates)
	assert.True(t, jp.DegradedOnError)

	us := Defaults(contracts.MarketUS)
	assert.Equal(t, 200, us.LookbackDays)
}

func TestResolve_NoOverride(t *testing.T) {
	cfg, err := Resolve(contracts.MarketJP, "")
	require.NoError(t, err)
	assert.Equal(t, contracts.MarketJP, cfg.Market)
	assert.Equal(t, UniverseStatic, cfg.Universe.Source)
}

func TestResolve_OverrideMergesOntoDefaults(t *testing.T) {
	path := writeFile(t, "override.yaml", `
lookback_days: 90
universe:
  source: STATIC
  symbols: ["7203.T", "6758.T"]
`)

	cfg, err := Resolve(contracts.MarketJP, path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.LookbackDays)
	assert.Equal(t, []string{"7203.T", "6758.T"}, cfg.Universe.Symbols)
	// untouched defaults survive the merge
	assert.Equal(t, 30, cfg.MaxCandidates)
	assert.Equal(t, "swing_basic", cfg.PlanID)
}

func TestResolve_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "override.yaml", "lookback_dayz: 90\n")

	_, err := Resolve(contracts.MarketJP, path)
	assert.Error(t, err)
}

func TestResolve_RejectsInvalidValues(t *testing.T) {
	path := writeFile(t, "override.yaml", "max_candidates: 0\n")

	_, err := Resolve(contracts.MarketJP, path)
	assert.Error(t, err)
}

func TestResolve_RejectsUnknownMarket(t *testing.T) {
	_, err := Resolve("KR", "")
	assert.Error(t, err)
}

func TestConfigHash_Deterministic(t *testing.T) {
	a, err := Defaults(contracts.MarketJP).Hash()
	require.NoError(t, err)
	b, err := Defaults(contracts.MarketJP).Hash()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Defaults(contracts.MarketJP)
	changed.LookbackDays = 121
	c, err := changed.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestLoadPolicy_DefaultsWhenNoFile(t *testing.T) {
	p, err := LoadPolicy("", contracts.MarketJP, "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", p.AsOf)
	assert.Equal(t, "JPY", p.Account.Currency)
	assert.Equal(t, 100, p.Constraints.LotSize)
	assert.Equal(t, 0.005, p.Risk.RiskPerTradePct)
	assert.Equal(t, 40, p.TradePlan.TimeStopDays)
}

func TestLoadPolicy_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "policy.yaml", `
account:
  equity: 5000000
  currency: JPY
risk:
  risk_per_trade_pct: 0.01
`)

	p, err := LoadPolicy(path, contracts.MarketJP, "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 5000000.0, p.Account.Equity)
	assert.Equal(t, 0.01, p.Risk.RiskPerTradePct)
	assert.Equal(t, 2.0, p.TradePlan.ATRStopK)
}

func TestLoadPolicy_RejectsInvalid(t *testing.T) {
	path := writeFile(t, "policy.yaml", `
account:
  equity: -1
`)

	_, err := LoadPolicy(path, contracts.MarketJP, "2025-01-15")
	assert.Error(t, err)
}
