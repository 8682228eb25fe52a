package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPolicy() PolicySnapshot {
	return PolicySnapshot{
		AsOf: "2025-01-15",
		Account: AccountPolicy{
			Equity:   1000000,
			Currency: "JPY",
		},
		Risk: RiskPolicy{
			RiskPerTradePct:        0.005,
			MaxPositionPct:         0.2,
			MaxConcurrentPositions: 5,
		},
		Execution: ExecutionPolicy{
			SlippagePct:        0.001,
			CommissionPerOrder: 0,
			TaxPct:             0,
		},
		Constraints: MarketConstraints{
			Market:             MarketJP,
			LotSize:            100,
			MinPrice:           100,
			MinAvgDollarVolume: 100000000,
			ImpactCapPct:       0.01,
		},
		TradePlan: TradePlanPolicy{
			EntryBufferPct: 0.002,
			ATRPeriod:      14,
			ATRStopK:       1.5,
			SwingLookback:  20,
			TimeStopDays:   40,
		},
	}
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, validPolicy().Validate())

	tests := []struct {
		name   string
		mutate func(*PolicySnapshot)
	}{
		{"zero equity", func(p *PolicySnapshot) { p.Account.Equity = 0 }},
		{"bad currency", func(p *PolicySnapshot) { p.Account.Currency = "EUR" }},
		{"pct out of range", func(p *PolicySnapshot) { p.Risk.RiskPerTradePct = 1.5 }},
		{"bad market", func(p *PolicySnapshot) { p.Constraints.Market = "KR" }},
		{"zero lot", func(p *PolicySnapshot) { p.Constraints.LotSize = 0 }},
		{"swing lookback too small", func(p *PolicySnapshot) { p.TradePlan.SwingLookback = 1 }},
		{"zero time stop", func(p *PolicySnapshot) { p.TradePlan.TimeStopDays = 0 }},
		{"bad asof", func(p *PolicySnapshot) { p.AsOf = "15/01/2025" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPolicy()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	a, err := validPolicy().Fingerprint()
	require.NoError(t, err)
	b, err := validPolicy().Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 12)
}

func TestFingerprint_DivergesOnChange(t *testing.T) {
	base, err := validPolicy().Fingerprint()
	require.NoError(t, err)

	changed := validPolicy()
	changed.Risk.RiskPerTradePct = 0.01
	other, err := changed.Fingerprint()
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}
