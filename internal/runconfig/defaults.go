package runconfig

import (
	"github.com/wonny/verdict/internal/contracts"
)

// Universe source kinds
const (
	UniverseStatic   = "STATIC"
	UniverseDatabase = "DATABASE"
	UniverseScrape   = "SCRAPE"
)

// Report output formats
const (
	ReportFormatJSON = "JSON"
	ReportFormatText = "TEXT"
)

// UniverseConfig selects how the run's symbol universe is obtained
type UniverseConfig struct {
	Source  string   `yaml:"source" json:"source"`
	Symbols []string `yaml:"symbols" json:"symbols"` // non-empty overrides Source
}

// ReportConfig controls report assembly
type ReportConfig struct {
	Format         string `yaml:"format" json:"format"`
	IncludeSkipped bool   `yaml:"include_skipped" json:"include_skipped"`
}

// SummaryConfig controls the non-authoritative prose summary layer
type SummaryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Config is the fully resolved run configuration. Resolution happens exactly
// once, at run start; stages receive the resolved value and never consult
// ambient state.
// ⭐ SSOT: 런 설정 필드 정의는 여기서만
type Config struct {
	Market       string `yaml:"market" json:"market"`
	LookbackDays int    `yaml:"lookback_days" json:"lookback_days"`
	AdjustPrices bool   `yaml:"adjust_prices" json:"adjust_prices"`

	ATRPeriod int `yaml:"atr_period" json:"atr_period"`
	RSIPeriod int `yaml:"rsi_period" json:"rsi_period"`

	PlanID string `yaml:"plan_id" json:"plan_id"`

	MaxCandidates   int  `yaml:"max_candidates" json:"max_candidates"`
	MaxPositions    int  `yaml:"max_positions" json:"max_positions"`
	DegradedOnError bool `yaml:"degraded_on_error" json:"degraded_on_error"`

	Universe UniverseConfig `yaml:"universe" json:"universe"`
	Report   ReportConfig   `yaml:"report" json:"report"`
	Summary  SummaryConfig  `yaml:"summary" json:"summary"`
}

// Defaults returns the built-in configuration for a market. Unknown markets
// fall back to the global base with an empty Market; Resolve rejects them at
// validation.
func Defaults(market string) Config {
	cfg := Config{
		Market:          market,
		AdjustPrices:    true,
		ATRPeriod:       14,
		RSIPeriod:       14,
		PlanID:          "swing_basic",
		MaxCandidates:   30,
		MaxPositions:    10,
		DegradedOnError: true,
		Universe:        UniverseConfig{Source: UniverseStatic},
		Report:          ReportConfig{Format: ReportFormatJSON, IncludeSkipped: true},
		Summary:         SummaryConfig{Enabled: false},
	}

	switch market {
	case contracts.MarketJP:
		cfg.LookbackDays = 120
	case contracts.MarketUS:
		cfg.LookbackDays = 200
	}

	return cfg
}

// DefaultPolicy returns the built-in policy snapshot for a market.
// Used when the operator supplies no policy file; all values mirror the
// conservative sizing assumptions documented in the policy schema.
func DefaultPolicy(market, asof string) contracts.PolicySnapshot {
	p := contracts.PolicySnapshot{
		AsOf: asof,
		Risk: contracts.RiskPolicy{
			RiskPerTradePct:        0.005,
			MaxPositionPct:         0.10,
			MaxConcurrentPositions: 10,
		},
		Execution: contracts.ExecutionPolicy{
			SlippagePct:        0.001,
			CommissionPerOrder: 0,
			TaxPct:             0,
		},
		TradePlan: contracts.TradePlanPolicy{
			EntryBufferPct: 0.001,
			ATRPeriod:      14,
			ATRStopK:       2.0,
			SwingLookback:  20,
			TimeStopDays:   40,
		},
	}

	switch market {
	case contracts.MarketUS:
		p.Account = contracts.AccountPolicy{Equity: 10000, Currency: "USD"}
		p.Constraints = contracts.MarketConstraints{Market: contracts.MarketUS, LotSize: 1}
	default:
		p.Account = contracts.AccountPolicy{Equity: 1000000, Currency: "JPY"}
		p.Constraints = contracts.MarketConstraints{Market: contracts.MarketJP, LotSize: 100}
	}

	return p
}
