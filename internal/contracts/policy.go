package contracts

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/wonny/verdict/internal/faults"
)

// AccountPolicy holds the operator-side account assumptions
type AccountPolicy struct {
	Equity   float64 `yaml:"equity" json:"equity"`
	Currency string  `yaml:"currency" json:"currency"` // JPY | USD
}

// RiskPolicy holds per-trade and portfolio-level risk caps
type RiskPolicy struct {
	RiskPerTradePct        float64 `yaml:"risk_per_trade_pct" json:"risk_per_trade_pct"`
	MaxPositionPct         float64 `yaml:"max_position_pct" json:"max_position_pct"`
	MaxConcurrentPositions int     `yaml:"max_concurrent_positions" json:"max_concurrent_positions"`
}

// ExecutionPolicy holds conservative fill assumptions
type ExecutionPolicy struct {
	SlippagePct        float64 `yaml:"slippage_pct" json:"slippage_pct"`
	CommissionPerOrder float64 `yaml:"commission_per_order" json:"commission_per_order"`
	TaxPct             float64 `yaml:"tax_pct" json:"tax_pct"`
}

// MarketConstraints holds market/lot/liquidity constraints
type MarketConstraints struct {
	Market             string  `yaml:"market" json:"market"`
	LotSize            int     `yaml:"lot_size" json:"lot_size"`
	MinPrice           float64 `yaml:"min_price" json:"min_price"`
	MinAvgDollarVolume float64 `yaml:"min_avg_dollar_volume" json:"min_avg_dollar_volume"`
	ImpactCapPct       float64 `yaml:"impact_cap_pct" json:"impact_cap_pct"`
}

// TradePlanPolicy holds the price-construction parameters
type TradePlanPolicy struct {
	EntryBufferPct float64 `yaml:"entry_buffer_pct" json:"entry_buffer_pct"`
	ATRPeriod      int     `yaml:"atr_period" json:"atr_period"`
	ATRStopK       float64 `yaml:"atr_stop_k" json:"atr_stop_k"`
	SwingLookback  int     `yaml:"swing_lookback" json:"swing_lookback"`
	TimeStopDays   int     `yaml:"time_stop_days" json:"time_stop_days"`
}

// PolicySnapshot freezes the operator's risk/account/constraint assumptions
// for one run. Identified by a content-derived fingerprint so every decision
// can be traced back to exactly the assumptions that produced it.
// ⭐ SSOT: 런 단위 정책 전제는 이 스냅샷에만 존재
type PolicySnapshot struct {
	AsOf        string            `yaml:"asof" json:"asof"`
	Account     AccountPolicy     `yaml:"account" json:"account"`
	Risk        RiskPolicy        `yaml:"risk" json:"risk"`
	Execution   ExecutionPolicy   `yaml:"execution" json:"execution"`
	Constraints MarketConstraints `yaml:"constraints" json:"constraints"`
	TradePlan   TradePlanPolicy   `yaml:"trade_plan" json:"trade_plan"`
}

// Validate checks all field constraints and cross-field invariants
func (p PolicySnapshot) Validate() error {
	if !ValidDate(p.AsOf) {
		return faults.Configuration("policy asof must be YYYY-MM-DD")
	}
	if p.Account.Equity <= 0 {
		return faults.Configuration("account.equity must be > 0")
	}
	if p.Account.Currency != "JPY" && p.Account.Currency != "USD" {
		return faults.Configuration("account.currency must be JPY or USD")
	}

	for _, pct := range []struct {
		name string
		v    float64
	}{
		{"risk.risk_per_trade_pct", p.Risk.RiskPerTradePct},
		{"risk.max_position_pct", p.Risk.MaxPositionPct},
		{"execution.slippage_pct", p.Execution.SlippagePct},
		{"execution.tax_pct", p.Execution.TaxPct},
		{"constraints.impact_cap_pct", p.Constraints.ImpactCapPct},
		{"trade_plan.entry_buffer_pct", p.TradePlan.EntryBufferPct},
	} {
		if pct.v < 0 || pct.v > 1 {
			return faults.Configuration(fmt.Sprintf("%s must be in [0, 1]", pct.name))
		}
	}

	if p.Execution.CommissionPerOrder < 0 {
		return faults.Configuration("execution.commission_per_order must be >= 0")
	}
	if p.Constraints.Market != MarketJP && p.Constraints.Market != MarketUS {
		return faults.Configuration("constraints.market must be JP or US")
	}
	if p.Constraints.LotSize < 1 {
		return faults.Configuration("constraints.lot_size must be >= 1")
	}
	if p.Constraints.MinPrice < 0 {
		return faults.Configuration("constraints.min_price must be >= 0")
	}
	if p.Constraints.MinAvgDollarVolume < 0 {
		return faults.Configuration("constraints.min_avg_dollar_volume must be >= 0")
	}
	if p.Risk.MaxConcurrentPositions < 1 {
		return faults.Configuration("risk.max_concurrent_positions must be >= 1")
	}
	if p.TradePlan.ATRPeriod < 1 {
		return faults.Configuration("trade_plan.atr_period must be >= 1")
	}
	if p.TradePlan.ATRStopK <= 0 {
		return faults.Configuration("trade_plan.atr_stop_k must be > 0")
	}
	if p.TradePlan.SwingLookback < 2 {
		return faults.Configuration("trade_plan.swing_lookback must be >= 2")
	}
	if p.TradePlan.TimeStopDays < 1 {
		return faults.Configuration("trade_plan.time_stop_days must be >= 1")
	}

	return nil
}

// Fingerprint returns the deterministic content hash of the snapshot
// (SHA-1 of canonical JSON, first 12 hex chars).
// 주의: struct 직렬화라 필드 순서가 고정되어 해시 재현성이 보장됨
func (p PolicySnapshot) Fingerprint() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", faults.Execution("policy snapshot serialization failed").WithCause(err)
	}

	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])[:12], nil
}
