package decision

import (
	"math"

	"github.com/wonny/verdict/internal/contracts"
)

// Warnings emitted by the planner
const (
	WarnInsufficientIndicators = "insufficient_indicators"
	WarnGateDeclined           = "gate_declined"
	WarnPositionSizeZero       = "position_size_zero"
)

// Planner derives one DecisionCore per (symbol, day) from indicators and the
// frozen policy snapshot. Pure function of its inputs: no randomness, no
// wall-clock reads, so identical indicators + identical policy fingerprint
// always yield byte-identical decisions.
type Planner struct {
	policy   contracts.PolicySnapshot
	policyID string
	gate     Gate
}

// NewPlanner freezes the policy and resolves the promotion gate for a plan id
func NewPlanner(policy contracts.PolicySnapshot, planID string) (*Planner, error) {
	id, err := policy.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &Planner{
		policy:   policy,
		policyID: id,
		gate:     GateFor(planID),
	}, nil
}

// PolicyID returns the policy fingerprint stamped on every decision
func (p *Planner) PolicyID() string {
	return p.policyID
}

// BuildForDay always produces a decision: absence of tradeable structure
// yields an explicit NO with a warning, never a missing record.
func (p *Planner) BuildForDay(symbol string, ind contracts.IndicatorSet) (contracts.DecisionCore, error) {
	base := contracts.DecisionCore{
		Symbol:           symbol,
		Date:             ind.Date,
		TimeStopDays:     p.policy.TradePlan.TimeStopDays,
		Rank:             1,
		PolicySnapshotID: p.policyID,
	}

	// A structure is active only when both breakout levels exist and the high
	// strictly exceeds the low
	if ind.HH20 == nil || ind.LL20 == nil || *ind.HH20 <= *ind.LL20 {
		base.BuySignal = contracts.SignalNo
		base.PlanArgs = map[string]string{"status": "inactive"}
		base.Warnings = []string{WarnInsufficientIndicators}
		return contracts.NewDecisionCore(base)
	}

	entry := *ind.HH20
	stop := *ind.LL20
	base.PlanScore = planScore(ind)
	base.PlanArgs = map[string]string{"status": "active"}

	signal := p.gate.Evaluate(ind)
	if signal == contracts.SignalNo {
		base.BuySignal = contracts.SignalNo
		base.Warnings = []string{WarnGateDeclined}
		return contracts.NewDecisionCore(base)
	}

	shares := p.positionSize(entry, stop, signal)
	if shares <= 0 {
		// risk budget cannot buy a single lot at this price
		base.BuySignal = contracts.SignalNo
		base.Warnings = []string{WarnPositionSizeZero}
		return contracts.NewDecisionCore(base)
	}

	risk := entry - stop
	base.BuySignal = signal
	base.Entry = contracts.Fptr(entry)
	base.Stop = contracts.Fptr(stop)
	base.Target2R = contracts.Fptr(entry + 2.0*risk)
	base.Target3R = contracts.Fptr(entry + 3.0*risk)
	base.PositionSize = contracts.Fptr(shares)
	base.MaxLoss = contracts.Fptr(shares * risk)
	base.Warnings = []string{}
	return contracts.NewDecisionCore(base)
}

// positionSize converts the per-trade risk budget into whole lots, capped by
// the max position notional. YES_HALF halves the risk budget before sizing.
func (p *Planner) positionSize(entry, stop float64, signal contracts.BuySignal) float64 {
	perShareRisk := entry - stop
	if perShareRisk <= 0 || entry <= 0 {
		return 0
	}

	budget := p.policy.Account.Equity * p.policy.Risk.RiskPerTradePct
	if signal == contracts.SignalYesHalf {
		budget /= 2
	}

	lot := float64(p.policy.Constraints.LotSize)
	shares := math.Floor(budget/perShareRisk/lot) * lot

	if maxPct := p.policy.Risk.MaxPositionPct; maxPct > 0 {
		maxShares := math.Floor(p.policy.Account.Equity*maxPct/entry/lot) * lot
		if shares > maxShares {
			shares = maxShares
		}
	}

	return shares
}

// planScore orders candidates deterministically: proximity to the rolling
// high, volume-confirmed setups first
func planScore(ind contracts.IndicatorSet) float64 {
	score := 0.0
	if ind.CloseToHH20 != nil {
		score = *ind.CloseToHH20
	}
	if ind.VRatio20 != nil && *ind.VRatio20 > 1 {
		score += 0.001 * math.Min(*ind.VRatio20, 10)
	}
	return score
}
