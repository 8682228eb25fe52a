package decision

import (
	"github.com/wonny/verdict/internal/contracts"
)

// Gate decides whether an active breakout structure is promoted to an
// executable signal. The structure detection itself is fixed; the promotion
// rule is operator-selectable per plan id.
// ⭐ SSOT: YES/YES_HALF 승격 조건은 Gate 구현에만 존재
type Gate interface {
	// Evaluate returns the signal for one day's indicators. Called only when
	// the breakout structure is active; returning NO keeps the decision
	// passive.
	Evaluate(ind contracts.IndicatorSet) contracts.BuySignal
}

// HoldGate never promotes. It reproduces the passive reference behavior and
// is the fallback for unknown plan ids.
type HoldGate struct{}

func (HoldGate) Evaluate(contracts.IndicatorSet) contracts.BuySignal {
	return contracts.SignalNo
}

// MomentumBreakoutGate promotes structures trading near their rolling high on
// above-average volume. Thresholds are fixed per instance so two runs with
// the same gate produce byte-identical decisions.
type MomentumBreakoutGate struct {
	// FullProximity is the close/hh_20 ratio at or above which full size is
	// taken (e.g. 0.995)
	FullProximity float64
	// HalfProximity is the ratio for half size (e.g. 0.98)
	HalfProximity float64
	// MinVolumeRatio is the v_ratio_20 floor for any promotion (e.g. 1.2)
	MinVolumeRatio float64
}

func (g MomentumBreakoutGate) Evaluate(ind contracts.IndicatorSet) contracts.BuySignal {
	if ind.CloseToHH20 == nil || ind.VRatio20 == nil {
		return contracts.SignalNo
	}
	if *ind.VRatio20 < g.MinVolumeRatio {
		return contracts.SignalNo
	}
	switch {
	case *ind.CloseToHH20 >= g.FullProximity:
		return contracts.SignalYes
	case *ind.CloseToHH20 >= g.HalfProximity:
		return contracts.SignalYesHalf
	default:
		return contracts.SignalNo
	}
}

// Plan ids understood by GateFor
const (
	PlanSwingBasic    = "swing_basic"
	PlanSwingMomentum = "swing_momentum"
)

// GateFor maps a plan id to its promotion gate. Unknown ids resolve to the
// passive gate rather than failing: a misspelled plan must never produce
// accidental buys.
func GateFor(planID string) Gate {
	switch planID {
	case PlanSwingMomentum:
		return MomentumBreakoutGate{
			FullProximity:  0.995,
			HalfProximity:  0.98,
			MinVolumeRatio: 1.2,
		}
	default:
		return HoldGate{}
	}
}
