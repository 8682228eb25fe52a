package contracts

import (
	"github.com/wonny/verdict/internal/faults"
)

// DecisionCore is the terminal output for one (symbol, date).
//
// Structural invariants, enforced at construction:
//   - signal NO       ⇒ entry/stop/targets/position_size/max_loss all absent
//   - signal YES/HALF ⇒ all execution fields present,
//     stop < entry < target_2r < target_3r,
//     target_2r >= entry + 2R, target_3r >= entry + 3R (R = entry - stop),
//     position_size > 0
//
// A value violating these is internally inconsistent and is never emitted.
type DecisionCore struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`

	BuySignal BuySignal `json:"buy_signal"`

	// Execution quintuple (absent when BuySignal is NO)
	Entry        *float64 `json:"entry"`
	Stop         *float64 `json:"stop"`
	Target2R     *float64 `json:"target_2r"`
	Target3R     *float64 `json:"target_3r"`
	PositionSize *float64 `json:"position_size"`
	MaxLoss      *float64 `json:"max_loss"`

	TimeStopDays int `json:"time_stop_days"`

	PlanScore float64 `json:"plan_score"`
	Rank      int     `json:"rank"`

	PlanArgs         map[string]string `json:"plan_args"`
	PolicySnapshotID string            `json:"policy_snapshot_id"`
	Warnings         []string          `json:"warnings"`
}

// NewDecisionCore validates every invariant synchronously; construction never
// partially succeeds.
func NewDecisionCore(d DecisionCore) (DecisionCore, error) {
	if d.Symbol == "" {
		return DecisionCore{}, violation(d, "symbol must not be empty")
	}
	if !ValidDate(d.Date) {
		return DecisionCore{}, violation(d, "date must be YYYY-MM-DD")
	}
	if !d.BuySignal.Valid() {
		return DecisionCore{}, violation(d, "buy_signal must be YES, YES_HALF or NO")
	}
	if d.TimeStopDays < 1 {
		return DecisionCore{}, violation(d, "time_stop_days must be >= 1")
	}
	if d.Rank < 1 {
		return DecisionCore{}, violation(d, "rank must be >= 1")
	}
	if d.PolicySnapshotID == "" {
		return DecisionCore{}, violation(d, "policy_snapshot_id must not be empty")
	}

	if d.PlanArgs == nil {
		d.PlanArgs = map[string]string{}
	}
	if d.Warnings == nil {
		d.Warnings = []string{}
	}

	if d.BuySignal == SignalNo {
		// A NO decision never carries execution numbers
		if d.Entry != nil || d.Stop != nil || d.Target2R != nil || d.Target3R != nil {
			return DecisionCore{}, violation(d, "NO decision must not carry price fields")
		}
		if d.PositionSize != nil && *d.PositionSize != 0 {
			return DecisionCore{}, violation(d, "NO decision must not carry a position size")
		}
		if d.MaxLoss != nil && *d.MaxLoss != 0 {
			return DecisionCore{}, violation(d, "NO decision must not carry a max loss")
		}
		d.PositionSize = nil
		d.MaxLoss = nil
		return d, nil
	}

	// Active decision: full execution quintuple required
	if d.Entry == nil || d.Stop == nil || d.Target2R == nil || d.Target3R == nil ||
		d.PositionSize == nil || d.MaxLoss == nil {
		return DecisionCore{}, violation(d, "active decision requires all execution fields")
	}

	entry, stop := *d.Entry, *d.Stop
	if stop >= entry {
		return DecisionCore{}, violation(d, "active decision requires stop < entry")
	}

	risk := entry - stop
	if *d.Target2R < entry+2.0*risk {
		return DecisionCore{}, violation(d, "target_2r must be >= entry + 2R")
	}
	if *d.Target3R < entry+3.0*risk {
		return DecisionCore{}, violation(d, "target_3r must be >= entry + 3R")
	}
	if *d.Target2R >= *d.Target3R {
		return DecisionCore{}, violation(d, "active decision requires target_2r < target_3r")
	}
	if *d.PositionSize <= 0 {
		return DecisionCore{}, violation(d, "active decision requires position_size > 0")
	}
	if *d.MaxLoss < 0 {
		return DecisionCore{}, violation(d, "max_loss must be >= 0")
	}

	return d, nil
}

// WithRank derives a re-ranked copy; the receiver stays untouched
func (d DecisionCore) WithRank(rank int) (DecisionCore, error) {
	clone := d
	clone.Rank = rank
	return NewDecisionCore(clone)
}

func violation(d DecisionCore, msg string) error {
	return faults.ContractViolation(msg).WithContext(map[string]interface{}{
		"symbol": d.Symbol,
		"date":   d.Date,
	})
}

// DecisionPack is the unit of reproducibility and audit for one batch run
type DecisionPack struct {
	Market    string         `json:"market"`
	AsOf      string         `json:"asof"`
	RunID     string         `json:"run_id"`
	Decisions []DecisionCore `json:"decisions"`
}

// NewDecisionPack validates identity fields; decisions are assumed to have
// been constructed through NewDecisionCore
func NewDecisionPack(market, asof, runID string, decisions []DecisionCore) (DecisionPack, error) {
	if market == "" {
		return DecisionPack{}, faults.ContractViolation("pack market must not be empty")
	}
	if !ValidDate(asof) {
		return DecisionPack{}, faults.ContractViolation("pack asof must be YYYY-MM-DD")
	}
	if runID == "" {
		return DecisionPack{}, faults.ContractViolation("pack run_id must not be empty")
	}

	if decisions == nil {
		decisions = []DecisionCore{}
	}

	return DecisionPack{
		Market:    market,
		AsOf:      asof,
		RunID:     runID,
		Decisions: decisions,
	}, nil
}
