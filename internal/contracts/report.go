package contracts

import (
	"fmt"
	"time"

	"github.com/wonny/verdict/internal/faults"
)

// SummarySource records who authored a report's prose summary
type SummarySource string

const (
	SummaryTemplate SummarySource = "TEMPLATE"
	SummaryLLM      SummarySource = "LLM"
	SummaryHuman    SummarySource = "HUMAN"
)

// SkippedSymbol records one symbol removed during a run, with its reason
type SkippedSymbol struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ReportPack is the audit artifact for one run: the decision pack plus
// everything an operator needs to judge its completeness.
type ReportPack struct {
	Pack           DecisionPack           `json:"pack"`
	SkippedSymbols []SkippedSymbol        `json:"skipped_symbols"`
	Degraded       bool                   `json:"degraded"`
	Notes          map[string]interface{} `json:"notes"`
}

// NewReportPack validates the pack and normalizes optional collections
func NewReportPack(pack DecisionPack, skipped []SkippedSymbol, degraded bool, notes map[string]interface{}) (ReportPack, error) {
	if pack.RunID == "" {
		return ReportPack{}, faults.ContractViolation("report pack requires a run_id")
	}
	if skipped == nil {
		skipped = []SkippedSymbol{}
	}
	if notes == nil {
		notes = map[string]interface{}{}
	}
	return ReportPack{
		Pack:           pack,
		SkippedSymbols: skipped,
		Degraded:       degraded,
		Notes:          notes,
	}, nil
}

// Report is the operator-facing end product: the report pack plus a
// non-authoritative prose summary. Identity fields are denormalized for
// storage/query and must agree with the embedded pack.
type Report struct {
	Market        string        `json:"market"`
	AsOf          string        `json:"asof"`
	RunID         string        `json:"run_id"`
	Pack          ReportPack    `json:"report_pack"`
	Summary       string        `json:"summary"`
	SummarySource SummarySource `json:"summary_source"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// NewReport cross-checks the denormalized identity against the embedded pack
func NewReport(market, asof, runID string, pack ReportPack, summary string, source SummarySource, generatedAt time.Time) (Report, error) {
	inner := pack.Pack
	if market != inner.Market || asof != inner.AsOf || runID != inner.RunID {
		return Report{}, faults.ContractViolation("report identity does not match embedded pack").
			WithContext(map[string]interface{}{
				"market": market, "asof": asof, "run_id": runID,
				"pack_market": inner.Market, "pack_asof": inner.AsOf, "pack_run_id": inner.RunID,
			})
	}
	switch source {
	case SummaryTemplate, SummaryLLM, SummaryHuman:
	default:
		return Report{}, faults.ContractViolation("summary_source must be TEMPLATE, LLM or HUMAN")
	}
	if generatedAt.IsZero() {
		return Report{}, faults.ContractViolation("generated_at must be set")
	}

	return Report{
		Market:        market,
		AsOf:          asof,
		RunID:         runID,
		Pack:          pack,
		Summary:       summary,
		SummarySource: source,
		GeneratedAt:   generatedAt,
	}, nil
}

// ShortSummary returns a one-line operator digest of the run
func (r Report) ShortSummary() string {
	active := 0
	for _, d := range r.Pack.Pack.Decisions {
		if d.BuySignal.Active() {
			active++
		}
	}
	status := "ok"
	if r.Pack.Degraded {
		status = "degraded"
	}
	return fmt.Sprintf("%s %s run=%s decisions=%d active=%d skipped=%d status=%s",
		r.Market, r.AsOf, r.RunID, len(r.Pack.Pack.Decisions), active,
		len(r.Pack.SkippedSymbols), status)
}
