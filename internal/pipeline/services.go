package pipeline

import (
	"context"
	"fmt"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
)

// SymbolFeatures is the per-symbol output of the feature stage: the cleaned
// history and one IndicatorSet per trading day
type SymbolFeatures struct {
	Symbol     string
	History    contracts.OhlcvHistory
	Indicators map[string]contracts.IndicatorSet
}

// On returns the indicator set for one calendar date
func (f SymbolFeatures) On(date string) (contracts.IndicatorSet, bool) {
	s, ok := f.Indicators[date]
	return s, ok
}

// UniverseResolver produces the run's symbol universe. Any failure here is
// fatal: without a universe there is nothing to degrade to.
type UniverseResolver interface {
	Resolve(ctx context.Context, ec Context) ([]string, error)
}

// OhlcvLoader fetches raw, unvalidated EOD bars for one symbol. The only
// network-bound stage; implementations must honor ctx cancellation.
type OhlcvLoader interface {
	Load(ctx context.Context, ec Context, symbol string) (contracts.RawSeries, error)
}

// Preprocessor turns a raw series into a validated ascending history
type Preprocessor interface {
	Preprocess(ec Context, symbol string, raw contracts.RawSeries) (contracts.OhlcvHistory, error)
}

// FeatureComputer derives per-day indicators from a clean history
type FeatureComputer interface {
	Compute(ec Context, symbol string, history contracts.OhlcvHistory) (SymbolFeatures, error)
}

// DecisionBuilder produces the terminal decision for one symbol on the run's
// as-of date
type DecisionBuilder interface {
	Build(ec Context, symbol string, features SymbolFeatures) (contracts.DecisionCore, error)
}

// CandidateSelector narrows the surviving symbols. Optional: when absent, all
// surviving symbols are candidates.
type CandidateSelector interface {
	Select(ec Context, features map[string]SymbolFeatures) ([]string, error)
}

// CandidateRanker orders the candidate list. Optional.
type CandidateRanker interface {
	Rank(ec Context, features map[string]SymbolFeatures, candidates []string) ([]string, error)
}

// ReportBuilder assembles the operator-facing report from the finished pack
type ReportBuilder interface {
	Build(ctx context.Context, ec Context, pack contracts.DecisionPack, skipped []contracts.SkippedSymbol) (contracts.Report, error)
}

// Services are the stage implementations injected into the orchestrator
type Services struct {
	Universe     UniverseResolver
	Loader       OhlcvLoader
	Preprocessor Preprocessor
	Features     FeatureComputer
	Decisions    DecisionBuilder
	Report       ReportBuilder

	// optional
	Selector CandidateSelector
	Ranker   CandidateRanker
}

// validate detects missing required services before any stage runs
func (s Services) validate() error {
	required := []struct {
		name string
		ok   bool
	}{
		{"universe", s.Universe != nil},
		{"loader", s.Loader != nil},
		{"preprocessor", s.Preprocessor != nil},
		{"features", s.Features != nil},
		{"decisions", s.Decisions != nil},
		{"report", s.Report != nil},
	}
	for _, r := range required {
		if !r.ok {
			return faults.ContractViolation(fmt.Sprintf("missing required service: %s", r.name))
		}
	}
	return nil
}
