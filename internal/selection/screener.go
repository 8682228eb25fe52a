package selection

import (
	"sort"

	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/logger"
)

// Screener narrows surviving symbols to at most max_candidates, preferring
// symbols trading closest to their 20-day high on the as-of date. Symbol
// order is fully deterministic: proximity descending, ticker ascending on
// ties, so the same feature map always yields the same candidate list.
type Screener struct {
	logger *logger.Logger
}

// NewScreener creates the candidate selector
func NewScreener(log *logger.Logger) *Screener {
	return &Screener{logger: log.WithField("module", "selection")}
}

// Select returns the capped candidate list
func (s *Screener) Select(ec pipeline.Context, features map[string]pipeline.SymbolFeatures) ([]string, error) {
	ranked := rankByProximity(ec, features, symbolsOf(features))

	max := ec.Config.MaxCandidates
	if len(ranked) > max {
		ranked = ranked[:max]
	}

	s.logger.WithFields(map[string]interface{}{
		"surviving":  len(features),
		"candidates": len(ranked),
	}).Debug("Candidates screened")

	return ranked, nil
}

// Ranker orders an existing candidate list by the same proximity key
type Ranker struct{}

// NewRanker creates the candidate ranker
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns candidates ordered by proximity to the rolling high
func (r *Ranker) Rank(ec pipeline.Context, features map[string]pipeline.SymbolFeatures, candidates []string) ([]string, error) {
	return rankByProximity(ec, features, candidates), nil
}

func symbolsOf(features map[string]pipeline.SymbolFeatures) []string {
	out := make([]string, 0, len(features))
	for sym := range features {
		out = append(out, sym)
	}
	return out
}

// rankByProximity sorts symbols by close/hh_20 on the as-of date, descending;
// symbols without the indicator sort last, ties break on ticker
func rankByProximity(ec pipeline.Context, features map[string]pipeline.SymbolFeatures, symbols []string) []string {
	out := append([]string(nil), symbols...)

	proximity := func(sym string) (float64, bool) {
		f, ok := features[sym]
		if !ok {
			return 0, false
		}
		ind, ok := f.On(ec.Run.AsOf)
		if !ok || ind.CloseToHH20 == nil {
			return 0, false
		}
		return *ind.CloseToHH20, true
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, oki := proximity(out[i])
		pj, okj := proximity(out[j])
		switch {
		case oki && !okj:
			return true
		case !oki && okj:
			return false
		case pi != pj:
			return pi > pj
		default:
			return out[i] < out[j]
		}
	})

	return out
}
