package marketdata

import (
	"math"
	"sort"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/logger"
)

// Preprocessor turns a raw loader series into a validated ascending history:
// rows after as-of and rows with non-finite fields are dropped, duplicate
// dates keep the last occurrence, and the survivors pass bar validation.
type Preprocessor struct {
	logger *logger.Logger
}

// NewPreprocessor creates the standard EOD preprocessor
func NewPreprocessor(log *logger.Logger) *Preprocessor {
	return &Preprocessor{logger: log.WithField("module", "preprocess")}
}

// Preprocess cleans one symbol's raw series. An empty result after cleaning
// removes the symbol (skip), never the batch.
func (p *Preprocessor) Preprocess(ec pipeline.Context, symbol string, raw contracts.RawSeries) (contracts.OhlcvHistory, error) {
	if len(raw) == 0 {
		return nil, faults.SkipSymbol("OHLCV is empty").
			WithContext(map[string]interface{}{"symbol": symbol})
	}

	// Dedupe by date, last occurrence wins; drop rows past as-of or with
	// non-finite values
	byDate := make(map[string]contracts.RawBar, len(raw))
	dropped := 0
	for _, bar := range raw {
		if !contracts.ValidDate(bar.Date) {
			return nil, faults.Data("OHLCV row has a malformed date").
				WithContext(map[string]interface{}{"symbol": symbol, "date": bar.Date})
		}
		if bar.Date > ec.Run.AsOf {
			continue
		}
		if !finiteBar(bar) {
			dropped++
			continue
		}
		byDate[bar.Date] = bar
	}

	if len(byDate) == 0 {
		return nil, faults.SkipSymbol("OHLCV became empty after cleaning").
			WithContext(map[string]interface{}{"symbol": symbol})
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	history := make(contracts.OhlcvHistory, 0, len(dates))
	for _, d := range dates {
		bar := byDate[d]
		validated, err := contracts.NewOhlcvBar(d, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		if err != nil {
			return nil, err
		}
		history = append(history, validated)
	}

	if dropped > 0 {
		p.logger.WithFields(map[string]interface{}{
			"symbol":  symbol,
			"dropped": dropped,
			"kept":    len(history),
		}).Debug("Dropped non-finite OHLCV rows")
	}

	return history, nil
}

func finiteBar(b contracts.RawBar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Volume >= 0
}
