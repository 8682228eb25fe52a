package indicators

import (
	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/logger"
)

// Service adapts the engine to the pipeline's feature stage
type Service struct {
	engine *Engine
	logger *logger.Logger
}

// NewService creates the feature stage implementation
func NewService(log *logger.Logger) *Service {
	return &Service{
		engine: NewEngine(),
		logger: log.WithField("module", "features"),
	}
}

// Compute derives the full per-day indicator map for one symbol
func (s *Service) Compute(ec pipeline.Context, symbol string, history contracts.OhlcvHistory) (pipeline.SymbolFeatures, error) {
	if len(history) == 0 {
		return pipeline.SymbolFeatures{}, faults.SkipSymbol("no history to compute features from").
			WithContext(map[string]interface{}{"symbol": symbol})
	}
	if !history.Ascending() {
		return pipeline.SymbolFeatures{}, faults.ContractViolation("feature stage requires an ascending history").
			WithContext(map[string]interface{}{"symbol": symbol})
	}

	sets := s.engine.Compute(history)

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"days":   len(sets),
	}).Debug("Indicators computed")

	return pipeline.SymbolFeatures{
		Symbol:     symbol,
		History:    history,
		Indicators: sets,
	}, nil
}
