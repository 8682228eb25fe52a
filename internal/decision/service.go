package decision

import (
	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/logger"
)

// Service adapts the planner to the pipeline's decision stage. The planner is
// rebuilt per call from the run's frozen policy, so the service itself holds
// no per-run state.
type Service struct {
	logger *logger.Logger
}

// NewService creates the decision stage implementation
func NewService(log *logger.Logger) *Service {
	return &Service{logger: log.WithField("module", "decision")}
}

// Build produces the terminal decision for one symbol on the run's as-of date
func (s *Service) Build(ec pipeline.Context, symbol string, features pipeline.SymbolFeatures) (contracts.DecisionCore, error) {
	ind, ok := features.On(ec.Run.AsOf)
	if !ok {
		return contracts.DecisionCore{}, faults.SkipSymbol("no indicators for as-of date").
			WithContext(map[string]interface{}{"symbol": symbol, "asof": ec.Run.AsOf})
	}

	planner, err := NewPlanner(ec.Policy, ec.Config.PlanID)
	if err != nil {
		return contracts.DecisionCore{}, err
	}

	d, err := planner.BuildForDay(symbol, ind)
	if err != nil {
		return contracts.DecisionCore{}, err
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"signal": string(d.BuySignal),
	}).Debug("Decision built")

	return d, nil
}
