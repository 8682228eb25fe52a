package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/pkg/logger"
)

// defaultWorkers bounds per-symbol concurrency in stages 2 and 4
const defaultWorkers = 8

// Orchestrator sequences the EOD stages, isolates per-symbol failures and
// aggregates the run into a final report. Per-symbol work in the feature and
// decision stages runs on a bounded worker pool; results are reassembled in
// input order so the output never depends on worker completion order.
// ⭐ SSOT: 스테이지 순서와 장애 격리 규칙은 이 파일에만 존재
type Orchestrator struct {
	services Services
	workers  int
	logger   *logger.Logger
	events   *EventBus
}

// Options tunes the orchestrator
type Options struct {
	Workers int
	Events  *EventBus
}

// NewOrchestrator validates the injected services up front
func NewOrchestrator(services Services, log *logger.Logger, opts Options) (*Orchestrator, error) {
	if err := services.validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Orchestrator{
		services: services,
		workers:  workers,
		logger:   log.WithField("module", "pipeline"),
		events:   opts.Events,
	}, nil
}

// symbolResult carries one worker's output back to the aggregation point
type symbolResult struct {
	index    int
	symbol   string
	features SymbolFeatures
	decision contracts.DecisionCore
	err      error
}

// Run executes the full EOD pipeline. It returns either a complete report or
// a classified error; no partial pack is ever returned on a fatal abort.
func (o *Orchestrator) Run(ctx context.Context, ec Context) (contracts.Report, error) {
	log := o.logger.WithFields(map[string]interface{}{
		"run_id": ec.Run.RunID,
		"market": ec.Run.Market,
		"asof":   ec.Run.AsOf,
	})

	// 1) Universe. Any failure here is fatal: there is nothing to degrade to.
	symbols, err := o.services.Universe.Resolve(ctx, ec)
	if err != nil {
		classified := faults.Classify(err)
		if !faults.IsFatal(classified) {
			classified = faults.Fatal("universe resolution failed").WithCause(classified)
		}
		return contracts.Report{}, classified
	}
	if len(symbols) == 0 {
		return contracts.Report{}, faults.Fatal("universe is empty")
	}

	ec = ec.WithNote("universe_size", len(symbols))
	log.WithField("universe_size", len(symbols)).Info("Universe resolved")
	o.publish(ec, StageUniverse, "", fmt.Sprintf("universe resolved: %d symbols", len(symbols)))

	// 2) Per-symbol: load -> preprocess -> features (worker pool)
	results, err := o.runPool(ctx, symbols, func(poolCtx context.Context, sym string) symbolResult {
		return o.featureTask(poolCtx, ec, sym)
	})
	if err != nil {
		return contracts.Report{}, err
	}

	featureMap := make(map[string]SymbolFeatures, len(symbols))
	surviving := make([]string, 0, len(symbols))
	skipped := make([]contracts.SkippedSymbol, 0)
	stageDegraded := false

	for _, r := range results {
		if r.err == nil {
			featureMap[r.symbol] = r.features
			surviving = append(surviving, r.symbol)
			continue
		}
		classified := faults.Classify(r.err)
		skipped = append(skipped, contracts.SkippedSymbol{
			Symbol: r.symbol,
			Reason: classified.Error(),
		})
		if faults.RaisesDegraded(classified) {
			stageDegraded = true
		}
		log.WithError(classified).WithField("symbol", r.symbol).Warn("Symbol removed in feature stage")
	}

	if stageDegraded {
		ec = ec.MarkDegraded("feature_stage_degraded")
	}
	ec = ec.WithNote("skipped_symbols", symbolNames(skipped))
	ec = ec.WithNote("feature_ready_symbols", len(surviving))
	o.publish(ec, StageFeatures, "", fmt.Sprintf("feature stage done: %d ready, %d skipped", len(surviving), len(skipped)))

	if len(surviving) == 0 {
		return contracts.Report{}, faults.Fatal("no symbols available after preprocessing/feature generation")
	}

	// 3) Candidate selection / ranking. Without a selector every surviving
	// symbol is a candidate.
	candidates := surviving
	if o.services.Selector != nil {
		candidates, err = o.services.Selector.Select(ec, featureMap)
		if err != nil {
			return contracts.Report{}, faults.Classify(err)
		}
	}
	if o.services.Ranker != nil {
		candidates, err = o.services.Ranker.Rank(ec, featureMap, candidates)
		if err != nil {
			return contracts.Report{}, faults.Classify(err)
		}
	}
	if len(candidates) == 0 {
		return contracts.Report{}, faults.Fatal("candidate list is empty")
	}
	for _, sym := range candidates {
		if _, ok := featureMap[sym]; !ok {
			// selection returned a symbol the feature stage never produced:
			// an internal consistency break, not a data problem
			return contracts.Report{}, faults.ContractViolation(
				"candidate symbol not found in feature map").
				WithContext(map[string]interface{}{"symbol": sym})
		}
	}

	ec = ec.WithNote("candidate_size", len(candidates))
	o.publish(ec, StageCandidates, "", fmt.Sprintf("candidates selected: %d", len(candidates)))

	// 4) Decisions (worker pool), reassembled in candidate order
	results, err = o.runPool(ctx, candidates, func(poolCtx context.Context, sym string) symbolResult {
		return o.decisionTask(ec, sym, featureMap[sym])
	})
	if err != nil {
		return contracts.Report{}, err
	}

	decisions := make([]contracts.DecisionCore, 0, len(candidates))
	for _, r := range results {
		if r.err == nil {
			decisions = append(decisions, r.decision)
			continue
		}
		classified := faults.Classify(r.err)
		skipped = append(skipped, contracts.SkippedSymbol{
			Symbol: r.symbol,
			Reason: classified.Error(),
		})
		if faults.RaisesDegraded(classified) {
			ec = ec.MarkDegraded(fmt.Sprintf("decision_stage_degraded: %v", classified))
		}
		log.WithError(classified).WithField("symbol", r.symbol).Warn("Symbol removed in decision stage")
	}

	// Final pack order is candidate order; ranks follow it
	for i := range decisions {
		ranked, err := decisions[i].WithRank(i + 1)
		if err != nil {
			return contracts.Report{}, faults.Classify(err)
		}
		decisions[i] = ranked
	}
	o.publish(ec, StageDecisions, "", fmt.Sprintf("decisions built: %d", len(decisions)))

	// 5) Pack -> Report
	pack, err := contracts.NewDecisionPack(ec.Run.Market, ec.Run.AsOf, ec.Run.RunID, decisions)
	if err != nil {
		return contracts.Report{}, faults.Classify(err)
	}

	report, err := o.services.Report.Build(ctx, ec, pack, skipped)
	if err != nil {
		return contracts.Report{}, faults.Classify(err)
	}

	log.WithFields(map[string]interface{}{
		"decisions": len(decisions),
		"skipped":   len(skipped),
		"degraded":  ec.Degraded,
	}).Info("Pipeline run completed")
	o.publish(ec, StageReport, "", "report assembled")

	return report, nil
}

// runPool fans symbols out to workers and reassembles results in input order.
// A fatal result cancels dispatch of remaining work, lets in-flight tasks
// drain, and aborts the run.
func (o *Orchestrator) runPool(ctx context.Context, symbols []string, task func(context.Context, string) symbolResult) ([]symbolResult, error) {
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index  int
		symbol string
	}

	jobCh := make(chan job, len(symbols))
	resultCh := make(chan symbolResult, len(symbols))

	workers := o.workers
	if workers > len(symbols) {
		workers = len(symbols)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				select {
				case <-poolCtx.Done():
					return
				default:
				}
				r := task(poolCtx, j.symbol)
				r.index = j.index
				r.symbol = j.symbol
				resultCh <- r
			}
		}()
	}

	for i, sym := range symbols {
		jobCh <- job{index: i, symbol: sym}
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	byIndex := make([]*symbolResult, len(symbols))
	var fatal error
	for r := range resultCh {
		r := r
		byIndex[r.index] = &r
		if r.err != nil && faults.IsFatal(r.err) && fatal == nil {
			fatal = faults.Classify(r.err).WithContext(map[string]interface{}{"symbol": r.symbol})
			cancel()
		}
	}
	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, faults.Fatal("pipeline cancelled").WithCause(err)
	}

	ordered := make([]symbolResult, 0, len(symbols))
	for _, r := range byIndex {
		if r != nil {
			ordered = append(ordered, *r)
		}
	}
	return ordered, nil
}

// featureTask runs load -> preprocess -> features for one symbol
func (o *Orchestrator) featureTask(ctx context.Context, ec Context, symbol string) symbolResult {
	raw, err := o.services.Loader.Load(ctx, ec, symbol)
	if err != nil {
		return symbolResult{err: err}
	}
	clean, err := o.services.Preprocessor.Preprocess(ec, symbol, raw)
	if err != nil {
		return symbolResult{err: err}
	}
	features, err := o.services.Features.Compute(ec, symbol, clean)
	if err != nil {
		return symbolResult{err: err}
	}
	return symbolResult{features: features}
}

// decisionTask builds the terminal decision for one symbol
func (o *Orchestrator) decisionTask(ec Context, symbol string, features SymbolFeatures) symbolResult {
	decision, err := o.services.Decisions.Build(ec, symbol, features)
	if err != nil {
		return symbolResult{err: err}
	}
	return symbolResult{decision: decision}
}

func (o *Orchestrator) publish(ec Context, stage, symbol, message string) {
	o.events.Publish(Event{
		RunID:   ec.Run.RunID,
		Stage:   stage,
		Symbol:  symbol,
		Message: message,
	})
}

func symbolNames(skipped []contracts.SkippedSymbol) []string {
	out := make([]string, len(skipped))
	for i, s := range skipped {
		out[i] = s.Symbol
	}
	return out
}
