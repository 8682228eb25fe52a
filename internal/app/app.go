package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/decision"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/indicators"
	"github.com/wonny/verdict/internal/marketdata"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/internal/report"
	"github.com/wonny/verdict/internal/runconfig"
	"github.com/wonny/verdict/internal/selection"
	"github.com/wonny/verdict/internal/universe"
	"github.com/wonny/verdict/pkg/config"
	"github.com/wonny/verdict/pkg/database"
	"github.com/wonny/verdict/pkg/httputil"
	"github.com/wonny/verdict/pkg/logger"
	"github.com/wonny/verdict/pkg/redis"
)

// App owns the process-wide dependencies and wires the pipeline for each run.
// ⭐ SSOT: 의존성 조립은 이 패키지에서만
type App struct {
	Config *config.Config
	Logger *logger.Logger
	Events *pipeline.EventBus

	db         *database.DB
	redis      *redis.Client
	cache      *redis.Cache
	reportRepo *report.Repository
}

// New loads configuration and connects the optional backends. Postgres and
// Redis are both optional: the pipeline runs fully in-memory without them.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)

	a := &App{
		Config: cfg,
		Logger: log,
		Events: pipeline.NewEventBus(),
	}

	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		a.db = db
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis init failed: %w", err)
	}
	a.redis = rdb
	a.cache = redis.NewCache(rdb, "verdict")

	if a.db != nil {
		a.reportRepo = report.NewRepository(a.db, a.cache, log)
	}

	return a, nil
}

// Close releases backend connections
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// RunParams are the operator inputs for one EOD run
type RunParams struct {
	Market     string
	AsOf       string
	PolicyPath string // empty uses built-in market defaults
	ConfigPath string // optional YAML override file
	PlanID     string // empty keeps the resolved plan id
}

// RunEOD resolves configuration, assembles the stage services and executes
// one pipeline run. The finished report is persisted when Postgres is
// configured; persistence failures are logged, never alter the result.
func (a *App) RunEOD(ctx context.Context, params RunParams) (contracts.Report, error) {
	runCfg, err := runconfig.Resolve(params.Market, params.ConfigPath)
	if err != nil {
		return contracts.Report{}, err
	}
	if params.PlanID != "" {
		runCfg.PlanID = params.PlanID
		if err := runCfg.Validate(); err != nil {
			return contracts.Report{}, err
		}
	}

	policy, err := runconfig.LoadPolicy(params.PolicyPath, params.Market, params.AsOf)
	if err != nil {
		return contracts.Report{}, err
	}

	run, err := pipeline.NewRunContext(params.Market, params.AsOf, newRunID(params.Market, params.AsOf))
	if err != nil {
		return contracts.Report{}, err
	}

	ec, err := pipeline.NewContext(run, policy, runCfg)
	if err != nil {
		return contracts.Report{}, err
	}

	cfgHash, err := runCfg.Hash()
	if err != nil {
		return contracts.Report{}, err
	}
	ec = ec.WithNote("config_hash", cfgHash)

	services, err := a.buildServices(runCfg)
	if err != nil {
		return contracts.Report{}, err
	}

	orchestrator, err := pipeline.NewOrchestrator(services, a.Logger, pipeline.Options{Events: a.Events})
	if err != nil {
		return contracts.Report{}, err
	}

	rep, err := orchestrator.Run(ctx, ec)
	if err != nil {
		return contracts.Report{}, err
	}

	if a.reportRepo != nil {
		if err := a.reportRepo.Save(ctx, rep); err != nil {
			a.Logger.WithError(err).WithField("run_id", rep.RunID).Warn("Report persistence failed")
		}
	}

	return rep, nil
}

// GetReport loads a persisted report by run id
func (a *App) GetReport(ctx context.Context, runID string) (contracts.Report, error) {
	if a.reportRepo == nil {
		return contracts.Report{}, faults.Configuration("report storage requires DATABASE_URL")
	}
	return a.reportRepo.Get(ctx, runID)
}

// ListReports returns recent persisted reports for a market
func (a *App) ListReports(ctx context.Context, market string, limit int) ([]contracts.Report, error) {
	if a.reportRepo == nil {
		return nil, faults.Configuration("report storage requires DATABASE_URL")
	}
	return a.reportRepo.ListRecent(ctx, market, limit)
}

// buildServices assembles the stage implementations for one resolved config
func (a *App) buildServices(runCfg runconfig.Config) (pipeline.Services, error) {
	httpClient := httputil.New(a.Logger, a.Config.MarketData.Timeout).
		WithRateLimit(a.Config.MarketData.RatePerSec, a.Config.MarketData.RateBurst)

	var cache *redis.Cache
	if a.redis.Enabled() {
		cache = a.cache
	}

	resolver, err := a.universeResolver(runCfg, httpClient)
	if err != nil {
		return pipeline.Services{}, err
	}

	return pipeline.Services{
		Universe:     resolver,
		Loader:       marketdata.NewLoader(httpClient, a.Config.MarketData.ChartBaseURL, cache, a.Config.MarketData.CacheTTL, a.Logger),
		Preprocessor: marketdata.NewPreprocessor(a.Logger),
		Features:     indicators.NewService(a.Logger),
		Decisions:    decision.NewService(a.Logger),
		Selector:     selection.NewScreener(a.Logger),
		Ranker:       selection.NewRanker(),
		Report:       report.NewBuilder(nil, a.Logger),
	}, nil
}

func (a *App) universeResolver(runCfg runconfig.Config, httpClient *httputil.Client) (pipeline.UniverseResolver, error) {
	switch runCfg.Universe.Source {
	case runconfig.UniverseDatabase:
		if a.db == nil {
			return nil, faults.Configuration("universe source DATABASE requires DATABASE_URL")
		}
		return universe.NewDBResolver(a.db, a.Logger), nil
	case runconfig.UniverseScrape:
		urls := map[string]string{}
		if a.Config.Universe.ComponentsURLJP != "" {
			urls[contracts.MarketJP] = a.Config.Universe.ComponentsURLJP
		}
		if a.Config.Universe.ComponentsURLUS != "" {
			urls[contracts.MarketUS] = a.Config.Universe.ComponentsURLUS
		}
		if len(urls) == 0 {
			return nil, faults.Configuration("universe source SCRAPE requires a components URL")
		}
		return universe.NewScrapeResolver(httpClient, urls, a.Logger), nil
	default:
		return universe.NewStaticResolver(), nil
	}
}

// newRunID derives a unique, sortable run identifier
func newRunID(market, asof string) string {
	return fmt.Sprintf("eod-%s-%s-%s",
		strings.ToLower(market), asof, time.Now().UTC().Format("20060102T150405Z"))
}
