package jobs

import (
	"context"
	"fmt"
	"time"

	// market zones must resolve even on hosts without a zoneinfo directory
	_ "time/tzdata"

	"github.com/wonny/verdict/internal/app"
	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/pkg/logger"
)

// Runner triggers one EOD pipeline run
type Runner interface {
	RunEOD(ctx context.Context, params app.RunParams) (contracts.Report, error)
}

// EODRunJob runs the decision pipeline for one market after its close
// ⭐ SSOT: 장마감 파이프라인 스케줄은 이 Job에서만
type EODRunJob struct {
	runner   Runner
	market   string
	schedule string
	tz       string
	location *time.Location
	logger   *logger.Logger
}

// NewEODRunJob creates a post-close pipeline job. Both the firing time and
// the as-of date are interpreted in the market's time zone, never the
// server's.
func NewEODRunJob(runner Runner, market, schedule, tz string, log *logger.Logger) *EODRunJob {
	location, err := time.LoadLocation(tz)
	if err != nil {
		// Schedule() still carries the bad zone name, so AddJob rejects
		// the job at registration instead of firing at the wrong time.
		log.WithError(err).WithField("tz", tz).Error("Unknown market time zone")
		location = time.UTC
	}
	return &EODRunJob{
		runner:   runner,
		market:   market,
		schedule: schedule,
		tz:       tz,
		location: location,
		logger:   log,
	}
}

// NewJPEODJob runs the JP pipeline weekdays at 16:30 Tokyo time
func NewJPEODJob(runner Runner, log *logger.Logger) *EODRunJob {
	return NewEODRunJob(runner, contracts.MarketJP, "0 30 16 * * MON-FRI", "Asia/Tokyo", log)
}

// NewUSEODJob runs the US pipeline weekdays at 17:30 New York time
func NewUSEODJob(runner Runner, log *logger.Logger) *EODRunJob {
	return NewEODRunJob(runner, contracts.MarketUS, "0 30 17 * * MON-FRI", "America/New_York", log)
}

// Name returns the job name
func (j *EODRunJob) Name() string {
	return fmt.Sprintf("eod_run_%s", j.market)
}

// Schedule returns the cron schedule expression pinned to the market zone.
// Without the CRON_TZ prefix cron evaluates the spec in server-local time.
func (j *EODRunJob) Schedule() string {
	return fmt.Sprintf("CRON_TZ=%s %s", j.tz, j.schedule)
}

// Run executes one pipeline run for the market's current trading day
func (j *EODRunJob) Run(ctx context.Context) error {
	asof := time.Now().In(j.location).Format("2006-01-02")

	j.logger.WithFields(map[string]interface{}{
		"market": j.market,
		"asof":   asof,
	}).Info("Starting scheduled EOD run")

	report, err := j.runner.RunEOD(ctx, app.RunParams{
		Market: j.market,
		AsOf:   asof,
	})
	if err != nil {
		return fmt.Errorf("eod run %s %s: %w", j.market, asof, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    report.RunID,
		"decisions": len(report.Pack.Pack.Decisions),
		"skipped":   len(report.Pack.SkippedSymbols),
		"degraded":  report.Pack.Degraded,
	}).Info("Scheduled EOD run completed")

	return nil
}
