package report

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/pkg/database"
	"github.com/wonny/verdict/pkg/logger"
	"github.com/wonny/verdict/pkg/redis"
)

// ErrNotFound is returned when no report exists for a run id
var ErrNotFound = errors.New("report not found")

// Repository persists finished reports for audit replay. Postgres is the
// source of truth; Redis is a read-through cache for the API.
type Repository struct {
	db     *database.DB
	cache  *redis.Cache
	logger *logger.Logger
}

// NewRepository creates a report repository. cache may be nil.
func NewRepository(db *database.DB, cache *redis.Cache, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		cache:  cache,
		logger: log.WithField("module", "report_repo"),
	}
}

// Save stores one report, replacing any previous report for the same run id
func (r *Repository) Save(ctx context.Context, report contracts.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return faults.Execution("report serialization failed").WithCause(err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO decision_reports (run_id, market, asof, degraded, report, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			market = EXCLUDED.market,
			asof = EXCLUDED.asof,
			degraded = EXCLUDED.degraded,
			report = EXCLUDED.report,
			generated_at = EXCLUDED.generated_at
	`, report.RunID, report.Market, report.AsOf, report.Pack.Degraded, payload, report.GeneratedAt)
	if err != nil {
		return faults.Execution("report insert failed").WithCause(err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, redis.ReportKey(report.RunID), report, redis.TTLDaily); err != nil {
			r.logger.WithError(err).WithField("run_id", report.RunID).Warn("Report cache write failed")
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"market": report.Market,
		"asof":   report.AsOf,
	}).Info("Report saved")

	return nil
}

// Get loads a report by run id, cache first
func (r *Repository) Get(ctx context.Context, runID string) (contracts.Report, error) {
	if r.cache != nil {
		var cached contracts.Report
		if hit, err := r.cache.Get(ctx, redis.ReportKey(runID), &cached); err == nil && hit {
			return cached, nil
		}
	}

	var payload []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT report FROM decision_reports WHERE run_id = $1
	`, runID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Report{}, ErrNotFound
	}
	if err != nil {
		return contracts.Report{}, faults.Execution("report query failed").WithCause(err)
	}

	var report contracts.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return contracts.Report{}, faults.Execution("stored report is unreadable").WithCause(err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, redis.ReportKey(runID), report, redis.TTLDaily)
	}

	return report, nil
}

// ListRecent returns run summaries ordered by generation time, newest first
func (r *Repository) ListRecent(ctx context.Context, market string, limit int) ([]contracts.Report, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT report FROM decision_reports
		WHERE market = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`, market, limit)
	if err != nil {
		return nil, faults.Execution("report list query failed").WithCause(err)
	}
	defer rows.Close()

	var reports []contracts.Report
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, faults.Execution("report row scan failed").WithCause(err)
		}
		var report contracts.Report
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, faults.Execution("stored report is unreadable").WithCause(err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
