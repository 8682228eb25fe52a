package universe

import (
	"context"

	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/database"
	"github.com/wonny/verdict/pkg/logger"
)

// DBResolver serves the universe from the universe_symbols table. Failures
// here are fatal at the orchestrator level, so errors are returned as-is.
type DBResolver struct {
	db     *database.DB
	logger *logger.Logger
}

// NewDBResolver creates a database-backed universe resolver
func NewDBResolver(db *database.DB, log *logger.Logger) *DBResolver {
	return &DBResolver{
		db:     db,
		logger: log.WithField("module", "universe"),
	}
}

// Resolve returns the active symbols for the run's market, in stable
// alphabetical order
func (r *DBResolver) Resolve(ctx context.Context, ec pipeline.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT symbol
		FROM universe_symbols
		WHERE market = $1 AND active = TRUE
		ORDER BY symbol
	`, ec.Run.Market)
	if err != nil {
		return nil, faults.Fatal("universe query failed").WithCause(err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, faults.Fatal("universe row scan failed").WithCause(err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Fatal("universe iteration failed").WithCause(err)
	}

	r.logger.WithFields(map[string]interface{}{
		"market": ec.Run.Market,
		"count":  len(symbols),
	}).Debug("Universe loaded from database")

	return symbols, nil
}

// Seed upserts symbols for a market, activating them
func (r *DBResolver) Seed(ctx context.Context, market string, symbols []string) error {
	for _, symbol := range symbols {
		_, err := r.db.Pool.Exec(ctx, `
			INSERT INTO universe_symbols (market, symbol, active)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (market, symbol) DO UPDATE SET active = TRUE
		`, market, symbol)
		if err != nil {
			return faults.Fatal("universe seed failed").WithCause(err)
		}
	}
	return nil
}
