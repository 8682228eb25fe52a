package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/internal/runconfig"
	"github.com/wonny/verdict/pkg/logger"
)

func testContext(t *testing.T) pipeline.Context {
	t.Helper()
	run, err := pipeline.NewRunContext(contracts.MarketJP, "2025-01-20", "run-1")
	require.NoError(t, err)
	ec, err := pipeline.NewContext(run,
		runconfig.DefaultPolicy(contracts.MarketJP, "2025-01-20"),
		runconfig.Defaults(contracts.MarketJP))
	require.NoError(t, err)
	return ec
}

func testPack(t *testing.T, ec pipeline.Context) contracts.DecisionPack {
	t.Helper()
	d, err := contracts.NewDecisionCore(contracts.DecisionCore{
		Symbol:           "7203.T",
		Date:             ec.Run.AsOf,
		BuySignal:        contracts.SignalNo,
		TimeStopDays:     40,
		Rank:             1,
		PolicySnapshotID: ec.PolicyID,
	})
	require.NoError(t, err)
	pack, err := contracts.NewDecisionPack(ec.Run.Market, ec.Run.AsOf, ec.Run.RunID, []contracts.DecisionCore{d})
	require.NoError(t, err)
	return pack
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, contracts.ReportPack) (string, contracts.SummarySource, error) {
	return "", "", faults.Summary("summarizer unavailable")
}

func TestBuild_TemplateSummary(t *testing.T) {
	ec := testContext(t).WithNote("universe_size", 8)
	pack := testPack(t, ec)

	report, err := NewBuilder(nil, logger.NewNop()).Build(context.Background(), ec, pack, nil)
	require.NoError(t, err)

	assert.Equal(t, contracts.SummaryTemplate, report.SummarySource)
	assert.Contains(t, report.Summary, "run-1")
	assert.Equal(t, 8, report.Pack.Notes["universe_size"])
	assert.False(t, report.Pack.Degraded)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, report.GeneratedAt, report.GeneratedAt.Truncate(time.Second))
}

func TestBuild_SummarizerFailureDegradesAndFallsBack(t *testing.T) {
	ec := testContext(t)
	ec.Config.Summary.Enabled = true
	pack := testPack(t, ec)

	report, err := NewBuilder(failingSummarizer{}, logger.NewNop()).Build(context.Background(), ec, pack, nil)
	require.NoError(t, err)

	assert.True(t, report.Pack.Degraded)
	assert.Equal(t, contracts.SummaryTemplate, report.SummarySource)
	assert.NotEmpty(t, report.Summary)

	reasons, ok := report.Pack.Notes["degraded_reasons"].([]string)
	require.True(t, ok)
	assert.Contains(t, reasons[len(reasons)-1], "summary_degraded")

	// decision numbers untouched
	require.Len(t, report.Pack.Pack.Decisions, 1)
	assert.Equal(t, "7203.T", report.Pack.Pack.Decisions[0].Symbol)
}

func TestBuild_DisabledSummaryIgnoresInjectedSummarizer(t *testing.T) {
	ec := testContext(t) // Summary.Enabled is false by default
	pack := testPack(t, ec)

	report, err := NewBuilder(failingSummarizer{}, logger.NewNop()).Build(context.Background(), ec, pack, nil)
	require.NoError(t, err)

	assert.False(t, report.Pack.Degraded)
	assert.Equal(t, contracts.SummaryTemplate, report.SummarySource)
}

func TestBuild_ExcludesSkippedWhenConfigured(t *testing.T) {
	ec := testContext(t)
	ec.Config.Report.IncludeSkipped = false
	pack := testPack(t, ec)

	skipped := []contracts.SkippedSymbol{{Symbol: "6758.T", Reason: "SKIP_SYMBOL: no data"}}
	report, err := NewBuilder(nil, logger.NewNop()).Build(context.Background(), ec, pack, skipped)
	require.NoError(t, err)

	assert.Empty(t, report.Pack.SkippedSymbols)
}

func TestBuild_RoundTripsThroughJSON(t *testing.T) {
	ec := testContext(t).WithNote("universe_size", 8).MarkDegraded("feature_stage_degraded")
	pack := testPack(t, ec)

	report, err := NewBuilder(nil, logger.NewNop()).Build(context.Background(), ec, pack,
		[]contracts.SkippedSymbol{{Symbol: "6758.T", Reason: "EXTERNAL_DATA_ERROR: timeout"}})
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded contracts.Report
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, report.Pack.Degraded, decoded.Pack.Degraded)
	require.Len(t, decoded.Pack.SkippedSymbols, 1)
	assert.Equal(t, "6758.T", decoded.Pack.SkippedSymbols[0].Symbol)
	require.Len(t, decoded.Pack.Pack.Decisions, 1)
	assert.Nil(t, decoded.Pack.Pack.Decisions[0].Entry)
}
