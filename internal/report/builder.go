package report

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/logger"
)

// Builder assembles the operator-facing report: pack echo, skipped symbols,
// degraded flag, run notes and the prose summary.
// ⭐ SSOT: 리포트 조립 규칙은 여기서만
type Builder struct {
	summarizer Summarizer
	logger     *logger.Logger
	now        func() time.Time
}

// NewBuilder creates a report builder. summarizer may be nil; the template
// summarizer is used then.
func NewBuilder(summarizer Summarizer, log *logger.Logger) *Builder {
	if summarizer == nil {
		summarizer = NewTemplateSummarizer()
	}
	return &Builder{
		summarizer: summarizer,
		logger:     log.WithField("module", "report"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Build assembles the final report. A summarizer failure degrades the report
// and falls back to template prose; the decision numbers are never touched.
func (b *Builder) Build(ctx context.Context, ec pipeline.Context, pack contracts.DecisionPack, skipped []contracts.SkippedSymbol) (contracts.Report, error) {
	notes := make(map[string]interface{}, len(ec.Notes)+1)
	for k, v := range ec.Notes {
		notes[k] = v
	}
	if len(ec.DegradedReasons) > 0 {
		notes["degraded_reasons"] = ec.DegradedReasons
	}

	if !ec.Config.Report.IncludeSkipped {
		skipped = nil
	}

	rp, err := contracts.NewReportPack(pack, skipped, ec.Degraded, notes)
	if err != nil {
		return contracts.Report{}, err
	}

	summarizer := b.summarizer
	if !ec.Config.Summary.Enabled {
		// external prose layers are opt-in per run
		summarizer = NewTemplateSummarizer()
	}

	summary, source, err := summarizer.Summarize(ctx, rp)
	if err != nil {
		// non-authoritative layer failed: degrade, fall back to template
		classified := faults.Classify(err)
		b.logger.WithError(classified).Warn("Summarizer failed, falling back to template")

		reasons := append(append([]string(nil), ec.DegradedReasons...),
			fmt.Sprintf("summary_degraded: %v", classified))
		notes["degraded_reasons"] = reasons

		rp, err = contracts.NewReportPack(pack, skipped, true, notes)
		if err != nil {
			return contracts.Report{}, err
		}
		summary, source, err = NewTemplateSummarizer().Summarize(ctx, rp)
		if err != nil {
			return contracts.Report{}, faults.Classify(err)
		}
	}

	generatedAt := b.now().Truncate(time.Second)
	return contracts.NewReport(pack.Market, pack.AsOf, pack.RunID, rp, summary, source, generatedAt)
}
