package report

import (
	"context"
	"fmt"

	"github.com/wonny/verdict/internal/contracts"
)

// Summarizer produces the non-authoritative prose summary for a finished
// pack. Implementations may call external services; the builder treats any
// failure as degraded and falls back to the template, never touching the
// decision numbers.
type Summarizer interface {
	Summarize(ctx context.Context, pack contracts.ReportPack) (string, contracts.SummarySource, error)
}

// TemplateSummarizer renders a fixed-format digest. Deterministic and
// dependency-free, it is both the default and the fallback path.
type TemplateSummarizer struct{}

// NewTemplateSummarizer returns the built-in summarizer
func NewTemplateSummarizer() *TemplateSummarizer {
	return &TemplateSummarizer{}
}

// Summarize renders the digest
func (TemplateSummarizer) Summarize(_ context.Context, pack contracts.ReportPack) (string, contracts.SummarySource, error) {
	active := 0
	for _, d := range pack.Pack.Decisions {
		if d.BuySignal.Active() {
			active++
		}
	}

	status := "completed"
	if pack.Degraded {
		status = "completed with degradation"
	}

	text := fmt.Sprintf(
		"EOD run %s for %s on %s %s: %d decisions (%d actionable), %d symbols skipped.",
		pack.Pack.RunID, pack.Pack.Market, pack.Pack.AsOf, status,
		len(pack.Pack.Decisions), active, len(pack.SkippedSymbols))

	return text, contracts.SummaryTemplate, nil
}
