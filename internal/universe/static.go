package universe

import (
	"context"
	"strings"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
)

// Fixed universes: large, liquid names per market. Replaced by the database
// or scrape sources once broader coverage is wired; the resolver interface
// stays the same either way.
// ⭐ SSOT: 고정 유니버스 목록은 여기서만
var defaultJPSymbols = []string{
	"7203.T", // Toyota
	"6758.T", // Sony Group
	"9432.T", // NTT
	"8306.T", // MUFG
	"9984.T", // SoftBank Group
	"6861.T", // Keyence
	"7974.T", // Nintendo
	"8035.T", // Tokyo Electron
}

var defaultUSSymbols = []string{
	"AAPL",
	"MSFT",
	"NVDA",
	"AMZN",
	"GOOGL",
	"META",
	"TSLA",
	"AVGO",
}

// StaticResolver serves the fixed per-market list, or the config override
// when universe.symbols is set
type StaticResolver struct{}

// NewStaticResolver returns a resolver backed by the built-in lists
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{}
}

// Resolve returns the run's symbol universe
func (r *StaticResolver) Resolve(_ context.Context, ec pipeline.Context) ([]string, error) {
	if override := coerceSymbols(ec.Config.Universe.Symbols); len(override) > 0 {
		return override, nil
	}

	switch ec.Run.Market {
	case contracts.MarketJP:
		return append([]string(nil), defaultJPSymbols...), nil
	case contracts.MarketUS:
		return append([]string(nil), defaultUSSymbols...), nil
	default:
		return nil, faults.Fatal("no static universe for market " + ec.Run.Market)
	}
}

// coerceSymbols trims and drops empty entries
func coerceSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
