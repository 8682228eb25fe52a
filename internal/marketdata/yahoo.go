package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/httputil"
	"github.com/wonny/verdict/pkg/logger"
	"github.com/wonny/verdict/pkg/redis"
)

// Loader fetches EOD bars from a Yahoo-style chart JSON endpoint.
// ⭐ SSOT: 외부 시세 호출은 이 로더에서만
//
// The fetch window is lookback*2 calendar days before as-of through the day
// after, generous on purpose: trading-day gaps are absorbed here and the
// preprocessor truncates back to <= as-of.
type Loader struct {
	httpClient *httputil.Client
	baseURL    string
	cache      *redis.Cache
	cacheTTL   time.Duration
	logger     *logger.Logger
}

// NewLoader creates an EOD loader. cache may be nil to disable caching.
func NewLoader(httpClient *httputil.Client, baseURL string, cache *redis.Cache, cacheTTL time.Duration, log *logger.Logger) *Loader {
	return &Loader{
		httpClient: httpClient,
		baseURL:    baseURL,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     log.WithField("module", "marketdata"),
	}
}

// chart JSON shape (the subset we read)
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Load fetches the raw series for one symbol. Classified errors only:
// network/status problems are ExternalData, a missing symbol is SkipSymbol,
// malformed payloads are Data errors.
func (l *Loader) Load(ctx context.Context, ec pipeline.Context, symbol string) (contracts.RawSeries, error) {
	if symbol == "" {
		return nil, faults.Data("symbol must be a non-empty string")
	}

	cacheKey := redis.OhlcvKey(symbol, ec.Run.AsOf)
	if l.cache != nil {
		var cached contracts.RawSeries
		if hit, err := l.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			l.logger.WithField("symbol", symbol).Debug("OHLCV cache hit")
			return cached, nil
		}
	}

	asof, err := time.Parse(contracts.DateLayout, ec.Run.AsOf)
	if err != nil {
		return nil, faults.Configuration("run asof is not a valid date").WithCause(err)
	}

	start := asof.AddDate(0, 0, -ec.Config.LookbackDays*2)
	end := asof.AddDate(0, 0, 1)

	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&events=history",
		l.baseURL, symbol, start.Unix(), end.Unix())

	resp, err := l.httpClient.Get(ctx, url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, faults.ExternalData("OHLCV download timed out").
				WithContext(map[string]interface{}{"symbol": symbol}).WithCause(err)
		}
		return nil, faults.ExternalData("OHLCV download failed").
			WithContext(map[string]interface{}{"symbol": symbol}).WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, faults.SkipSymbol("symbol not found at data source").
			WithContext(map[string]interface{}{"symbol": symbol})
	case resp.StatusCode != http.StatusOK:
		return nil, faults.ExternalData(fmt.Sprintf("data source returned status %d", resp.StatusCode)).
			WithContext(map[string]interface{}{"symbol": symbol})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.ExternalData("OHLCV response read failed").
			WithContext(map[string]interface{}{"symbol": symbol}).WithCause(err)
	}

	series, err := parseChartJSON(body, symbol)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, cacheKey, series, l.cacheTTL); err != nil {
			l.logger.WithError(err).WithField("symbol", symbol).Warn("OHLCV cache write failed")
		}
	}

	l.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"rows":   len(series),
	}).Debug("OHLCV downloaded")

	return series, nil
}

// parseChartJSON converts the chart payload into raw bars. Null quote entries
// become NaN and are dropped by preprocessing.
func parseChartJSON(body []byte, symbol string) (contracts.RawSeries, error) {
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, faults.Data("OHLCV payload is not valid JSON").
			WithContext(map[string]interface{}{"symbol": symbol}).WithCause(err)
	}

	if payload.Chart.Error != nil {
		return nil, faults.SkipSymbol("data source rejected symbol: " + payload.Chart.Error.Code).
			WithContext(map[string]interface{}{"symbol": symbol, "description": payload.Chart.Error.Description})
	}
	if len(payload.Chart.Result) == 0 {
		return nil, faults.SkipSymbol("OHLCV is empty").
			WithContext(map[string]interface{}{"symbol": symbol})
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, faults.Data("OHLCV quote block is missing").
			WithContext(map[string]interface{}{"symbol": symbol})
	}
	quote := result.Indicators.Quote[0]

	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n ||
		len(quote.Close) != n || len(quote.Volume) != n {
		return nil, faults.Data("OHLCV columns are missing or misaligned").
			WithContext(map[string]interface{}{"symbol": symbol})
	}

	series := make(contracts.RawSeries, 0, n)
	for i := 0; i < n; i++ {
		series = append(series, contracts.RawBar{
			Date:   time.Unix(result.Timestamp[i], 0).UTC().Format(contracts.DateLayout),
			Open:   deref(quote.Open[i]),
			High:   deref(quote.High[i]),
			Low:    deref(quote.Low[i]),
			Close:  deref(quote.Close[i]),
			Volume: deref(quote.Volume[i]),
		})
	}

	if len(series) == 0 {
		return nil, faults.SkipSymbol("OHLCV is empty").
			WithContext(map[string]interface{}{"symbol": symbol})
	}

	return series, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
