package indicators

import (
	"math"

	"github.com/wonny/verdict/internal/contracts"
)

// Engine derives one IndicatorSet per trading day from a validated OHLCV
// history. All windows look strictly backwards (inclusive of the current day),
// so day N's output depends only on days <= N. The engine trusts the
// ascending date order preprocessing guarantees; duplicates and calendar gaps
// are tolerated as-is.
// ⭐ SSOT: 지표 계산 공식은 이 파일에서만
type Engine struct{}

// NewEngine returns a stateless indicator engine
func NewEngine() *Engine {
	return &Engine{}
}

// Compute returns the full indicator map keyed by calendar date. Insufficient
// history, zero denominators and non-positive log ratios all resolve to
// missing fields; NaN and ±Inf never leak into the output.
func (e *Engine) Compute(history contracts.OhlcvHistory) map[string]contracts.IndicatorSet {
	n := len(history)
	out := make(map[string]contracts.IndicatorSet, n)
	if n == 0 {
		return out
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range history {
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = b.Volume
	}

	prevClose := shift(closes, 1)

	// Returns / volatility
	ret1d := pctChange(closes, 1)
	ret5d := pctChange(closes, 5)
	ret20d := pctChange(closes, 20)
	logret1d := logReturns(closes, prevClose)
	vol20d := rollingStd(logret1d, 20)

	// True Range / ATR(14)
	trueRange := make([]float64, n)
	for i := range trueRange {
		tr := math.Abs(high[i] - low[i])
		if !math.IsNaN(prevClose[i]) {
			tr = math.Max(tr, math.Abs(high[i]-prevClose[i]))
			tr = math.Max(tr, math.Abs(low[i]-prevClose[i]))
		}
		trueRange[i] = tr
	}
	atr14 := rollingMean(trueRange, 14)

	// Trend / moving averages
	sma5 := rollingMean(closes, 5)
	sma20 := rollingMean(closes, 20)
	sma50 := rollingMean(closes, 50)
	ema20 := ema(closes, 20)
	ema50 := ema(closes, 50)
	closeOverSMA20 := div(closes, sma20)
	closeOverSMA50 := div(closes, sma50)

	// RSI(14): SMA of gains over SMA of losses; a zero average loss leaves the
	// ratio undefined and the field missing
	delta := diff(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i, d := range delta {
		if math.IsNaN(d) {
			gains[i], losses[i] = nan, nan
			continue
		}
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	avgGain := rollingMean(gains, 14)
	avgLoss := rollingMean(losses, 14)
	rsi14 := make([]float64, n)
	for i := range rsi14 {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) || avgLoss[i] == 0 {
			rsi14[i] = nan
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		rsi14[i] = 100 - 100/(1+rs)
	}

	// Stochastic (14,3)
	hh14 := rollingMax(high, 14)
	ll14 := rollingMin(low, 14)
	stochK := make([]float64, n)
	for i := range stochK {
		span := hh14[i] - ll14[i]
		if math.IsNaN(span) || span == 0 {
			stochK[i] = nan
			continue
		}
		stochK[i] = (closes[i] - ll14[i]) / span * 100
	}
	stochD := rollingMean(stochK, 3)

	// MACD (12,26,9)
	macd := sub(ema(closes, 12), ema(closes, 26))
	macdSignal := ema(macd, 9)
	macdHist := sub(macd, macdSignal)

	// Bollinger Bands (20,2)
	bbStd := rollingStd(closes, 20)
	bbUpper := make([]float64, n)
	bbLower := make([]float64, n)
	bbWidth := make([]float64, n)
	bbPercentB := make([]float64, n)
	for i := range sma20 {
		mid, sd := sma20[i], bbStd[i]
		bbUpper[i] = mid + 2*sd
		bbLower[i] = mid - 2*sd
		if mid == 0 {
			bbWidth[i] = nan
		} else {
			bbWidth[i] = (bbUpper[i] - bbLower[i]) / mid
		}
		band := bbUpper[i] - bbLower[i]
		if band == 0 {
			bbPercentB[i] = nan
		} else {
			bbPercentB[i] = (closes[i] - bbLower[i]) / band
		}
	}

	// Range / candles
	hlRange := make([]float64, n)
	body := make([]float64, n)
	upperWick := make([]float64, n)
	lowerWick := make([]float64, n)
	gap := make([]float64, n)
	gapPct := make([]float64, n)
	for i := range hlRange {
		hlRange[i] = math.Abs(high[i] - low[i])
		body[i] = closes[i] - open[i]
		upperWick[i] = math.Max(high[i]-math.Max(open[i], closes[i]), 0)
		lowerWick[i] = math.Max(math.Min(open[i], closes[i])-low[i], 0)
		gap[i] = open[i] - prevClose[i]
		if prevClose[i] == 0 {
			gapPct[i] = nan
		} else {
			gapPct[i] = gap[i] / prevClose[i]
		}
	}

	// Volume-derived
	vSMA20 := rollingMean(volume, 20)
	vRatio20 := div(volume, vSMA20)
	obv := make([]float64, n)
	cum := 0.0
	for i := range obv {
		if i > 0 {
			switch {
			case closes[i] > closes[i-1]:
				cum += volume[i]
			case closes[i] < closes[i-1]:
				cum -= volume[i]
			}
		}
		obv[i] = cum
	}

	// Breakout / levels
	hh20 := rollingMax(high, 20)
	ll20 := rollingMin(low, 20)
	closeToHH20 := div(closes, hh20)
	closeToLL20 := div(closes, ll20)

	for i, b := range history {
		out[b.Date] = contracts.NewIndicatorSet(b.Date, contracts.IndicatorSet{
			Ret1D:    fp(ret1d[i]),
			Ret5D:    fp(ret5d[i]),
			Ret20D:   fp(ret20d[i]),
			Logret1D: fp(logret1d[i]),
			Vol20D:   fp(vol20d[i]),
			ATR14:    fp(atr14[i]),

			SMA5:           fp(sma5[i]),
			SMA20:          fp(sma20[i]),
			SMA50:          fp(sma50[i]),
			EMA20:          fp(ema20[i]),
			EMA50:          fp(ema50[i]),
			CloseOverSMA20: fp(closeOverSMA20[i]),
			CloseOverSMA50: fp(closeOverSMA50[i]),

			RSI14:      fp(rsi14[i]),
			StochK14:   fp(stochK[i]),
			StochD3:    fp(stochD[i]),
			MACD:       fp(macd[i]),
			MACDSignal: fp(macdSignal[i]),
			MACDHist:   fp(macdHist[i]),

			BBMid20:       fp(sma20[i]),
			BBUpper202:    fp(bbUpper[i]),
			BBLower202:    fp(bbLower[i]),
			BBWidth202:    fp(bbWidth[i]),
			BBPercentB202: fp(bbPercentB[i]),

			TrueRange: fp(trueRange[i]),
			HLRange:   fp(hlRange[i]),
			Body:      fp(body[i]),
			UpperWick: fp(upperWick[i]),
			LowerWick: fp(lowerWick[i]),
			Gap:       fp(gap[i]),
			GapPct:    fp(gapPct[i]),

			VSMA20:   fp(vSMA20[i]),
			VRatio20: fp(vRatio20[i]),
			OBV:      fp(obv[i]),

			HH20:        fp(hh20[i]),
			LL20:        fp(ll20[i]),
			CloseToHH20: fp(closeToHH20[i]),
			CloseToLL20: fp(closeToLL20[i]),
		})
	}

	return out
}

// logReturns computes ln(close/prev_close), missing where the ratio is not a
// positive finite number
func logReturns(closes, prevClose []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if prevClose[i] == 0 || math.IsNaN(prevClose[i]) {
			out[i] = nan
			continue
		}
		ratio := closes[i] / prevClose[i]
		if ratio <= 0 {
			out[i] = nan
			continue
		}
		out[i] = math.Log(ratio)
	}
	return out
}

// fp wraps a value for the sanitizing constructor; NaN survives to the
// constructor, which coerces it to absent
func fp(v float64) *float64 {
	return contracts.Fptr(v)
}
