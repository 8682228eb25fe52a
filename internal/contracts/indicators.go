package contracts

import "math"

// IndicatorSet holds one trading day's derived technical indicators.
// Every field is optional: nil means "missing" (insufficient history or an
// undefined ratio). A constructed set never contains NaN or ±Inf: the
// constructor coerces non-finite values to missing before anything else.
// ⭐ SSOT: 지표 필드 정의는 여기서만
type IndicatorSet struct {
	Date string `json:"date"`

	// Returns / volatility
	Ret1D    *float64 `json:"ret_1d"`
	Ret5D    *float64 `json:"ret_5d"`
	Ret20D   *float64 `json:"ret_20d"`
	Logret1D *float64 `json:"logret_1d"`
	Vol20D   *float64 `json:"vol_20d"`
	ATR14    *float64 `json:"atr_14"`

	// Trend / moving averages
	SMA5           *float64 `json:"sma_5"`
	SMA20          *float64 `json:"sma_20"`
	SMA50          *float64 `json:"sma_50"`
	EMA20          *float64 `json:"ema_20"`
	EMA50          *float64 `json:"ema_50"`
	CloseOverSMA20 *float64 `json:"close_over_sma_20"`
	CloseOverSMA50 *float64 `json:"close_over_sma_50"`

	// Momentum / oscillators
	RSI14      *float64 `json:"rsi_14"`
	StochK14   *float64 `json:"stoch_k_14"`
	StochD3    *float64 `json:"stoch_d_3"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_hist"`

	// Bollinger Bands (20,2)
	BBMid20       *float64 `json:"bb_mid_20"`
	BBUpper202    *float64 `json:"bb_upper_20_2"`
	BBLower202    *float64 `json:"bb_lower_20_2"`
	BBWidth202    *float64 `json:"bb_width_20_2"`
	BBPercentB202 *float64 `json:"bb_percent_b_20_2"`

	// Range / candles
	TrueRange *float64 `json:"true_range"`
	HLRange   *float64 `json:"hl_range"`
	Body      *float64 `json:"body"`
	UpperWick *float64 `json:"upper_wick"`
	LowerWick *float64 `json:"lower_wick"`
	Gap       *float64 `json:"gap"`
	GapPct    *float64 `json:"gap_pct"`

	// Volume-derived
	VSMA20   *float64 `json:"v_sma_20"`
	VRatio20 *float64 `json:"v_ratio_20"`
	OBV      *float64 `json:"obv"`

	// Breakout / levels
	HH20        *float64 `json:"hh_20"`
	LL20        *float64 `json:"ll_20"`
	CloseToHH20 *float64 `json:"close_to_hh_20"`
	CloseToLL20 *float64 `json:"close_to_ll_20"`
}

// NewIndicatorSet sanitizes and freezes one day's indicator values.
// Non-finite fields are coerced to missing, never passed through.
func NewIndicatorSet(date string, raw IndicatorSet) IndicatorSet {
	out := raw
	out.Date = date

	for _, f := range out.fields() {
		*f = sanitize(*f)
	}

	return out
}

// fields lists every optional field for uniform sanitization/inspection
func (s *IndicatorSet) fields() []**float64 {
	return []**float64{
		&s.Ret1D, &s.Ret5D, &s.Ret20D, &s.Logret1D, &s.Vol20D, &s.ATR14,
		&s.SMA5, &s.SMA20, &s.SMA50, &s.EMA20, &s.EMA50,
		&s.CloseOverSMA20, &s.CloseOverSMA50,
		&s.RSI14, &s.StochK14, &s.StochD3,
		&s.MACD, &s.MACDSignal, &s.MACDHist,
		&s.BBMid20, &s.BBUpper202, &s.BBLower202, &s.BBWidth202, &s.BBPercentB202,
		&s.TrueRange, &s.HLRange, &s.Body, &s.UpperWick, &s.LowerWick,
		&s.Gap, &s.GapPct,
		&s.VSMA20, &s.VRatio20, &s.OBV,
		&s.HH20, &s.LL20, &s.CloseToHH20, &s.CloseToLL20,
	}
}

// AllFinite reports whether no field holds a non-finite value.
// Constructed sets always satisfy this; the check exists for tests and
// defensive assertions at the contract boundary.
func (s IndicatorSet) AllFinite() bool {
	for _, f := range s.fields() {
		if v := *f; v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return false
		}
	}
	return true
}

func sanitize(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	clone := *v
	return &clone
}

// Fptr is a convenience constructor for optional numeric fields
func Fptr(v float64) *float64 {
	return &v
}
