package contracts

import (
	"math"
	"time"

	"github.com/wonny/verdict/internal/faults"
)

// Supported markets
const (
	MarketJP = "JP"
	MarketUS = "US"
)

// DateLayout is the canonical calendar-date format used as map keys and in
// every serialized artifact (ISO 8601, no timezone)
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a canonical calendar date
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// BuySignal is the 3-valued final decision signal
// ⭐ SSOT: 매수 시그널 값은 여기서만 정의
type BuySignal string

const (
	// SignalYes means full size (subject to sizing rules)
	SignalYes BuySignal = "YES"
	// SignalYesHalf means half size (conservative)
	SignalYesHalf BuySignal = "YES_HALF"
	// SignalNo means skip
	SignalNo BuySignal = "NO"
)

// Valid reports whether the signal is one of the three allowed values
func (s BuySignal) Valid() bool {
	switch s {
	case SignalYes, SignalYesHalf, SignalNo:
		return true
	default:
		return false
	}
}

// Active reports whether the signal carries an executable plan
func (s BuySignal) Active() bool {
	return s == SignalYes || s == SignalYesHalf
}

// RawBar is one unvalidated row as delivered by an external data source.
// Non-finite fields are allowed here; preprocessing filters them out before
// OhlcvBar construction.
type RawBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// RawSeries is the loader output for one symbol, order not guaranteed
type RawSeries []RawBar

// OhlcvBar is one validated trading day for one symbol. Produced once by
// preprocessing; never mutated afterwards.
type OhlcvBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// NewOhlcvBar validates all field constraints; it never returns a partially
// valid bar
func NewOhlcvBar(date string, open, high, low, close, volume float64) (OhlcvBar, error) {
	if !ValidDate(date) {
		return OhlcvBar{}, faults.ContractViolation("OhlcvBar date must be YYYY-MM-DD").
			WithContext(map[string]interface{}{"date": date})
	}

	prices := []struct {
		name string
		v    float64
	}{
		{"open", open}, {"high", high}, {"low", low}, {"close", close},
	}
	for _, p := range prices {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return OhlcvBar{}, faults.ContractViolation("OhlcvBar price fields must be finite").
				WithContext(map[string]interface{}{"date": date, "field": p.name})
		}
	}

	if math.IsNaN(volume) || math.IsInf(volume, 0) || volume < 0 {
		return OhlcvBar{}, faults.ContractViolation("OhlcvBar volume must be finite and >= 0").
			WithContext(map[string]interface{}{"date": date})
	}

	return OhlcvBar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}, nil
}

// OhlcvHistory is an ascending-by-date series of validated bars for one
// symbol. The indicator engine trusts the order on entry.
type OhlcvHistory []OhlcvBar

// Dates returns the calendar dates in series order
func (h OhlcvHistory) Dates() []string {
	out := make([]string, len(h))
	for i, b := range h {
		out[i] = b.Date
	}
	return out
}

// Ascending reports whether the series is strictly ordered by date
func (h OhlcvHistory) Ascending() bool {
	for i := 1; i < len(h); i++ {
		if h[i-1].Date >= h[i].Date {
			return false
		}
	}
	return true
}
