package contracts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIndicatorSet_SanitizesNonFinite(t *testing.T) {
	raw := IndicatorSet{
		Ret1D:  Fptr(math.NaN()),
		RSI14:  Fptr(math.Inf(1)),
		VSMA20: Fptr(math.Inf(-1)),
		SMA20:  Fptr(101.5),
	}

	s := NewIndicatorSet("2025-01-15", raw)

	assert.Nil(t, s.Ret1D)
	assert.Nil(t, s.RSI14)
	assert.Nil(t, s.VSMA20)
	assert.NotNil(t, s.SMA20)
	assert.Equal(t, 101.5, *s.SMA20)
	assert.True(t, s.AllFinite())
	assert.Equal(t, "2025-01-15", s.Date)
}

func TestNewIndicatorSet_ClonesValues(t *testing.T) {
	v := 42.0
	raw := IndicatorSet{SMA5: &v}

	s := NewIndicatorSet("2025-01-15", raw)
	v = 0

	assert.Equal(t, 42.0, *s.SMA5)
}

func TestAllFinite_DetectsDirectViolation(t *testing.T) {
	// bypassing the constructor on purpose
	s := IndicatorSet{OBV: Fptr(math.NaN())}
	assert.False(t, s.AllFinite())
}
