package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeDecision() DecisionCore {
	return DecisionCore{
		Symbol:           "7203.T",
		Date:             "2025-01-15",
		BuySignal:        SignalYes,
		Entry:            Fptr(100.0),
		Stop:             Fptr(90.0),
		Target2R:         Fptr(120.0),
		Target3R:         Fptr(130.0),
		PositionSize:     Fptr(300.0),
		MaxLoss:          Fptr(3000.0),
		TimeStopDays:     40,
		PlanScore:        0.8,
		Rank:             1,
		PolicySnapshotID: "abc123def456",
	}
}

func TestNewDecisionCore_ActiveValid(t *testing.T) {
	d, err := NewDecisionCore(activeDecision())
	require.NoError(t, err)
	assert.Equal(t, SignalYes, d.BuySignal)
	assert.NotNil(t, d.PlanArgs)
	assert.NotNil(t, d.Warnings)
}

func TestNewDecisionCore_NoSignalRejectsPrices(t *testing.T) {
	d := activeDecision()
	d.BuySignal = SignalNo

	_, err := NewDecisionCore(d)
	assert.Error(t, err)
}

func TestNewDecisionCore_NoSignalClean(t *testing.T) {
	d, err := NewDecisionCore(DecisionCore{
		Symbol:           "7203.T",
		Date:             "2025-01-15",
		BuySignal:        SignalNo,
		TimeStopDays:     40,
		Rank:             1,
		PolicySnapshotID: "abc123def456",
	})
	require.NoError(t, err)
	assert.Nil(t, d.Entry)
	assert.Nil(t, d.Stop)
	assert.Nil(t, d.PositionSize)
	assert.Nil(t, d.MaxLoss)
}

func TestNewDecisionCore_PriceOrdering(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DecisionCore)
	}{
		{"stop >= entry", func(d *DecisionCore) { d.Stop = Fptr(100.0) }},
		{"target_2r below 2R", func(d *DecisionCore) { d.Target2R = Fptr(119.0) }},
		{"target_3r below 3R", func(d *DecisionCore) { d.Target3R = Fptr(129.0) }},
		{"target_2r >= target_3r", func(d *DecisionCore) {
			d.Target2R = Fptr(140.0)
			d.Target3R = Fptr(135.0)
		}},
		{"position_size zero", func(d *DecisionCore) { d.PositionSize = Fptr(0.0) }},
		{"missing stop", func(d *DecisionCore) { d.Stop = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := activeDecision()
			tt.mutate(&d)
			_, err := NewDecisionCore(d)
			assert.Error(t, err)
		})
	}
}

func TestWithRank_DoesNotMutateReceiver(t *testing.T) {
	d, err := NewDecisionCore(activeDecision())
	require.NoError(t, err)

	ranked, err := d.WithRank(5)
	require.NoError(t, err)
	assert.Equal(t, 5, ranked.Rank)
	assert.Equal(t, 1, d.Rank)
}

func TestNewDecisionPack_Identity(t *testing.T) {
	_, err := NewDecisionPack("", "2025-01-15", "run-1", nil)
	assert.Error(t, err)

	_, err = NewDecisionPack("JP", "not-a-date", "run-1", nil)
	assert.Error(t, err)

	pack, err := NewDecisionPack("JP", "2025-01-15", "run-1", nil)
	require.NoError(t, err)
	assert.NotNil(t, pack.Decisions)
	assert.Empty(t, pack.Decisions)
}
