package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabyjs3-beep/tctp/internal/domain"
)

func TestDeriveSignals_LegitBelowFloorAbsent(t *testing.T) {
	// 24 votes is one short of the legit floor, whatever the distribution.
	agg := Aggregates{Legit: LegitCounts{Positive: 24, Total: 24}}

	signals := DeriveSignals(agg)

	_, ok := signals[domain.ModuleLegit]
	assert.False(t, ok, "below the floor the signal must be absent, not neutral")
}

func TestDeriveSignals_LegitPercentAndPolarity(t *testing.T) {
	agg := Aggregates{Legit: LegitCounts{Positive: 18, Negative: 7, Total: 25}}

	signals := DeriveSignals(agg)

	sig, ok := signals[domain.ModuleLegit]
	require.True(t, ok)
	assert.Equal(t, KindPercentage, sig.Kind)
	assert.Equal(t, "72%", sig.Value)
	assert.Equal(t, PolarityPositive, sig.Polarity)
}

func TestDeriveSignals_LegitNegativePolarity(t *testing.T) {
	agg := Aggregates{Legit: LegitCounts{Positive: 10, Negative: 15, Total: 25}}

	sig := DeriveSignals(agg)[domain.ModuleLegit]

	assert.Equal(t, "40%", sig.Value)
	assert.Equal(t, PolarityNegative, sig.Polarity)
}

func TestDeriveSignals_LegitNeutralBand(t *testing.T) {
	// 60% sits between the 40% and 70% cutoffs.
	agg := Aggregates{Legit: LegitCounts{Positive: 15, Negative: 10, Total: 25}}

	sig := DeriveSignals(agg)[domain.ModuleLegit]

	assert.Equal(t, PolarityNeutral, sig.Polarity)
}

func TestDeriveSignals_QueueHighestCountWins(t *testing.T) {
	agg := Aggregates{Queue: QueueCounts{Walkin: 3, Short: 5, Long: 11, NotGettingIn: 1, Total: 20}}

	sig, ok := DeriveSignals(agg)[domain.ModuleQueue]

	require.True(t, ok)
	assert.Equal(t, KindCategorical, sig.Kind)
	assert.Equal(t, "30-60 min", sig.Value)
	assert.Equal(t, PolarityWarning, sig.Polarity)
}

func TestDeriveSignals_QueueTieBreaksToCanonicalOrder(t *testing.T) {
	// walkin and notGettingIn tie; walkin is declared first and must win.
	agg := Aggregates{Queue: QueueCounts{Walkin: 10, NotGettingIn: 10, Total: 20}}

	sig := DeriveSignals(agg)[domain.ModuleQueue]

	assert.Equal(t, "Walk-in", sig.Value)
	assert.Equal(t, PolarityPositive, sig.Polarity)
}

func TestDeriveSignals_QueueBelowFloorAbsent(t *testing.T) {
	agg := Aggregates{Queue: QueueCounts{Walkin: 19, Total: 19}}

	_, ok := DeriveSignals(agg)[domain.ModuleQueue]

	assert.False(t, ok)
}

func TestDeriveSignals_PackedAlwaysNeutral(t *testing.T) {
	agg := Aggregates{Packed: PackedCounts{Insane: 10, Total: 10}}

	sig, ok := DeriveSignals(agg)[domain.ModulePacked]

	require.True(t, ok)
	assert.Equal(t, "Insane", sig.Value)
	assert.Equal(t, PolarityNeutral, sig.Polarity)
}

func TestDeriveSignals_PackedTieBreak(t *testing.T) {
	agg := Aggregates{Packed: PackedCounts{Empty: 5, Insane: 5, Total: 10}}

	sig := DeriveSignals(agg)[domain.ModulePacked]

	assert.Equal(t, "Empty", sig.Value)
}

func TestDeriveSignals_LineupAndSafetyFloors(t *testing.T) {
	agg := Aggregates{
		Lineup: LineupCounts{Fake: 14, Total: 14},
		Safety: SafetyCounts{Safe: 15, Total: 15},
	}

	signals := DeriveSignals(agg)

	_, lineupOK := signals[domain.ModuleLineup]
	assert.False(t, lineupOK, "14 lineup votes is below the 15-vote floor")

	safety, safetyOK := signals[domain.ModuleSafety]
	require.True(t, safetyOK)
	assert.Equal(t, "Safe", safety.Value)
	assert.Equal(t, PolarityPositive, safety.Polarity)
}

func TestDeriveSignals_EmptyAggregates(t *testing.T) {
	assert.Empty(t, DeriveSignals(Aggregates{}))
}

func TestMinimumVotes_Table(t *testing.T) {
	assert.Equal(t, 25, MinimumVotes(domain.ModuleLegit))
	assert.Equal(t, 20, MinimumVotes(domain.ModuleQueue))
	assert.Equal(t, 15, MinimumVotes(domain.ModuleLineup))
	assert.Equal(t, 15, MinimumVotes(domain.ModuleSafety))
	assert.Equal(t, 10, MinimumVotes(domain.ModulePacked))
	assert.Equal(t, 10, MinimumVotes(domain.ModulePrice))
	assert.Equal(t, 10, MinimumVotes(domain.ModuleSound))
}
