package signal

import (
	"fmt"
	"math"

	"github.com/sabyjs3-beep/tctp/internal/domain"
)

// Polarity is the display tone of a derived signal.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
	PolarityWarning  Polarity = "warning"
)

// Kind distinguishes percentage signals from categorical ones.
type Kind string

const (
	KindPercentage  Kind = "percentage"
	KindCategorical Kind = "categorical"
)

// Signal is a threshold-gated, display-ready summary for one module.
type Signal struct {
	Module   domain.Module `json:"module"`
	Kind     Kind          `json:"kind"`
	Value    string        `json:"value"`
	Polarity Polarity      `json:"polarity"`
}

// Minimum vote totals per module before any signal or warning is derived.
// These are the rule-engine floors; the looser per-card floors the product
// once used elsewhere were deliberately retired in favor of this table.
var minimumVotes = map[domain.Module]int{
	domain.ModuleLegit:  25,
	domain.ModuleQueue:  20,
	domain.ModuleLineup: 15,
	domain.ModuleSafety: 15,
	domain.ModulePacked: 10,
	domain.ModulePrice:  10,
	domain.ModuleSound:  10,
}

// MinimumVotes returns the vote floor below which a module yields no signal.
func MinimumVotes(m domain.Module) int {
	return minimumVotes[m]
}

const (
	legitPositiveCutoff = 70
	legitNegativeCutoff = 40
)

// category is one candidate value of a categorical module. Winner selection
// walks candidates in canonical order and replaces only on a strictly higher
// count, so equal counts resolve to the earlier value, never to map order.
type category struct {
	count    int
	label    string
	polarity Polarity
}

func pickCategory(candidates []category) category {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.count > best.count {
			best = c
		}
	}
	return best
}

// DeriveSignals computes the per-module display signals for one event.
// Modules below their vote floor are absent from the result; absence is how
// "not enough data" is distinguished from a computed neutral signal.
func DeriveSignals(agg Aggregates) map[domain.Module]Signal {
	signals := make(map[domain.Module]Signal)

	if agg.Legit.Total >= minimumVotes[domain.ModuleLegit] {
		percent := int(math.Round(float64(agg.Legit.Positive) / float64(agg.Legit.Total) * 100))
		polarity := PolarityNeutral
		switch {
		case percent >= legitPositiveCutoff:
			polarity = PolarityPositive
		case percent <= legitNegativeCutoff:
			polarity = PolarityNegative
		}
		signals[domain.ModuleLegit] = Signal{
			Module:   domain.ModuleLegit,
			Kind:     KindPercentage,
			Value:    fmt.Sprintf("%d%%", percent),
			Polarity: polarity,
		}
	}

	if agg.Queue.Total >= minimumVotes[domain.ModuleQueue] {
		mode := pickCategory([]category{
			{agg.Queue.Walkin, "Walk-in", PolarityPositive},
			{agg.Queue.Short, "10-20 min", PolarityNeutral},
			{agg.Queue.Long, "30-60 min", PolarityWarning},
			{agg.Queue.NotGettingIn, "Not getting in", PolarityNegative},
		})
		signals[domain.ModuleQueue] = Signal{
			Module:   domain.ModuleQueue,
			Kind:     KindCategorical,
			Value:    mode.label,
			Polarity: mode.polarity,
		}
	}

	if agg.Packed.Total >= minimumVotes[domain.ModulePacked] {
		mode := pickCategory([]category{
			{agg.Packed.Empty, "Empty", PolarityNeutral},
			{agg.Packed.Moderate, "Moderate", PolarityNeutral},
			{agg.Packed.Packed, "Packed", PolarityNeutral},
			{agg.Packed.Insane, "Insane", PolarityNeutral},
		})
		signals[domain.ModulePacked] = Signal{
			Module:   domain.ModulePacked,
			Kind:     KindCategorical,
			Value:    mode.label,
			Polarity: PolarityNeutral,
		}
	}

	if agg.Lineup.Total >= minimumVotes[domain.ModuleLineup] {
		mode := pickCategory([]category{
			{agg.Lineup.AsPromised, "As promised", PolarityPositive},
			{agg.Lineup.Changed, "Changed", PolarityWarning},
			{agg.Lineup.Fake, "Fake", PolarityNegative},
		})
		signals[domain.ModuleLineup] = Signal{
			Module:   domain.ModuleLineup,
			Kind:     KindCategorical,
			Value:    mode.label,
			Polarity: mode.polarity,
		}
	}

	if agg.Price.Total >= minimumVotes[domain.ModulePrice] {
		mode := pickCategory([]category{
			{agg.Price.Low, "₹", PolarityNeutral},
			{agg.Price.Medium, "₹₹", PolarityNeutral},
			{agg.Price.High, "₹₹₹", PolarityNeutral},
		})
		signals[domain.ModulePrice] = Signal{
			Module:   domain.ModulePrice,
			Kind:     KindCategorical,
			Value:    mode.label,
			Polarity: PolarityNeutral,
		}
	}

	if agg.Safety.Total >= minimumVotes[domain.ModuleSafety] {
		mode := pickCategory([]category{
			{agg.Safety.Safe, "Safe", PolarityPositive},
			{agg.Safety.Sketchy, "Sketchy", PolarityWarning},
			{agg.Safety.Cops, "Cops seen", PolarityWarning},
		})
		signals[domain.ModuleSafety] = Signal{
			Module:   domain.ModuleSafety,
			Kind:     KindCategorical,
			Value:    mode.label,
			Polarity: mode.polarity,
		}
	}

	if agg.Sound.Total >= minimumVotes[domain.ModuleSound] {
		mode := pickCategory([]category{
			{agg.Sound.Good, "Good", PolarityPositive},
			{agg.Sound.Meh, "Meh", PolarityNeutral},
			{agg.Sound.Bad, "Bad", PolarityNegative},
		})
		signals[domain.ModuleSound] = Signal{
			Module:   domain.ModuleSound,
			Kind:     KindCategorical,
			Value:    mode.label,
			Polarity: mode.polarity,
		}
	}

	return signals
}
