package signal

import "github.com/sabyjs3-beep/tctp/internal/domain"

// Per-module vote tallies. Field order mirrors the canonical value order used
// for tie-breaking.

type LegitCounts struct {
	Positive int
	Negative int
	Total    int
}

type PackedCounts struct {
	Empty    int
	Moderate int
	Packed   int
	Insane   int
	Total    int
}

type QueueCounts struct {
	Walkin       int
	Short        int
	Long         int
	NotGettingIn int
	Total        int
}

type LineupCounts struct {
	AsPromised int
	Changed    int
	Fake       int
	Total      int
}

type PriceCounts struct {
	Low    int
	Medium int
	High   int
	Total  int
}

type SafetyCounts struct {
	Safe    int
	Sketchy int
	Cops    int
	Total   int
}

type SoundCounts struct {
	Good  int
	Meh   int
	Bad   int
	Total int
}

// Aggregates holds the tallies for every module of one event.
type Aggregates struct {
	Legit  LegitCounts
	Packed PackedCounts
	Queue  QueueCounts
	Lineup LineupCounts
	Price  PriceCounts
	Safety SafetyCounts
	Sound  SoundCounts
}

type voteKey struct {
	deviceID string
	module   domain.Module
}

// Aggregate reduces a raw vote collection into per-module tallies.
//
// The input is not required to be deduplicated: duplicate (device, module)
// pairs collapse to the vote with the latest timestamp, and when timestamps
// are equal the vote appearing later in the input wins. The storage layer
// normally guarantees at most one vote per pair, so this is usually a no-op,
// but the reduction stays correct even if that invariant is ever violated.
// Votes carrying an unknown module or value are ignored.
func Aggregate(votes []domain.Vote) Aggregates {
	latest := make(map[voteKey]domain.Vote, len(votes))
	order := make([]voteKey, 0, len(votes))
	for _, v := range votes {
		key := voteKey{deviceID: v.DeviceID.String(), module: v.Module}
		cur, seen := latest[key]
		if !seen {
			order = append(order, key)
			latest[key] = v
			continue
		}
		if !v.UpdatedAt.Before(cur.UpdatedAt) {
			latest[key] = v
		}
	}

	var agg Aggregates
	for _, key := range order {
		agg.count(latest[key])
	}
	return agg
}

func (a *Aggregates) count(v domain.Vote) {
	switch v.Module {
	case domain.ModuleLegit:
		switch v.Value {
		case domain.LegitPositive:
			a.Legit.Positive++
		case domain.LegitNegative:
			a.Legit.Negative++
		default:
			return
		}
		a.Legit.Total++
	case domain.ModulePacked:
		switch v.Value {
		case domain.PackedEmpty:
			a.Packed.Empty++
		case domain.PackedModerate:
			a.Packed.Moderate++
		case domain.PackedPacked:
			a.Packed.Packed++
		case domain.PackedInsane:
			a.Packed.Insane++
		default:
			return
		}
		a.Packed.Total++
	case domain.ModuleQueue:
		switch v.Value {
		case domain.QueueWalkin:
			a.Queue.Walkin++
		case domain.QueueShort:
			a.Queue.Short++
		case domain.QueueLong:
			a.Queue.Long++
		case domain.QueueNotGettingIn:
			a.Queue.NotGettingIn++
		default:
			return
		}
		a.Queue.Total++
	case domain.ModuleLineup:
		switch v.Value {
		case domain.LineupAsPromised:
			a.Lineup.AsPromised++
		case domain.LineupChanged:
			a.Lineup.Changed++
		case domain.LineupFake:
			a.Lineup.Fake++
		default:
			return
		}
		a.Lineup.Total++
	case domain.ModulePrice:
		switch v.Value {
		case domain.PriceLow:
			a.Price.Low++
		case domain.PriceMedium:
			a.Price.Medium++
		case domain.PriceHigh:
			a.Price.High++
		default:
			return
		}
		a.Price.Total++
	case domain.ModuleSafety:
		switch v.Value {
		case domain.SafetySafe:
			a.Safety.Safe++
		case domain.SafetySketchy:
			a.Safety.Sketchy++
		case domain.SafetyCops:
			a.Safety.Cops++
		default:
			return
		}
		a.Safety.Total++
	case domain.ModuleSound:
		switch v.Value {
		case domain.SoundGood:
			a.Sound.Good++
		case domain.SoundMeh:
			a.Sound.Meh++
		case domain.SoundBad:
			a.Sound.Bad++
		default:
			return
		}
		a.Sound.Total++
	}
}
