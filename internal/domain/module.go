package domain

// Module is a fixed category of crowd vote.
type Module string

const (
	ModuleLegit  Module = "legit"
	ModulePacked Module = "packed"
	ModuleQueue  Module = "queue"
	ModuleLineup Module = "lineup"
	ModulePrice  Module = "price"
	ModuleSafety Module = "safety"
	ModuleSound  Module = "sound"
)

// Modules lists all vote modules in canonical order.
var Modules = []Module{
	ModuleLegit,
	ModulePacked,
	ModuleQueue,
	ModuleLineup,
	ModulePrice,
	ModuleSafety,
	ModuleSound,
}

// Vote values per module. Declaration order is the canonical tie-break order
// for categorical aggregation: earlier values win equal counts.
const (
	LegitPositive = "positive"
	LegitNegative = "negative"

	PackedEmpty    = "empty"
	PackedModerate = "moderate"
	PackedPacked   = "packed"
	PackedInsane   = "insane"

	QueueWalkin       = "walkin"
	QueueShort        = "short"
	QueueLong         = "long"
	QueueNotGettingIn = "notGettingIn"

	LineupAsPromised = "asPromised"
	LineupChanged    = "changed"
	LineupFake       = "fake"

	PriceLow    = "low"
	PriceMedium = "medium"
	PriceHigh   = "high"

	SafetySafe    = "safe"
	SafetySketchy = "sketchy"
	SafetyCops    = "cops"

	SoundGood = "good"
	SoundMeh  = "meh"
	SoundBad  = "bad"
)

var moduleValues = map[Module][]string{
	ModuleLegit:  {LegitPositive, LegitNegative},
	ModulePacked: {PackedEmpty, PackedModerate, PackedPacked, PackedInsane},
	ModuleQueue:  {QueueWalkin, QueueShort, QueueLong, QueueNotGettingIn},
	ModuleLineup: {LineupAsPromised, LineupChanged, LineupFake},
	ModulePrice:  {PriceLow, PriceMedium, PriceHigh},
	ModuleSafety: {SafetySafe, SafetySketchy, SafetyCops},
	ModuleSound:  {SoundGood, SoundMeh, SoundBad},
}

func (m Module) Valid() bool {
	_, ok := moduleValues[m]
	return ok
}

// Values returns the module's vote values in canonical order. Nil for an
// unknown module.
func (m Module) Values() []string {
	return moduleValues[m]
}

// ValidValue reports whether v is an accepted vote value for this module.
func (m Module) ValidValue(v string) bool {
	for _, known := range moduleValues[m] {
		if known == v {
			return true
		}
	}
	return false
}
