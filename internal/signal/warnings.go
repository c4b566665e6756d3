package signal

import "github.com/sabyjs3-beep/tctp/internal/domain"

// Severity classifies a warning banner.
type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Banner is a rule-triggered alert surfaced on an event page. Rule is a
// stable identifier clients can key styling or suppression on.
type Banner struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Icon     string   `json:"icon"`
	Message  string   `json:"message"`
}

// Rule identifiers.
const (
	RuleNotLegit       = "not_legit"
	RuleLineupMismatch = "lineup_mismatch"
	RuleEntryDifficult = "entry_difficult"
	RuleSafetyConcern  = "safety_concern"
)

// Warning-rule trigger ratios.
const (
	notLegitRatio       = 0.6
	lineupFakeRatio     = 0.3
	entryDifficultRatio = 0.4
	safetyConcernRatio  = 0.4
)

// Warnings evaluates the four warning rules against the aggregates.
// The rules are independent: any subset may fire, and the result order is
// fixed (not-legit, lineup, entry, safety). A module below its vote floor
// never fires its rule.
func Warnings(agg Aggregates) []Banner {
	var banners []Banner

	if agg.Legit.Total >= minimumVotes[domain.ModuleLegit] {
		if float64(agg.Legit.Negative)/float64(agg.Legit.Total) >= notLegitRatio {
			banners = append(banners, Banner{
				Rule:     RuleNotLegit,
				Severity: SeverityDanger,
				Icon:     "⚠️",
				Message:  "Many reports say this event isn't legit",
			})
		}
	}

	if agg.Lineup.Total >= minimumVotes[domain.ModuleLineup] {
		if float64(agg.Lineup.Fake)/float64(agg.Lineup.Total) >= lineupFakeRatio {
			banners = append(banners, Banner{
				Rule:     RuleLineupMismatch,
				Severity: SeverityWarning,
				Icon:     "⚠️",
				Message:  "Lineup mismatch reported",
			})
		}
	}

	if agg.Queue.Total >= minimumVotes[domain.ModuleQueue] {
		if float64(agg.Queue.NotGettingIn)/float64(agg.Queue.Total) >= entryDifficultRatio {
			banners = append(banners, Banner{
				Rule:     RuleEntryDifficult,
				Severity: SeverityDanger,
				Icon:     "⛔",
				Message:  "Entry difficult right now",
			})
		}
	}

	if agg.Safety.Total >= minimumVotes[domain.ModuleSafety] {
		if float64(agg.Safety.Sketchy+agg.Safety.Cops)/float64(agg.Safety.Total) >= safetyConcernRatio {
			banners = append(banners, Banner{
				Rule:     RuleSafetyConcern,
				Severity: SeverityWarning,
				Icon:     "⚠️",
				Message:  "Safety concerns reported",
			})
		}
	}

	return banners
}
