package models

// OutcomeCategory ranks a classified roll of three dice. The numeric order of
// the constants is the comparison order: a higher category always beats a
// lower one, and ties fall through to the tiebreak value.
type OutcomeCategory int

const (
	// OutcomeHifumi is the 1-2-3 straight, an instant loss that ranks below
	// even a failure to roll anything.
	OutcomeHifumi OutcomeCategory = iota
	// OutcomeNoResult means three attempts produced nothing decisive.
	OutcomeNoResult
	// OutcomePoint is exactly one pair; the odd die is the point (1-6).
	OutcomePoint
	// OutcomeShigoro is the 4-5-6 straight.
	OutcomeShigoro
	// OutcomeTriple is three of a kind, twos through sixes.
	OutcomeTriple
	// OutcomePinzoro is triple ones, the top of the table.
	OutcomePinzoro
)

// String returns the traditional name for the category.
func (c OutcomeCategory) String() string {
	switch c {
	case OutcomePinzoro:
		return "pinzoro"
	case OutcomeTriple:
		return "triple"
	case OutcomeShigoro:
		return "shigoro"
	case OutcomePoint:
		return "point"
	case OutcomeNoResult:
		return "no result"
	case OutcomeHifumi:
		return "hifumi"
	default:
		return "unknown"
	}
}

// Multiplier returns the bonus multiplier a winning player earns for the
// category. Losing and indecisive categories carry no bonus.
func (c OutcomeCategory) Multiplier() int64 {
	switch c {
	case OutcomePinzoro:
		return 5
	case OutcomeTriple:
		return 3
	case OutcomeShigoro:
		return 2
	case OutcomePoint:
		return 1
	default:
		return 0
	}
}

// DiceRoll is one throw of three six-sided dice.
type DiceRoll [3]int

// RollOutcome is a participant's final classified result for one round.
// Rolls keeps every attempt (up to three) for the reveal; Category and
// Tiebreak together define the total ordering. ForcedLoss marks the pre-roll
// event that resolves the participant before any dice are thrown.
type RollOutcome struct {
	Rolls      []DiceRoll
	Category   OutcomeCategory
	Tiebreak   int
	Multiplier int64
	ForcedLoss bool
}

// Compare orders two outcomes: negative if o ranks below other, positive if
// above, zero on a draw. Equal category and tiebreak is a draw by definition.
func (o *RollOutcome) Compare(other *RollOutcome) int {
	if o.Category != other.Category {
		return int(o.Category) - int(other.Category)
	}
	return o.Tiebreak - other.Tiebreak
}
