package service

import (
	"math/rand"
	"sort"
	"sync"

	"chinchiro/models"
)

// maxAttempts is how many throws a participant gets before the round scores
// them as no result.
const maxAttempts = 3

// DiceEngine produces classified roll outcomes. It is safe for concurrent use;
// the roll source is guarded because math/rand.Rand is not.
type DiceEngine struct {
	mu                sync.Mutex
	rng               *rand.Rand
	forcedLossPercent int64

	// roll returns one die face 1-6. Tests swap this for a scripted source.
	roll func() int
}

// NewDiceEngine creates a dice engine seeded for production use.
func NewDiceEngine(seed int64, forcedLossPercent int64) *DiceEngine {
	e := &DiceEngine{
		rng:               rand.New(rand.NewSource(seed)),
		forcedLossPercent: forcedLossPercent,
	}
	e.roll = func() int { return e.rng.Intn(6) + 1 }
	return e
}

// PreRollLoss draws the pre-roll event that resolves a participant as an
// instant loss before any dice are thrown.
func (e *DiceEngine) PreRollLoss() bool {
	if e.forcedLossPercent <= 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return int64(e.rng.Intn(100)) < e.forcedLossPercent
}

// RollOutcome throws up to three times, stopping at the first decisive roll,
// and returns the classified final result with every attempt recorded.
func (e *DiceEngine) RollOutcome() *models.RollOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	outcome := &models.RollOutcome{Category: models.OutcomeNoResult}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		roll := models.DiceRoll{e.roll(), e.roll(), e.roll()}
		outcome.Rolls = append(outcome.Rolls, roll)

		category, tiebreak := Classify(roll)
		if category != models.OutcomeNoResult {
			outcome.Category = category
			outcome.Tiebreak = tiebreak
			break
		}
	}

	outcome.Multiplier = outcome.Category.Multiplier()
	return outcome
}

// ForcedOutcome returns the terminal result for a participant hit by the
// pre-roll event. No dice are thrown.
func ForcedOutcome() *models.RollOutcome {
	return &models.RollOutcome{
		Category:   models.OutcomeHifumi,
		ForcedLoss: true,
	}
}

// Classify scores one throw of three dice. The tiebreak is the point value for
// point rolls and the face value for triples; other categories never tie on
// anything but themselves.
func Classify(roll models.DiceRoll) (models.OutcomeCategory, int) {
	d := []int{roll[0], roll[1], roll[2]}
	sort.Ints(d)

	switch {
	case d[0] == d[2]:
		if d[0] == 1 {
			return models.OutcomePinzoro, 0
		}
		return models.OutcomeTriple, d[0]
	case d[0] == 4 && d[1] == 5 && d[2] == 6:
		return models.OutcomeShigoro, 0
	case d[0] == 1 && d[1] == 2 && d[2] == 3:
		return models.OutcomeHifumi, 0
	case d[0] == d[1]:
		return models.OutcomePoint, d[2]
	case d[1] == d[2]:
		return models.OutcomePoint, d[0]
	default:
		return models.OutcomeNoResult, 0
	}
}
