package service

import (
	"testing"

	"chinchiro/models"

	"github.com/stretchr/testify/assert"
)

// scriptedEngine returns an engine whose dice read from a fixed sequence of
// faces, three per throw.
func scriptedEngine(faces ...int) *DiceEngine {
	e := NewDiceEngine(1, 0)
	i := 0
	e.roll = func() int {
		f := faces[i%len(faces)]
		i++
		return f
	}
	return e
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		roll     models.DiceRoll
		category models.OutcomeCategory
		tiebreak int
	}{
		{"triple ones is pinzoro", models.DiceRoll{1, 1, 1}, models.OutcomePinzoro, 0},
		{"triple fives", models.DiceRoll{5, 5, 5}, models.OutcomeTriple, 5},
		{"triple twos", models.DiceRoll{2, 2, 2}, models.OutcomeTriple, 2},
		{"shigoro any order", models.DiceRoll{6, 4, 5}, models.OutcomeShigoro, 0},
		{"hifumi any order", models.DiceRoll{3, 1, 2}, models.OutcomeHifumi, 0},
		{"pair with high point", models.DiceRoll{2, 2, 6}, models.OutcomePoint, 6},
		{"pair with low point", models.DiceRoll{1, 5, 5}, models.OutcomePoint, 1},
		{"pair in the middle", models.DiceRoll{4, 2, 4}, models.OutcomePoint, 2},
		{"no pair no straight", models.DiceRoll{2, 4, 6}, models.OutcomeNoResult, 0},
		{"almost hifumi", models.DiceRoll{1, 2, 4}, models.OutcomeNoResult, 0},
		{"almost shigoro", models.DiceRoll{3, 5, 6}, models.OutcomeNoResult, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, tiebreak := Classify(tt.roll)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.tiebreak, tiebreak)
		})
	}
}

func TestOutcomeOrdering(t *testing.T) {
	// Ascending rank; every later entry must beat every earlier one.
	ladder := []*models.RollOutcome{
		{Category: models.OutcomeHifumi},
		{Category: models.OutcomeNoResult},
		{Category: models.OutcomePoint, Tiebreak: 1},
		{Category: models.OutcomePoint, Tiebreak: 6},
		{Category: models.OutcomeShigoro},
		{Category: models.OutcomeTriple, Tiebreak: 2},
		{Category: models.OutcomeTriple, Tiebreak: 6},
		{Category: models.OutcomePinzoro},
	}

	for i := range ladder {
		for j := range ladder {
			cmp := ladder[i].Compare(ladder[j])
			switch {
			case i < j:
				assert.Negative(t, cmp, "rank %d should lose to rank %d", i, j)
			case i > j:
				assert.Positive(t, cmp, "rank %d should beat rank %d", i, j)
			default:
				assert.Zero(t, cmp)
			}
		}
	}
}

func TestRollOutcome_StopsAtFirstDecisiveRoll(t *testing.T) {
	// First throw is an immediate pair; the engine must not roll again.
	e := scriptedEngine(3, 3, 6)

	outcome := e.RollOutcome()

	assert.Len(t, outcome.Rolls, 1)
	assert.Equal(t, models.OutcomePoint, outcome.Category)
	assert.Equal(t, 6, outcome.Tiebreak)
	assert.Equal(t, int64(1), outcome.Multiplier)
	assert.False(t, outcome.ForcedLoss)
}

func TestRollOutcome_RetriesThenSettles(t *testing.T) {
	// Two indecisive throws, then pinzoro on the last attempt.
	e := scriptedEngine(
		2, 4, 6,
		1, 3, 5,
		1, 1, 1,
	)

	outcome := e.RollOutcome()

	assert.Len(t, outcome.Rolls, 3)
	assert.Equal(t, models.OutcomePinzoro, outcome.Category)
	assert.Equal(t, int64(5), outcome.Multiplier)
}

func TestRollOutcome_ThreeMissesIsNoResult(t *testing.T) {
	e := scriptedEngine(2, 4, 6)

	outcome := e.RollOutcome()

	assert.Len(t, outcome.Rolls, 3)
	assert.Equal(t, models.OutcomeNoResult, outcome.Category)
	assert.Equal(t, int64(0), outcome.Multiplier)
}

func TestRollOutcome_HifumiEndsTheTurn(t *testing.T) {
	// Hifumi is decisive even though it is a loss; no reroll allowed.
	e := scriptedEngine(1, 2, 3, 6, 6, 6)

	outcome := e.RollOutcome()

	assert.Len(t, outcome.Rolls, 1)
	assert.Equal(t, models.OutcomeHifumi, outcome.Category)
}

func TestPreRollLoss(t *testing.T) {
	always := NewDiceEngine(1, 100)
	assert.True(t, always.PreRollLoss())

	never := NewDiceEngine(1, 0)
	for i := 0; i < 100; i++ {
		assert.False(t, never.PreRollLoss())
	}
}

func TestForcedOutcome(t *testing.T) {
	outcome := ForcedOutcome()

	assert.True(t, outcome.ForcedLoss)
	assert.Empty(t, outcome.Rolls)
	assert.Equal(t, int64(0), outcome.Multiplier)
}
