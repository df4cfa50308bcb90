package service

import (
	"context"
	"fmt"

	"chinchiro/models"

	log "github.com/sirupsen/logrus"
)

// soloPayoutPercent maps a final outcome to the payout as a percentage of the
// bet. Point rolls pay by their point value; indecisive rolls return a sliver
// of the stake. The table gives the house a few percent of edge overall.
var soloPayoutPercent = map[models.OutcomeCategory]map[int]int64{
	models.OutcomePinzoro:  {0: 1000},
	models.OutcomeShigoro:  {0: 300},
	models.OutcomeHifumi:   {0: 0},
	models.OutcomeNoResult: {0: 40},
	models.OutcomePoint: {
		1: 0, 2: 0, 3: 0,
		4: 75, 5: 125, 6: 200,
	},
}

// soloTriplePercent pays every triple the same; the face is cosmetic.
const soloTriplePercent int64 = 450

// soloService implements the SoloService interface
type soloService struct {
	uowFactory UnitOfWorkFactory
	dice       *DiceEngine
}

// NewSoloService creates a new solo service
func NewSoloService(uowFactory UnitOfWorkFactory, dice *DiceEngine) SoloService {
	return &soloService{
		uowFactory: uowFactory,
		dice:       dice,
	}
}

// Play runs one round against the house. The stake debit, the payout credit
// and both ledger rows commit as one unit, so a crash can never leave a paid
// stake without its recorded outcome.
func (s *soloService) Play(ctx context.Context, userID, bet int64) (*models.SoloResult, error) {
	if bet <= 0 {
		return nil, fmt.Errorf("bet must be positive, got %d", bet)
	}

	var outcome *models.RollOutcome
	if s.dice.PreRollLoss() {
		outcome = ForcedOutcome()
	} else {
		outcome = s.dice.RollOutcome()
	}

	payout := soloPayout(bet, outcome)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	if _, err := applyDelta(ctx, uow, userID, -bet, models.TransactionKindSoloStake, "solo round stake", nil); err != nil {
		return nil, err
	}

	if payout > 0 {
		desc := fmt.Sprintf("solo round payout (%s)", outcome.Category)
		if _, err := applyDelta(ctx, uow, userID, payout, models.TransactionKindSoloPayout, desc, nil); err != nil {
			return nil, err
		}
	}

	newBalance, err := uow.AccountRepository().GetBalance(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "get balance", Err: err}
	}

	if err := uow.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit", Err: err}
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"bet":     bet,
		"outcome": outcome.Category.String(),
		"payout":  payout,
	}).Info("Solo round played")

	return &models.SoloResult{
		UserID:     userID,
		Bet:        bet,
		Outcome:    outcome,
		Payout:     payout,
		NewBalance: newBalance,
	}, nil
}

// soloPayout computes the credit for a final outcome.
func soloPayout(bet int64, outcome *models.RollOutcome) int64 {
	if outcome.ForcedLoss {
		return 0
	}
	var percent int64
	switch outcome.Category {
	case models.OutcomeTriple:
		percent = soloTriplePercent
	case models.OutcomePoint:
		percent = soloPayoutPercent[models.OutcomePoint][outcome.Tiebreak]
	default:
		percent = soloPayoutPercent[outcome.Category][0]
	}
	return bet * percent / 100
}
