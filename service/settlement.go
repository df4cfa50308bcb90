package service

import (
	"context"
	"fmt"

	"chinchiro/models"
)

// ComputeSettlement turns final roll outcomes into a payout plan. It is pure:
// no state, no randomness, no I/O, so every settlement is replayable from the
// recorded outcomes.
//
// The bonus pool is bet * number of players and is drawn down in roster order.
// Each winner's bonus is capped by what remains, so later joiners can see
// their bonus shaved to zero while still getting their stake back. The host's
// delta is its returned ante plus forfeited stakes minus bonuses paid; the
// plan always conserves the stakes collected at start.
func ComputeSettlement(hostID int64, hostOutcome *models.RollOutcome, players []models.ParticipantOutcome, bet int64) *models.RoundSettlement {
	s := &models.RoundSettlement{
		HostID:         hostID,
		Bet:            bet,
		Pool:           bet * int64(len(players)),
		HostForcedLoss: hostOutcome.ForcedLoss,
	}
	s.PoolRemaining = s.Pool

	if s.HostForcedLoss {
		// The host is out before any comparison: every player wins flat.
		for _, p := range players {
			s.Players = append(s.Players, models.PlayerResult{
				UserID:   p.UserID,
				Outcome:  p.Outcome,
				Standing: models.StandingWin,
				Bonus:    bet,
				Payout:   2 * bet,
			})
			s.TotalBonuses += bet
		}
		s.PoolRemaining = 0
		// Same formula as the normal path with no forfeits: the host's own
		// ante offsets the first bonus, the rest is a host debit.
		s.HostDelta = bet - s.TotalBonuses
		return s
	}

	for _, p := range players {
		result := models.PlayerResult{UserID: p.UserID, Outcome: p.Outcome}

		var cmp int
		if p.Outcome.ForcedLoss {
			cmp = -1
		} else {
			cmp = p.Outcome.Compare(hostOutcome)
		}

		switch {
		case cmp > 0:
			result.Standing = models.StandingWin
			bonus := bet * p.Outcome.Multiplier
			if bonus > s.PoolRemaining {
				bonus = s.PoolRemaining
			}
			s.PoolRemaining -= bonus
			result.Bonus = bonus
			result.Payout = bet + bonus
			s.TotalBonuses += bonus
		case cmp < 0:
			result.Standing = models.StandingLoss
			s.TotalForfeited += bet
		default:
			result.Standing = models.StandingDraw
			result.Payout = bet
		}

		s.Players = append(s.Players, result)
	}

	s.HostDelta = bet + s.TotalForfeited - s.TotalBonuses
	return s
}

// applySettlement moves the settled funds inside one unit of work. Escrow
// already burned every stake at start, so settlement is pure credits plus at
// most one host debit when bonus payouts exceed what the round collected.
func applySettlement(ctx context.Context, uow UnitOfWork, s *models.RoundSettlement, batchID string) error {
	for _, p := range s.Players {
		if p.Payout <= 0 {
			continue
		}
		desc := fmt.Sprintf("round payout (%s)", p.Standing)
		if _, err := applyDelta(ctx, uow, p.UserID, p.Payout, models.TransactionKindRoundPayout, desc, &batchID); err != nil {
			return err
		}
	}

	switch {
	case s.HostDelta > 0:
		if _, err := applyDelta(ctx, uow, s.HostID, s.HostDelta, models.TransactionKindRoundPayout, "round payout (host)", &batchID); err != nil {
			return err
		}
	case s.HostDelta < 0:
		// Winners drained the pool past the round's collections; the host
		// covers the difference or the whole settlement aborts.
		if _, err := applyDelta(ctx, uow, s.HostID, s.HostDelta, models.TransactionKindRoundPayout, "round shortfall (host)", &batchID); err != nil {
			return err
		}
	}

	return nil
}
