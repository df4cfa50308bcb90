package models

// PlayerStanding is the per-player result of comparing against the host.
type PlayerStanding string

const (
	StandingWin  PlayerStanding = "win"
	StandingLoss PlayerStanding = "loss"
	StandingDraw PlayerStanding = "draw"
)

// PlayerResult records how one player settled against the host.
type PlayerResult struct {
	UserID   int64
	Outcome  *RollOutcome
	Standing PlayerStanding
	// Bonus is the pool-capped winnings on top of the returned stake.
	Bonus int64
	// Payout is the total credited back: 0 for a loss, bet for a draw,
	// bet+Bonus for a win.
	Payout int64
}

// RoundSettlement is the complete payout plan for one round. Payouts are
// computed in roster (join) order: earlier joiners draw on the bonus pool
// first. The plan conserves value — player payouts plus the host delta always
// equal the stakes collected at start.
type RoundSettlement struct {
	HostID         int64
	Bet            int64
	Pool           int64
	PoolRemaining  int64
	HostForcedLoss bool
	Players        []PlayerResult
	TotalForfeited int64
	TotalBonuses   int64
	// HostDelta is the host's signed settlement movement: its returned ante
	// plus forfeited stakes minus bonuses paid. Negative when multiple
	// winners drain the pool past what the round collected from losers.
	HostDelta int64
}

// Winners returns the results that beat the host, in payout order.
func (s *RoundSettlement) Winners() []PlayerResult {
	var out []PlayerResult
	for _, p := range s.Players {
		if p.Standing == StandingWin {
			out = append(out, p)
		}
	}
	return out
}

// SoloResult is the outcome of a single-player round against the house.
type SoloResult struct {
	UserID     int64
	Bet        int64
	Outcome    *RollOutcome
	Payout     int64
	NewBalance int64
}
