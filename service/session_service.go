package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chinchiro/config"
	"chinchiro/events"
	"chinchiro/models"

	log "github.com/sirupsen/logrus"
)

// sweepInterval is how often the timeout sweeper scans the registry.
const sweepInterval = 5 * time.Second

// sessionService implements the SessionService interface. The registry is an
// in-memory map keyed by channel ID; the mutex is never held across database
// I/O — phase transitions happen under the lock first and are reverted if the
// I/O fails.
type sessionService struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session

	uowFactory UnitOfWorkFactory
	ledger     LedgerService
	dice       *DiceEngine
	cooldowns  *CooldownTracker
	cfg        *config.Config
	eventBus   *events.Bus
	now        func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(uowFactory UnitOfWorkFactory, ledger LedgerService, dice *DiceEngine, cooldowns *CooldownTracker, cfg *config.Config, eventBus *events.Bus) SessionService {
	return &sessionService{
		sessions:   make(map[int64]*models.Session),
		uowFactory: uowFactory,
		ledger:     ledger,
		dice:       dice,
		cooldowns:  cooldowns,
		cfg:        cfg,
		eventBus:   eventBus,
		now:        time.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, hostID, channelID, bet int64) (*models.Session, error) {
	if bet <= 0 {
		return nil, fmt.Errorf("bet must be positive, got %d", bet)
	}

	if remaining, active := s.cooldowns.CheckAndReject(hostID); active {
		return nil, &CooldownActiveError{SecondsRemaining: remaining}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[channelID]; exists {
		return nil, ErrSessionConflict
	}

	session := &models.Session{
		HostID:    hostID,
		ChannelID: channelID,
		Bet:       bet,
		Phase:     models.SessionPhaseRecruiting,
		CreatedAt: s.now(),
	}
	s.sessions[channelID] = session

	log.WithFields(log.Fields{
		"channelID": channelID,
		"hostID":    hostID,
		"bet":       bet,
	}).Info("Round created")

	return session.Clone(), nil
}

func (s *sessionService) Join(ctx context.Context, channelID, userID int64) (*models.Session, error) {
	bet, err := s.validateJoin(channelID, userID)
	if err != nil {
		return nil, err
	}

	// Affordability is checked outside the registry lock: the player must
	// cover the stake plus the venue fee collected at start.
	needed := bet + s.venueFee(bet)
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < needed {
		return nil, fmt.Errorf("joining needs %d (stake %d plus fee): %w", needed, bet, ErrInsufficientFunds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Revalidate: the session may have started, filled or vanished while the
	// balance read was in flight.
	session, exists := s.sessions[channelID]
	if !exists {
		return nil, ErrNoSession
	}
	if session.Phase != models.SessionPhaseRecruiting {
		return nil, &SessionStateError{Op: "join", Phase: session.Phase}
	}
	if session.HostID == userID {
		return nil, fmt.Errorf("the host is already in the round")
	}
	if session.HasPlayer(userID) {
		return nil, fmt.Errorf("user %d already joined this round", userID)
	}
	if session.IsFull() {
		return nil, ErrCapacityExceeded
	}

	session.Players = append(session.Players, userID)

	log.WithFields(log.Fields{
		"channelID": channelID,
		"userID":    userID,
		"players":   len(session.Players),
	}).Info("Player joined round")

	return session.Clone(), nil
}

// validateJoin performs the cheap registry checks before the balance read.
func (s *sessionService) validateJoin(channelID, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[channelID]
	if !exists {
		return 0, ErrNoSession
	}
	if session.Phase != models.SessionPhaseRecruiting {
		return 0, &SessionStateError{Op: "join", Phase: session.Phase}
	}
	if session.HostID == userID {
		return 0, fmt.Errorf("the host is already in the round")
	}
	if session.HasPlayer(userID) {
		return 0, fmt.Errorf("user %d already joined this round", userID)
	}
	if session.IsFull() {
		return 0, ErrCapacityExceeded
	}
	return session.Bet, nil
}

func (s *sessionService) Start(ctx context.Context, channelID, hostID int64) (*models.Session, error) {
	s.mu.Lock()
	session, exists := s.sessions[channelID]
	if !exists {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	if session.HostID != hostID {
		s.mu.Unlock()
		return nil, ErrNotPermitted
	}
	if session.Phase != models.SessionPhaseRecruiting {
		s.mu.Unlock()
		return nil, &SessionStateError{Op: "start", Phase: session.Phase}
	}
	if len(session.Players) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("cannot start with an empty roster")
	}

	// Claim the session and stamp the escrow batch before touching the
	// ledger, so a Cancel arriving mid-escrow always knows which batch holds
	// the funds.
	session.Phase = models.SessionPhaseRolling
	batchID := newBatchID()
	session.EscrowBatchID = batchID
	bet := session.Bet
	participants := session.Participants()
	s.mu.Unlock()

	if err := s.escrowStakes(ctx, channelID, batchID, bet, participants); err != nil {
		s.mu.Lock()
		if cur, ok := s.sessions[channelID]; ok && cur == session {
			session.Phase = models.SessionPhaseRecruiting
			session.EscrowBatchID = ""
		}
		s.mu.Unlock()
		return nil, err
	}

	// Funds are locked; roll everyone. The dice never fail, so nothing past
	// this point can abort the round short of Resolve. A busted host loses to
	// the whole table flat, so the players' dice stay in the cup.
	hostOutcome := s.rollParticipant()
	playerOutcomes := make([]models.ParticipantOutcome, 0, len(participants)-1)
	for _, userID := range participants[1:] {
		po := models.ParticipantOutcome{UserID: userID}
		if !hostOutcome.ForcedLoss {
			po.Outcome = s.rollParticipant()
		}
		playerOutcomes = append(playerOutcomes, po)
	}

	s.mu.Lock()
	if cur, ok := s.sessions[channelID]; !ok || cur != session {
		// Cancelled while the stakes were locking. Whichever side finds the
		// committed batch refunds it; the other side sees it already gone.
		s.mu.Unlock()
		if _, err := s.ledger.Rollback(ctx, batchID); err != nil && !errors.Is(err, ErrBatchNotFound) {
			log.WithFields(log.Fields{
				"channelID":   channelID,
				"escrowBatch": batchID,
				"error":       err,
			}).Error("Failed to refund escrow for cancelled round")
		}
		return nil, fmt.Errorf("round was cancelled while stakes were locking: %w", ErrNoSession)
	}
	session.HostOutcome = hostOutcome
	session.PlayerOutcomes = playerOutcomes
	snapshot := session.Clone()
	s.mu.Unlock()

	s.eventBus.Emit(ctx, events.SessionPhaseEvent{
		ChannelID: channelID,
		HostID:    hostID,
		OldPhase:  models.SessionPhaseRecruiting,
		NewPhase:  models.SessionPhaseRolling,
	})

	log.WithFields(log.Fields{
		"channelID":    channelID,
		"participants": len(participants),
		"escrowBatch":  batchID,
	}).Info("Round started")

	return snapshot, nil
}

// escrowStakes burns every participant's stake and venue fee in one atomic
// batch. Any single failed debit aborts the whole batch.
func (s *sessionService) escrowStakes(ctx context.Context, channelID int64, batchID string, bet int64, participants []int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	fee := s.venueFee(bet)
	desc := fmt.Sprintf("round stake (channel %d)", channelID)

	for _, userID := range participants {
		if _, err := applyDelta(ctx, uow, userID, -bet, models.TransactionKindRoundStake, desc, &batchID); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return fmt.Errorf("participant %d cannot cover the stake: %w", userID, err)
			}
			return err
		}
		if fee > 0 {
			if _, err := applyDelta(ctx, uow, userID, -fee, models.TransactionKindVenueFee, "venue fee", &batchID); err != nil {
				if errors.Is(err, ErrInsufficientFunds) {
					return fmt.Errorf("participant %d cannot cover the venue fee: %w", userID, err)
				}
				return err
			}
		}
	}

	if err := uow.Commit(); err != nil {
		return &PersistenceError{Op: "commit escrow", Err: err}
	}

	return nil
}

// rollParticipant draws the pre-roll event, then the dice if it misses.
func (s *sessionService) rollParticipant() *models.RollOutcome {
	if s.dice.PreRollLoss() {
		return ForcedOutcome()
	}
	return s.dice.RollOutcome()
}

func (s *sessionService) Resolve(ctx context.Context, channelID int64) (*models.RoundSettlement, error) {
	s.mu.Lock()
	session, exists := s.sessions[channelID]
	if !exists {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	if session.Phase != models.SessionPhaseRolling || session.HostOutcome == nil {
		s.mu.Unlock()
		return nil, &SessionStateError{Op: "resolve", Phase: session.Phase}
	}
	snapshot := session.Clone()
	s.mu.Unlock()

	settlement := ComputeSettlement(snapshot.HostID, snapshot.HostOutcome, snapshot.PlayerOutcomes, snapshot.Bet)

	if err := s.creditSettlement(ctx, channelID, settlement); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			// The host could not cover the shortfall. Void the round: refund
			// the escrow and drop the session so the channel is not wedged.
			s.voidRound(ctx, channelID, session)
			return nil, fmt.Errorf("round voided, host cannot cover the shortfall: %w", err)
		}
		return nil, err
	}

	s.mu.Lock()
	session.Phase = models.SessionPhaseSettled
	delete(s.sessions, channelID)
	s.mu.Unlock()

	for _, userID := range snapshot.Participants() {
		s.cooldowns.Record(userID)
	}

	log.WithFields(log.Fields{
		"channelID":    channelID,
		"hostDelta":    settlement.HostDelta,
		"totalBonuses": settlement.TotalBonuses,
	}).Info("Round settled")

	return settlement, nil
}

// creditSettlement applies the payout plan plus the settled event as one unit
// of work.
func (s *sessionService) creditSettlement(ctx context.Context, channelID int64, settlement *models.RoundSettlement) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	batchID := newBatchID()
	if err := applySettlement(ctx, uow, settlement, batchID); err != nil {
		return err
	}

	uow.EventBus().Publish(events.RoundSettledEvent{
		ChannelID:    channelID,
		HostID:       settlement.HostID,
		Bet:          settlement.Bet,
		PlayerCount:  len(settlement.Players),
		HostDelta:    settlement.HostDelta,
		TotalBonuses: settlement.TotalBonuses,
	})

	if err := uow.Commit(); err != nil {
		return &PersistenceError{Op: "commit settlement", Err: err}
	}

	return nil
}

// voidRound refunds the escrow and removes the session. Used when settlement
// cannot complete; the round leaves no net ledger effect.
func (s *sessionService) voidRound(ctx context.Context, channelID int64, session *models.Session) {
	if _, err := s.ledger.Rollback(ctx, session.EscrowBatchID); err != nil {
		log.WithFields(log.Fields{
			"channelID":   channelID,
			"escrowBatch": session.EscrowBatchID,
			"error":       err,
		}).Error("Failed to refund escrow for voided round")
	}

	s.mu.Lock()
	delete(s.sessions, channelID)
	s.mu.Unlock()
}

func (s *sessionService) Cancel(ctx context.Context, channelID, userID int64) error {
	s.mu.Lock()
	session, exists := s.sessions[channelID]
	if !exists {
		s.mu.Unlock()
		return ErrNoSession
	}
	if session.HostID != userID && !s.cfg.IsOperator(userID) {
		s.mu.Unlock()
		return ErrNotPermitted
	}

	phase := session.Phase
	escrowBatch := session.EscrowBatchID
	delete(s.sessions, channelID)
	s.mu.Unlock()

	// A recruiting session holds no funds; a rolling one must refund escrow.
	// An unknown batch means the escrow never committed or was already
	// refunded — if it commits later, Start notices the session is gone and
	// refunds it itself.
	if phase == models.SessionPhaseRolling && escrowBatch != "" {
		if _, err := s.ledger.Rollback(ctx, escrowBatch); err != nil && !errors.Is(err, ErrBatchNotFound) {
			return fmt.Errorf("session removed but escrow refund failed: %w", err)
		}
	}

	s.eventBus.Emit(ctx, events.SessionPhaseEvent{
		ChannelID: channelID,
		HostID:    session.HostID,
		OldPhase:  phase,
		NewPhase:  models.SessionPhaseSettled,
	})

	log.WithFields(log.Fields{
		"channelID": channelID,
		"byUser":    userID,
		"phase":     phase,
	}).Info("Round cancelled")

	return nil
}

func (s *sessionService) Get(channelID int64) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[channelID]
	if !exists {
		return nil
	}
	return session.Clone()
}

func (s *sessionService) SweepExpired(ctx context.Context) int {
	timeout := time.Duration(s.cfg.SessionTimeoutSeconds) * time.Second

	s.mu.Lock()
	var expired []*models.Session
	for channelID, session := range s.sessions {
		if session.Expired(s.now(), timeout) {
			expired = append(expired, session)
			delete(s.sessions, channelID)
		}
	}
	s.mu.Unlock()

	// Recruiting sessions never touched the ledger, so discarding them is
	// pure registry cleanup.
	for _, session := range expired {
		s.eventBus.Emit(ctx, events.SessionPhaseEvent{
			ChannelID: session.ChannelID,
			HostID:    session.HostID,
			OldPhase:  models.SessionPhaseRecruiting,
			NewPhase:  models.SessionPhaseSettled,
		})
		log.WithFields(log.Fields{
			"channelID": session.ChannelID,
			"hostID":    session.HostID,
		}).Info("Recruiting round expired")
	}

	return len(expired)
}

// RunTimeoutSweeper discards expired recruiting sessions until the context is
// cancelled. Run it in its own goroutine.
func (s *sessionService) RunTimeoutSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired(ctx)
		}
	}
}

func (s *sessionService) venueFee(bet int64) int64 {
	return bet * int64(s.cfg.VenueFeePercent) / 100
}
