package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chinchiro/config"
	"chinchiro/events"
	"chinchiro/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type sessionFixture struct {
	factory     *MockUnitOfWorkFactory
	uow         *MockUnitOfWork
	accountRepo *MockAccountRepository
	txnRepo     *MockTransactionRepository
	cooldowns   *CooldownTracker
	service     *sessionService
}

func newSessionFixture(dice *DiceEngine) *sessionFixture {
	f := &sessionFixture{
		factory:     new(MockUnitOfWorkFactory),
		uow:         new(MockUnitOfWork),
		accountRepo: new(MockAccountRepository),
		txnRepo:     new(MockTransactionRepository),
		cooldowns:   NewCooldownTracker(180 * time.Second),
	}
	f.uow.SetRepositories(f.accountRepo, f.txnRepo)

	cfg := &config.Config{
		VenueFeePercent:       5,
		SessionTimeoutSeconds: 120,
		CooldownSeconds:       180,
		OperatorIDs:           []int64{999},
		Environment:           "test",
	}

	ledger := NewLedgerService(f.factory)
	svc := NewSessionService(f.factory, ledger, dice, f.cooldowns, cfg, events.NewBus())
	f.service = svc.(*sessionService)
	return f
}

func (f *sessionFixture) allowUnitOfWork(ctx context.Context) {
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
}

func TestSessionService_Create(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))

	session, err := f.service.Create(ctx, 100, 555, 1000)

	assert.NoError(t, err)
	assert.Equal(t, models.SessionPhaseRecruiting, session.Phase)
	assert.Equal(t, int64(100), session.HostID)
	assert.Empty(t, session.Players)

	t.Run("second session in the channel conflicts", func(t *testing.T) {
		_, err := f.service.Create(ctx, 101, 555, 500)
		assert.ErrorIs(t, err, ErrSessionConflict)
	})

	t.Run("another channel is independent", func(t *testing.T) {
		_, err := f.service.Create(ctx, 101, 556, 500)
		assert.NoError(t, err)
	})

	t.Run("bet must be positive", func(t *testing.T) {
		_, err := f.service.Create(ctx, 102, 557, 0)
		assert.Error(t, err)
	})

	// No session operation so far touched the ledger.
	f.factory.AssertNotCalled(t, "Create")
}

func TestSessionService_Create_CooldownRejected(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))

	f.cooldowns.Record(100)

	_, err := f.service.Create(ctx, 100, 555, 1000)

	var cooldownErr *CooldownActiveError
	assert.ErrorAs(t, err, &cooldownErr)
	assert.Positive(t, cooldownErr.SecondsRemaining)
}

func TestSessionService_Join(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)

	// Stake 1000 plus 5% fee = 1050 needed.
	f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(1050), nil)
	f.accountRepo.On("GetBalance", ctx, int64(201)).Return(int64(1049), nil)

	session, err := f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)
	assert.Equal(t, []int64{200}, session.Players)

	t.Run("cannot afford stake plus fee", func(t *testing.T) {
		_, err := f.service.Join(ctx, 555, 201)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("duplicate join rejected", func(t *testing.T) {
		_, err := f.service.Join(ctx, 555, 200)
		assert.Error(t, err)
	})

	t.Run("host cannot join its own round", func(t *testing.T) {
		_, err := f.service.Join(ctx, 555, 100)
		assert.Error(t, err)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := f.service.Join(ctx, 777, 200)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSessionService_Join_CapacityExceeded(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 100)
	assert.NoError(t, err)

	f.accountRepo.On("GetBalance", ctx, mock.AnythingOfType("int64")).Return(int64(100000), nil)

	for i := int64(0); i < models.MaxSessionPlayers; i++ {
		_, err := f.service.Join(ctx, 555, 200+i)
		assert.NoError(t, err)
	}

	_, err = f.service.Join(ctx, 555, 300)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestSessionService_Start_EscrowsStakesAndFees(t *testing.T) {
	ctx := context.Background()
	// One decisive throw per participant: host then player.
	f := newSessionFixture(scriptedEngine(4, 4, 2, 1, 1, 1))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(5000), nil)
	_, err = f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)

	// Escrow: both participants pay the 1000 stake and the 50 fee.
	for _, id := range []int64{100, 200} {
		f.accountRepo.On("ApplyDelta", ctx, id, int64(-1000)).Return(nil)
		f.accountRepo.On("ApplyDelta", ctx, id, int64(-50)).Return(nil)
	}
	f.txnRepo.On("Append", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.BatchID != nil &&
			(txn.Kind == models.TransactionKindRoundStake || txn.Kind == models.TransactionKindVenueFee)
	})).Return(nil).Times(4)

	session, err := f.service.Start(ctx, 555, 100)

	assert.NoError(t, err)
	assert.Equal(t, models.SessionPhaseRolling, session.Phase)
	assert.NotEmpty(t, session.EscrowBatchID)
	assert.Equal(t, models.OutcomePoint, session.HostOutcome.Category)
	assert.Equal(t, 2, session.HostOutcome.Tiebreak)
	assert.Len(t, session.PlayerOutcomes, 1)
	assert.Equal(t, models.OutcomePinzoro, session.PlayerOutcomes[0].Outcome.Category)

	f.accountRepo.AssertExpectations(t)
	f.txnRepo.AssertExpectations(t)

	t.Run("joining after start is a state error", func(t *testing.T) {
		var stateErr *SessionStateError
		_, err := f.service.Join(ctx, 555, 201)
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("starting twice is a state error", func(t *testing.T) {
		var stateErr *SessionStateError
		_, err := f.service.Start(ctx, 555, 100)
		assert.ErrorAs(t, err, &stateErr)
	})
}

func TestSessionService_Start_Guards(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)

	t.Run("only the host may start", func(t *testing.T) {
		_, err := f.service.Start(ctx, 555, 200)
		assert.ErrorIs(t, err, ErrNotPermitted)
	})

	t.Run("empty roster cannot start", func(t *testing.T) {
		_, err := f.service.Start(ctx, 555, 100)
		assert.Error(t, err)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := f.service.Start(ctx, 777, 100)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSessionService_Start_EscrowFailureRevertsPhase(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(5000), nil)
	_, err = f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)

	// The host drained its balance between join and start.
	f.accountRepo.On("ApplyDelta", ctx, int64(100), int64(-1000)).Return(
		fmt.Errorf("account 100 debit of 1000 rejected: %w", ErrInsufficientFunds))

	_, err = f.service.Start(ctx, 555, 100)

	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The session survives in recruiting so the host can retry.
	session := f.service.Get(555)
	assert.Equal(t, models.SessionPhaseRecruiting, session.Phase)
	assert.Empty(t, session.EscrowBatchID)
}

func TestSessionService_Resolve_SettlesAndRecordsCooldowns(t *testing.T) {
	ctx := context.Background()
	// Host rolls a 2-point, the player rolls pinzoro.
	f := newSessionFixture(scriptedEngine(4, 4, 2, 1, 1, 1))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(5000), nil)
	_, err = f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)

	f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), mock.AnythingOfType("int64")).Return(nil)
	f.txnRepo.On("Append", ctx, mock.Anything).Return(nil)

	_, err = f.service.Start(ctx, 555, 100)
	assert.NoError(t, err)

	settlement, err := f.service.Resolve(ctx, 555)

	assert.NoError(t, err)
	// Pool of one player's bet, fully claimed by the capped pinzoro bonus.
	assert.Equal(t, int64(1000), settlement.Players[0].Bonus)
	assert.Equal(t, int64(2000), settlement.Players[0].Payout)
	assert.Equal(t, int64(0), settlement.HostDelta)

	assert.Nil(t, f.service.Get(555), "settled session must leave the registry")

	_, hostCooling := f.cooldowns.CheckAndReject(100)
	_, playerCooling := f.cooldowns.CheckAndReject(200)
	assert.True(t, hostCooling)
	assert.True(t, playerCooling)

	t.Run("resolving again finds no session", func(t *testing.T) {
		_, err := f.service.Resolve(ctx, 555)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSessionService_Resolve_RecruitingIsAStateError(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)

	var stateErr *SessionStateError
	_, err = f.service.Resolve(ctx, 555)
	assert.ErrorAs(t, err, &stateErr)
}

func TestSessionService_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))

	t.Run("host cancels recruiting round without ledger calls", func(t *testing.T) {
		_, err := f.service.Create(ctx, 100, 555, 1000)
		assert.NoError(t, err)

		err = f.service.Cancel(ctx, 555, 100)
		assert.NoError(t, err)
		assert.Nil(t, f.service.Get(555))
		f.factory.AssertNotCalled(t, "Create")
	})

	t.Run("strangers may not cancel", func(t *testing.T) {
		_, err := f.service.Create(ctx, 100, 555, 1000)
		assert.NoError(t, err)

		err = f.service.Cancel(ctx, 555, 200)
		assert.ErrorIs(t, err, ErrNotPermitted)
		assert.NotNil(t, f.service.Get(555))
	})

	t.Run("operators may cancel any round", func(t *testing.T) {
		err := f.service.Cancel(ctx, 555, 999)
		assert.NoError(t, err)
		assert.Nil(t, f.service.Get(555))
	})

	t.Run("cancelling a rolling round refunds escrow", func(t *testing.T) {
		f := newSessionFixture(scriptedEngine(4, 4, 2, 1, 1, 1))
		f.allowUnitOfWork(ctx)

		_, err := f.service.Create(ctx, 100, 555, 1000)
		assert.NoError(t, err)
		f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(5000), nil)
		_, err = f.service.Join(ctx, 555, 200)
		assert.NoError(t, err)

		f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), mock.AnythingOfType("int64")).Return(nil)
		f.txnRepo.On("Append", ctx, mock.Anything).Return(nil)

		session, err := f.service.Start(ctx, 555, 100)
		assert.NoError(t, err)

		escrow := []*models.Transaction{
			{ID: 1, SenderID: 100, ReceiverID: models.SystemAccountID, Amount: 1000, Kind: models.TransactionKindRoundStake},
		}
		f.txnRepo.On("GetByBatch", ctx, session.EscrowBatchID).Return(escrow, nil)
		f.txnRepo.On("DeleteBatch", ctx, session.EscrowBatchID).Return(int64(1), nil)
		f.accountRepo.On("ReverseDelta", ctx, int64(100), int64(1000)).Return(nil)

		err = f.service.Cancel(ctx, 555, 100)
		assert.NoError(t, err)
		assert.Nil(t, f.service.Get(555))
		f.txnRepo.AssertCalled(t, "DeleteBatch", ctx, session.EscrowBatchID)
	})
}

func TestSessionService_SweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(1, 1, 1))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	_, err = f.service.Create(ctx, 101, 556, 1000)
	assert.NoError(t, err)

	t.Run("nothing expires inside the window", func(t *testing.T) {
		now = now.Add(119 * time.Second)
		assert.Equal(t, 0, f.service.SweepExpired(ctx))
	})

	t.Run("expired recruiting rounds vanish without ledger calls", func(t *testing.T) {
		now = now.Add(2 * time.Second)
		assert.Equal(t, 2, f.service.SweepExpired(ctx))
		assert.Nil(t, f.service.Get(555))
		assert.Nil(t, f.service.Get(556))
		f.factory.AssertNotCalled(t, "Create")
	})

	t.Run("rolling rounds never expire", func(t *testing.T) {
		f := newSessionFixture(scriptedEngine(4, 4, 2, 1, 1, 1))
		f.allowUnitOfWork(ctx)
		f.service.now = func() time.Time { return now }

		_, err := f.service.Create(ctx, 100, 555, 1000)
		assert.NoError(t, err)
		f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(5000), nil)
		_, err = f.service.Join(ctx, 555, 200)
		assert.NoError(t, err)

		f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), mock.AnythingOfType("int64")).Return(nil)
		f.txnRepo.On("Append", ctx, mock.Anything).Return(nil)
		_, err = f.service.Start(ctx, 555, 100)
		assert.NoError(t, err)

		now = now.Add(time.Hour)
		assert.Equal(t, 0, f.service.SweepExpired(ctx))
		assert.NotNil(t, f.service.Get(555))
	})
}

func TestSessionService_Resolve_HostShortfallVoidsTheRound(t *testing.T) {
	ctx := context.Background()
	// Host no-result three times; both players roll triples, overdrawing the
	// pool so the host owes a shortfall.
	f := newSessionFixture(scriptedEngine(
		2, 4, 6, 2, 4, 6, 2, 4, 6, // host: no result
		5, 5, 5, // player 200: triple
		6, 6, 6, // player 201: triple
	))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	f.accountRepo.On("GetBalance", ctx, mock.AnythingOfType("int64")).Return(int64(5000), nil)
	_, err = f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)
	_, err = f.service.Join(ctx, 555, 201)
	assert.NoError(t, err)

	// Escrow succeeds. Exactly three stake debits, so the fourth -1000 debit
	// (the host covering the shortfall) falls through to the rejection below.
	f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), int64(-1000)).Return(nil).Times(3)
	f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), int64(-50)).Return(nil)
	f.txnRepo.On("Append", ctx, mock.Anything).Return(nil)

	session, err := f.service.Start(ctx, 555, 100)
	assert.NoError(t, err)

	// Settlement: each triple wants 3000, pool is 2000 so the first winner
	// takes it all; payouts are 3000 + 1000 against 3000 collected, leaving
	// a 1000 shortfall the host cannot cover.
	f.accountRepo.On("ApplyDelta", ctx, int64(200), int64(3000)).Return(nil)
	f.accountRepo.On("ApplyDelta", ctx, int64(201), int64(1000)).Return(nil)
	f.accountRepo.On("ApplyDelta", ctx, int64(100), int64(-1000)).Return(
		fmt.Errorf("account 100 debit of 1000 rejected: %w", ErrInsufficientFunds))

	// Voiding the round rolls the escrow batch back.
	f.txnRepo.On("GetByBatch", ctx, session.EscrowBatchID).Return([]*models.Transaction{
		{ID: 1, SenderID: 100, ReceiverID: models.SystemAccountID, Amount: 1000, Kind: models.TransactionKindRoundStake},
	}, nil)
	f.txnRepo.On("DeleteBatch", ctx, session.EscrowBatchID).Return(int64(1), nil)
	f.accountRepo.On("ReverseDelta", ctx, int64(100), int64(1000)).Return(nil)

	settlement, err := f.service.Resolve(ctx, 555)

	assert.Nil(t, settlement)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Nil(t, f.service.Get(555), "voided round must leave the registry")

	// A voided round starts no cooldowns.
	_, cooling := f.cooldowns.CheckAndReject(200)
	assert.False(t, cooling)

	f.txnRepo.AssertCalled(t, "DeleteBatch", ctx, session.EscrowBatchID)
}

func TestSessionService_Start_CancelDuringEscrowStillRefunds(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(4, 4, 2, 1, 1, 1))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(5000), nil)
	_, err = f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)

	// The host cancels while the first stake is being debited. The escrow
	// batch has not committed yet, so the cancel-side refund finds nothing.
	f.txnRepo.On("GetByBatch", ctx, mock.AnythingOfType("string")).
		Return([]*models.Transaction{}, nil).Once()

	cancelled := false
	f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), mock.AnythingOfType("int64")).
		Run(func(args mock.Arguments) {
			if !cancelled {
				cancelled = true
				assert.NoError(t, f.service.Cancel(ctx, 555, 100))
			}
		}).Return(nil)
	f.txnRepo.On("Append", ctx, mock.Anything).Return(nil)

	// Once the escrow has committed, starting must notice the session is gone
	// and refund the whole batch itself.
	escrow := []*models.Transaction{
		{ID: 1, SenderID: 100, ReceiverID: models.SystemAccountID, Amount: 1000, Kind: models.TransactionKindRoundStake},
		{ID: 2, SenderID: 100, ReceiverID: models.SystemAccountID, Amount: 50, Kind: models.TransactionKindVenueFee},
		{ID: 3, SenderID: 200, ReceiverID: models.SystemAccountID, Amount: 1000, Kind: models.TransactionKindRoundStake},
		{ID: 4, SenderID: 200, ReceiverID: models.SystemAccountID, Amount: 50, Kind: models.TransactionKindVenueFee},
	}
	f.txnRepo.On("GetByBatch", ctx, mock.AnythingOfType("string")).Return(escrow, nil).Once()
	f.accountRepo.On("ReverseDelta", ctx, mock.AnythingOfType("int64"), mock.AnythingOfType("int64")).Return(nil)
	f.txnRepo.On("DeleteBatch", ctx, mock.AnythingOfType("string")).Return(int64(4), nil)

	_, err = f.service.Start(ctx, 555, 100)

	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, f.service.Get(555))

	// Every escrowed coin came back.
	f.accountRepo.AssertCalled(t, "ReverseDelta", ctx, int64(100), int64(1000))
	f.accountRepo.AssertCalled(t, "ReverseDelta", ctx, int64(100), int64(50))
	f.accountRepo.AssertCalled(t, "ReverseDelta", ctx, int64(200), int64(1000))
	f.accountRepo.AssertCalled(t, "ReverseDelta", ctx, int64(200), int64(50))
	f.txnRepo.AssertCalled(t, "DeleteBatch", ctx, mock.AnythingOfType("string"))
}

func TestSessionService_Start_HostBustSkipsPlayerDice(t *testing.T) {
	ctx := context.Background()
	engine := NewDiceEngine(1, 100) // the pre-roll event always fires
	rolls := 0
	engine.roll = func() int {
		rolls++
		return 1
	}
	f := newSessionFixture(engine)
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	f.accountRepo.On("GetBalance", ctx, mock.AnythingOfType("int64")).Return(int64(5000), nil)
	_, err = f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)
	_, err = f.service.Join(ctx, 555, 201)
	assert.NoError(t, err)

	f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), mock.AnythingOfType("int64")).Return(nil)
	f.txnRepo.On("Append", ctx, mock.Anything).Return(nil)

	session, err := f.service.Start(ctx, 555, 100)

	assert.NoError(t, err)
	assert.True(t, session.HostOutcome.ForcedLoss)
	assert.Equal(t, 0, rolls, "a busted host ends the round before any die is thrown")
	for _, p := range session.PlayerOutcomes {
		assert.Nil(t, p.Outcome)
	}

	settlement, err := f.service.Resolve(ctx, 555)

	assert.NoError(t, err)
	for _, p := range settlement.Players {
		assert.Equal(t, int64(2000), p.Payout)
	}
	assert.Equal(t, int64(-1000), settlement.HostDelta)
}

var errBoom = errors.New("boom")

func TestSessionService_Resolve_PersistenceFaultKeepsTheSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(scriptedEngine(4, 4, 2, 1, 1, 1))
	f.allowUnitOfWork(ctx)

	_, err := f.service.Create(ctx, 100, 555, 1000)
	assert.NoError(t, err)
	f.accountRepo.On("GetBalance", ctx, int64(200)).Return(int64(5000), nil)
	_, err = f.service.Join(ctx, 555, 200)
	assert.NoError(t, err)

	f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), int64(-1000)).Return(nil)
	f.accountRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), int64(-50)).Return(nil)
	f.txnRepo.On("Append", ctx, mock.Anything).Return(nil)

	_, err = f.service.Start(ctx, 555, 100)
	assert.NoError(t, err)

	// A transient storage fault during settlement must not void the round.
	f.accountRepo.On("ApplyDelta", ctx, int64(200), int64(2000)).Return(errBoom)

	_, err = f.service.Resolve(ctx, 555)

	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
	assert.NotNil(t, f.service.Get(555), "the round stays resolvable after a fault")
}
