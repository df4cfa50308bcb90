package service

import (
	"context"

	"chinchiro/events"
	"chinchiro/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// Get retrieves an account, or nil if it does not exist yet
	Get(ctx context.Context, userID int64) (*models.Account, error)

	// GetBalance returns the balance, 0 for accounts that do not exist yet
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// ApplyDelta atomically applies a signed delta to the balance with a
	// conditional write that only succeeds if the result stays non-negative,
	// creating the account if needed. A failed condition returns
	// ErrInsufficientFunds and leaves the account untouched. total_earned
	// grows by max(delta, 0).
	ApplyDelta(ctx context.Context, userID int64, delta int64) error

	// ReverseDelta undoes a prior delta under the same non-negative
	// condition. Taking back a credit (delta < 0) also shrinks total_earned
	// by the same amount; returning a debit leaves total_earned alone.
	ReverseDelta(ctx context.Context, userID int64, delta int64) error

	// TotalEconomy returns the sum of all balances excluding the system account
	TotalEconomy(ctx context.Context) (int64, error)
}

// TransactionRepository defines the interface for the append-only ledger log
type TransactionRepository interface {
	// Append inserts one ledger row and fills in its ID and timestamp
	Append(ctx context.Context, txn *models.Transaction) error

	// GetByUser returns the most recent rows touching a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)

	// GetByBatch returns every row tagged with the batch ID
	GetByBatch(ctx context.Context, batchID string) ([]*models.Transaction, error)

	// DeleteBatch removes every row tagged with the batch ID and reports the count
	DeleteBatch(ctx context.Context, batchID string) (int64, error)
}

// EventPublisher stashes events for delivery after the enclosing unit of
// work commits
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes repository access to one database transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() AccountRepository
	TransactionRepository() TransactionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService owns account balances and the transaction log
type LedgerService interface {
	// GetBalance returns the user's balance, 0 for unknown users
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// ApplyDelta applies one signed balance change and appends exactly one
	// ledger row, as a single atomic unit
	ApplyDelta(ctx context.Context, userID int64, delta int64, kind models.TransactionKind, description string, batchID *string) (*models.Transaction, error)

	// Transfer moves funds between users; debit and credit stand or fall together
	Transfer(ctx context.Context, fromID, toID, amount int64, description string) (*models.TransferResult, error)

	// Rollback reverses every row in a batch and deletes them; fails without
	// effect if any reversal would drive a balance negative
	Rollback(ctx context.Context, batchID string) (*models.RollbackResult, error)

	// Award credits each user in one reversible batch and returns the batch ID
	Award(ctx context.Context, userIDs []int64, amount int64, description string) (string, error)

	// History returns the user's most recent ledger rows
	History(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)

	// TotalEconomy returns circulating currency excluding the system account
	TotalEconomy(ctx context.Context) (int64, error)
}

// SessionService runs the per-channel dice-round state machines
type SessionService interface {
	// Create opens a recruiting session; at most one per channel
	Create(ctx context.Context, hostID, channelID, bet int64) (*models.Session, error)

	// Join adds a player to a recruiting session after an affordability check
	Join(ctx context.Context, channelID, userID int64) (*models.Session, error)

	// Start escrows every participant's stake and fee atomically, rolls the
	// dice and moves the session to Rolling. Only the host may start.
	Start(ctx context.Context, channelID, hostID int64) (*models.Session, error)

	// Resolve settles a rolling session as one atomic ledger batch and
	// removes it from the registry
	Resolve(ctx context.Context, channelID int64) (*models.RoundSettlement, error)

	// Cancel discards a session; the host or an operator only. A rolling
	// session's escrow is refunded.
	Cancel(ctx context.Context, channelID, userID int64) error

	// Get returns a snapshot of the channel's session, or nil
	Get(channelID int64) *models.Session

	// SweepExpired discards recruiting sessions past the start window
	SweepExpired(ctx context.Context) int

	// RunTimeoutSweeper sweeps periodically until the context is cancelled
	RunTimeoutSweeper(ctx context.Context)
}

// SoloService plays single rounds against the house
type SoloService interface {
	Play(ctx context.Context, userID, bet int64) (*models.SoloResult, error)
}
