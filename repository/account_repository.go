package repository

import (
	"context"
	"fmt"

	"chinchiro/database"
	"chinchiro/models"
	"chinchiro/service"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// Get retrieves an account by user ID, or nil if it does not exist yet
func (r *AccountRepository) Get(ctx context.Context, userID int64) (*models.Account, error) {
	query := `
		SELECT user_id, balance, total_earned, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&account.UserID,
		&account.Balance,
		&account.TotalEarned,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}

	return &account, nil
}

// GetBalance returns the balance for a user, 0 if no account exists yet
func (r *AccountRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT balance FROM accounts WHERE user_id = $1`

	var balance int64
	err := r.q.QueryRow(ctx, query, userID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for account %d: %w", userID, err)
	}

	return balance, nil
}

// ensure creates the account row lazily so deltas always have a target
func (r *AccountRepository) ensure(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO accounts (user_id, balance, total_earned)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure account %d: %w", userID, err)
	}
	return nil
}

// ApplyDelta atomically applies a signed delta to the balance. The check and
// the write are one conditional statement, so a debit that would go negative
// affects nothing and returns service.ErrInsufficientFunds. total_earned only
// grows, by max(delta, 0).
func (r *AccountRepository) ApplyDelta(ctx context.Context, userID int64, delta int64) error {
	if err := r.ensure(ctx, userID); err != nil {
		return err
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1,
		    total_earned = total_earned + GREATEST($1, 0),
		    updated_at = NOW()
		WHERE user_id = $2 AND balance + $1 >= 0
	`

	result, err := r.q.Exec(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to apply delta %d to account %d: %w", delta, userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d debit of %d rejected: %w", userID, -delta, service.ErrInsufficientFunds)
	}

	return nil
}

// ReverseDelta undoes a previously applied delta. The balance moves by delta
// under the same non-negative condition as ApplyDelta, and when the reversal
// takes back a credit (delta < 0) total_earned shrinks by the same amount, so
// a rolled-back grant leaves no trace in the lifetime figure. Returning a
// debit (delta > 0) never touches total_earned.
func (r *AccountRepository) ReverseDelta(ctx context.Context, userID int64, delta int64) error {
	if err := r.ensure(ctx, userID); err != nil {
		return err
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1,
		    total_earned = total_earned + LEAST($1, 0),
		    updated_at = NOW()
		WHERE user_id = $2 AND balance + $1 >= 0
	`

	result, err := r.q.Exec(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to reverse delta %d on account %d: %w", delta, userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d reversal of %d rejected: %w", userID, -delta, service.ErrInsufficientFunds)
	}

	return nil
}

// TotalEconomy returns the sum of all balances excluding the system account
func (r *AccountRepository) TotalEconomy(ctx context.Context) (int64, error) {
	query := `
		SELECT COALESCE(SUM(balance), 0)
		FROM accounts
		WHERE user_id <> $1
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, models.SystemAccountID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}

	return total, nil
}
