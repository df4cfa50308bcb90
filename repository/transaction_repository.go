package repository

import (
	"context"
	"fmt"

	"chinchiro/database"
	"chinchiro/models"

	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements the service.TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Append inserts one ledger row and fills in its ID and timestamp
func (r *TransactionRepository) Append(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (sender_id, receiver_id, amount, kind, batch_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.SenderID,
		txn.ReceiverID,
		txn.Amount,
		txn.Kind,
		txn.BatchID,
		txn.Description,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetByUser returns the most recent rows where the user is sender or receiver
func (r *TransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, sender_id, receiver_id, amount, kind, batch_id, description, created_at
		FROM transactions
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByBatch returns every row tagged with the batch ID, oldest first
func (r *TransactionRepository) GetByBatch(ctx context.Context, batchID string) ([]*models.Transaction, error) {
	query := `
		SELECT id, sender_id, receiver_id, amount, kind, batch_id, description, created_at
		FROM transactions
		WHERE batch_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// DeleteBatch removes every row tagged with the batch ID
func (r *TransactionRepository) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM transactions WHERE batch_id = $1`, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch %s: %w", batchID, err)
	}

	return result.RowsAffected(), nil
}

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.SenderID,
			&txn.ReceiverID,
			&txn.Amount,
			&txn.Kind,
			&txn.BatchID,
			&txn.Description,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}
