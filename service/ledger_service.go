package service

import (
	"context"
	"fmt"

	"chinchiro/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{uowFactory: uowFactory}
}

// newBatchID mints a short batch tag for grouping reversible rows
func newBatchID() string {
	return uuid.NewString()[:8]
}

func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	balance, err := uow.AccountRepository().GetBalance(ctx, userID)
	if err != nil {
		return 0, &PersistenceError{Op: "get balance", Err: err}
	}

	if err := uow.Commit(); err != nil {
		return 0, &PersistenceError{Op: "commit", Err: err}
	}

	return balance, nil
}

func (s *ledgerService) ApplyDelta(ctx context.Context, userID int64, delta int64, kind models.TransactionKind, description string, batchID *string) (*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	txn, err := applyDelta(ctx, uow, userID, delta, kind, description, batchID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit", Err: err}
	}

	return txn, nil
}

func (s *ledgerService) Transfer(ctx context.Context, fromID, toID, amount int64, description string) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	if fromID == toID {
		return nil, fmt.Errorf("cannot transfer to self")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	// Debit first so an empty account never produces a half-applied transfer.
	if _, err := applyDeltaBetween(ctx, uow, fromID, -amount, toID, models.TransactionKindTransferOut, description, nil); err != nil {
		return nil, err
	}
	if _, err := applyDeltaBetween(ctx, uow, toID, amount, fromID, models.TransactionKindTransferIn, description, nil); err != nil {
		return nil, err
	}

	senderBalance, err := uow.AccountRepository().GetBalance(ctx, fromID)
	if err != nil {
		return nil, &PersistenceError{Op: "get sender balance", Err: err}
	}
	recipientBalance, err := uow.AccountRepository().GetBalance(ctx, toID)
	if err != nil {
		return nil, &PersistenceError{Op: "get recipient balance", Err: err}
	}

	if err := uow.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit", Err: err}
	}

	log.WithFields(log.Fields{
		"from":   fromID,
		"to":     toID,
		"amount": amount,
	}).Info("Transfer completed")

	return &models.TransferResult{
		Amount:           amount,
		SenderBalance:    senderBalance,
		RecipientBalance: recipientBalance,
	}, nil
}

func (s *ledgerService) Rollback(ctx context.Context, batchID string) (*models.RollbackResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	rows, err := uow.TransactionRepository().GetByBatch(ctx, batchID)
	if err != nil {
		return nil, &PersistenceError{Op: "load batch", Err: err}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrBatchNotFound)
	}

	var totalReversed int64
	for _, row := range rows {
		if err := reverseRow(ctx, uow, row); err != nil {
			return nil, err
		}
		totalReversed += row.Amount
	}

	deleted, err := uow.TransactionRepository().DeleteBatch(ctx, batchID)
	if err != nil {
		return nil, &PersistenceError{Op: "delete batch", Err: err}
	}

	if err := uow.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit", Err: err}
	}

	log.WithFields(log.Fields{
		"batchID": batchID,
		"rows":    deleted,
	}).Info("Batch rolled back")

	return &models.RollbackResult{
		BatchID:       batchID,
		RowsReversed:  int(deleted),
		TotalReversed: totalReversed,
	}, nil
}

func (s *ledgerService) Award(ctx context.Context, userIDs []int64, amount int64, description string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("award amount must be positive, got %d", amount)
	}
	if len(userIDs) == 0 {
		return "", fmt.Errorf("award requires at least one recipient")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	batchID := newBatchID()
	for _, userID := range userIDs {
		if _, err := applyDelta(ctx, uow, userID, amount, models.TransactionKindAward, description, &batchID); err != nil {
			return "", err
		}
	}

	if err := uow.Commit(); err != nil {
		return "", &PersistenceError{Op: "commit", Err: err}
	}

	log.WithFields(log.Fields{
		"batchID":    batchID,
		"recipients": len(userIDs),
		"amount":     amount,
	}).Info("Award granted")

	return batchID, nil
}

func (s *ledgerService) History(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	rows, err := uow.TransactionRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "get history", Err: err}
	}

	if err := uow.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit", Err: err}
	}

	return rows, nil
}

func (s *ledgerService) TotalEconomy(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, &PersistenceError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	total, err := uow.AccountRepository().TotalEconomy(ctx)
	if err != nil {
		return 0, &PersistenceError{Op: "total economy", Err: err}
	}

	if err := uow.Commit(); err != nil {
		return 0, &PersistenceError{Op: "commit", Err: err}
	}

	return total, nil
}
