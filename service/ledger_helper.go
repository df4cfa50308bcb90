package service

import (
	"context"
	"errors"
	"fmt"

	"chinchiro/events"
	"chinchiro/models"
)

// applyDelta is the single entry point for balance changes inside a unit of
// work: the conditional balance write and the ledger-row append succeed or
// fail together with the enclosing transaction. The row's counterparty is the
// system account — minting on credits, burning on debits.
func applyDelta(ctx context.Context, uow UnitOfWork, userID, delta int64, kind models.TransactionKind, description string, batchID *string) (*models.Transaction, error) {
	return applyDeltaBetween(ctx, uow, userID, delta, models.SystemAccountID, kind, description, batchID)
}

// applyDeltaBetween is applyDelta with an explicit counterparty, used by
// transfers so both rows name the two users involved.
func applyDeltaBetween(ctx context.Context, uow UnitOfWork, userID, delta, counterpartyID int64, kind models.TransactionKind, description string, batchID *string) (*models.Transaction, error) {
	if err := uow.AccountRepository().ApplyDelta(ctx, userID, delta); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "apply delta", Err: err}
	}

	txn := &models.Transaction{
		Amount:      delta,
		Kind:        kind,
		BatchID:     batchID,
		Description: description,
	}
	if delta >= 0 {
		txn.SenderID = counterpartyID
		txn.ReceiverID = userID
	} else {
		txn.Amount = -delta
		txn.SenderID = userID
		txn.ReceiverID = counterpartyID
	}

	if err := uow.TransactionRepository().Append(ctx, txn); err != nil {
		return nil, &PersistenceError{Op: "append ledger row", Err: err}
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID: userID,
		Delta:  delta,
		Kind:   kind,
	})

	return txn, nil
}

// reverseRow applies the inverse of a ledger row's balance effect. System
// sides carry no balance, so only the user side moves back. Reversals go
// through ReverseDelta so that taking back a credit also forgets its
// total_earned contribution instead of counting the refund as new earnings.
func reverseRow(ctx context.Context, uow UnitOfWork, row *models.Transaction) error {
	switch {
	case row.IsMint():
		// A credit to the receiver: take it back.
		if err := uow.AccountRepository().ReverseDelta(ctx, row.ReceiverID, -row.Amount); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return fmt.Errorf("reversing row %d would drive account %d negative: %w", row.ID, row.ReceiverID, err)
			}
			return &PersistenceError{Op: "reverse mint", Err: err}
		}
	case row.IsBurn():
		// A debit from the sender: give it back.
		if err := uow.AccountRepository().ReverseDelta(ctx, row.SenderID, row.Amount); err != nil {
			return &PersistenceError{Op: "reverse burn", Err: err}
		}
	default:
		// User-to-user row: each transfer half recorded one account's side.
		switch row.Kind {
		case models.TransactionKindTransferOut:
			if err := uow.AccountRepository().ReverseDelta(ctx, row.SenderID, row.Amount); err != nil {
				return &PersistenceError{Op: "reverse transfer debit", Err: err}
			}
		case models.TransactionKindTransferIn:
			if err := uow.AccountRepository().ReverseDelta(ctx, row.ReceiverID, -row.Amount); err != nil {
				if errors.Is(err, ErrInsufficientFunds) {
					return fmt.Errorf("reversing row %d would drive account %d negative: %w", row.ID, row.ReceiverID, err)
				}
				return &PersistenceError{Op: "reverse transfer credit", Err: err}
			}
		default:
			return fmt.Errorf("row %d of kind %s has no reversal rule", row.ID, row.Kind)
		}
	}
	return nil
}
