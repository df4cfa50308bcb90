package models

import (
	"time"
)

// TransactionKind classifies a ledger movement
type TransactionKind string

const (
	TransactionKindRoundStake  TransactionKind = "round_stake"
	TransactionKindRoundPayout TransactionKind = "round_payout"
	TransactionKindVenueFee    TransactionKind = "venue_fee"
	TransactionKindSoloStake   TransactionKind = "solo_stake"
	TransactionKindSoloPayout  TransactionKind = "solo_payout"
	TransactionKindTransferOut TransactionKind = "transfer_out"
	TransactionKindTransferIn  TransactionKind = "transfer_in"
	TransactionKindAward       TransactionKind = "award"
)

// Transaction is one append-only ledger row. Amount is always the absolute
// value of the applied delta; direction is carried by sender/receiver, with
// the system account standing in for mint (sender) and burn (receiver).
// Rows are never mutated; the only removal path is an explicit batch rollback.
type Transaction struct {
	ID          int64           `db:"id"`
	SenderID    int64           `db:"sender_id"`
	ReceiverID  int64           `db:"receiver_id"`
	Amount      int64           `db:"amount"`
	Kind        TransactionKind `db:"kind"`
	BatchID     *string         `db:"batch_id"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// IsMint reports whether the row created currency out of the system account.
func (t *Transaction) IsMint() bool {
	return t.SenderID == SystemAccountID
}

// IsBurn reports whether the row removed currency from circulation.
func (t *Transaction) IsBurn() bool {
	return t.ReceiverID == SystemAccountID
}

// TransferResult summarizes a completed user-to-user transfer.
type TransferResult struct {
	Amount           int64
	SenderBalance    int64
	RecipientBalance int64
}

// RollbackResult summarizes a reversed transaction batch.
type RollbackResult struct {
	BatchID       string
	RowsReversed  int
	TotalReversed int64
}
