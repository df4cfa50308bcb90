package models

import (
	"time"
)

// SystemAccountID is the reserved counterparty for mint and burn movements.
// A transaction whose sender is the system account mints currency; one whose
// receiver is the system account burns it.
const SystemAccountID int64 = 0

// Account represents a user's ledger account. Accounts are created lazily on
// first reference; Balance is never allowed to go negative.
type Account struct {
	UserID      int64     `db:"user_id"`
	Balance     int64     `db:"balance"`
	TotalEarned int64     `db:"total_earned"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
