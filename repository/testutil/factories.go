package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// SeedAccount inserts an account row with the given balance.
func SeedAccount(t *testing.T, db *TestDatabase, userID, balance int64) {
	t.Helper()

	_, err := db.DB.Exec(context.Background(), `
		INSERT INTO accounts (user_id, balance, total_earned)
		VALUES ($1, $2, GREATEST($2, 0))
		ON CONFLICT (user_id) DO UPDATE SET balance = EXCLUDED.balance
	`, userID, balance)
	require.NoError(t, err)
}

// Balance reads an account balance straight from the table.
func Balance(t *testing.T, db *TestDatabase, userID int64) int64 {
	t.Helper()

	var balance int64
	err := db.DB.QueryRow(context.Background(),
		`SELECT balance FROM accounts WHERE user_id = $1`, userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// CountRows returns the number of ledger rows currently stored.
func CountRows(t *testing.T, db *TestDatabase) int {
	t.Helper()

	var count int
	err := db.DB.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM transactions`).Scan(&count)
	require.NoError(t, err)
	return count
}
