package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chinchiro/events"
	"chinchiro/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOperator(t *testing.T) {
	b := &Bot{config: Config{Operators: []int64{999, 1000}}}

	assert.True(t, b.isOperator(999))
	assert.True(t, b.isOperator(1000))
	assert.False(t, b.isOperator(100))

	empty := &Bot{}
	assert.False(t, empty.isOperator(999))
}

func TestSubscribeEventsCountsSettledRounds(t *testing.T) {
	bus := events.NewBus()
	b := &Bot{eventBus: bus}
	b.subscribeEvents()

	ctx := context.Background()
	bus.Emit(ctx, events.RoundSettledEvent{ChannelID: 555, HostID: 100, PlayerCount: 2})
	bus.Emit(ctx, events.RoundSettledEvent{ChannelID: 556, HostID: 101, PlayerCount: 1})

	// Handlers run asynchronously.
	require.Eventually(t, func() bool {
		return b.roundsSettled.Load() == 2
	}, time.Second, 10*time.Millisecond)

	// Other event types leave the counter alone.
	bus.Emit(ctx, events.BalanceChangeEvent{UserID: 1, Delta: 50})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(2), b.roundsSettled.Load())
}

func TestFriendlyError(t *testing.T) {
	assert.Equal(t, "No ledger batch with that ID.",
		friendlyError(fmt.Errorf("batch zzz: %w", service.ErrBatchNotFound)))
	assert.Equal(t, "You don't have enough coins for that.",
		friendlyError(fmt.Errorf("stake: %w", service.ErrInsufficientFunds)))
	assert.Equal(t, "There's no active round in this channel.",
		friendlyError(fmt.Errorf("round was cancelled while stakes were locking: %w", service.ErrNoSession)))
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "0", FormatBalance(0))
	assert.Equal(t, "999", FormatBalance(999))
	assert.Equal(t, "1,000", FormatBalance(1000))
	assert.Equal(t, "1,234,567", FormatBalance(1234567))
	assert.Equal(t, "-12,500", FormatBalance(-12500))
}
