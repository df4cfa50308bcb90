package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chinchiro/service"

	"github.com/bwmarrin/discordgo"
)

// FormatBalance formats an amount with thousand separators
func FormatBalance(balance int64) string {
	str := strconv.FormatInt(balance, 10)

	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}

	n := len(str)
	if n > 3 {
		var result strings.Builder
		for i, digit := range str {
			if i > 0 && (n-i)%3 == 0 {
				result.WriteRune(',')
			}
			result.WriteRune(digit)
		}
		str = result.String()
	}

	if negative {
		return "-" + str
	}
	return str
}

// GetDisplayName returns the server-specific display name for a user,
// falling back to the username
func GetDisplayName(s *discordgo.Session, guildID, userID string) string {
	member, err := s.GuildMember(guildID, userID)
	if err == nil && member != nil {
		if member.Nick != "" {
			return member.Nick
		}
		if member.User != nil {
			return member.User.Username
		}
	}

	user, err := s.User(userID)
	if err == nil && user != nil {
		return user.Username
	}

	return "Unknown"
}

// mention renders a user ID as a Discord mention
func mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// parseID converts a Discord snowflake string to int64
func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// friendlyError turns a business rejection into user-facing text
func friendlyError(err error) string {
	var cooldownErr *service.CooldownActiveError
	var stateErr *service.SessionStateError
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		return "You don't have enough coins for that."
	case errors.Is(err, service.ErrSessionConflict):
		return "This channel already has an active round."
	case errors.Is(err, service.ErrNoSession):
		return "There's no active round in this channel."
	case errors.Is(err, service.ErrCapacityExceeded):
		return "The round is full."
	case errors.Is(err, service.ErrNotPermitted):
		return "Only the host (or an operator) can do that."
	case errors.Is(err, service.ErrBatchNotFound):
		return "No ledger batch with that ID."
	case errors.As(err, &cooldownErr):
		return fmt.Sprintf("Take a breather — %d seconds before your next round.", cooldownErr.SecondsRemaining)
	case errors.As(err, &stateErr):
		return fmt.Sprintf("Too late — you can't %s a round that is already %s.", stateErr.Op, stateErr.Phase)
	default:
		return err.Error()
	}
}

// interactionIDs extracts the caller and channel as int64s
func interactionIDs(i *discordgo.InteractionCreate) (userID, channelID int64, err error) {
	userID, err = strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing user ID %q: %w", i.Member.User.ID, err)
	}
	channelID, err = strconv.ParseInt(i.ChannelID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing channel ID %q: %w", i.ChannelID, err)
	}
	return userID, channelID, nil
}
