package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	minBet := float64(1)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check your current balance",
		},
		{
			Name:        "transfer",
			Description: "Send coins to another player",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to send coins to",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount to send in coins",
					Required:    true,
					MinValue:    &minBet,
				},
			},
		},
		{
			Name:        "history",
			Description: "Show your recent ledger entries",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "Number of entries to show (default 10)",
					Required:    false,
				},
			},
		},
		{
			Name:        "solo",
			Description: "Roll a solo round against the house",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "bet",
					Description: "Amount to stake in coins",
					Required:    true,
					MinValue:    &minBet,
				},
			},
		},
		{
			Name:        "award",
			Description: "Mint coins to a player (operator only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Recipient of the grant",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount to mint in coins",
					Required:    true,
					MinValue:    &minBet,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Recorded on the ledger row",
					Required:    false,
				},
			},
		},
		{
			Name:        "rollback",
			Description: "Reverse a ledger batch by its ID (operator only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "batch",
					Description: "Batch ID printed when the grant was made",
					Required:    true,
				},
			},
		},
		{
			Name:        "stats",
			Description: "Show the circulating economy total",
		},
		{
			Name:        "dice",
			Description: "Host and play dice rounds",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Open a round in this channel and recruit players",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "bet",
							Description: "Stake every participant puts up",
							Required:    true,
							MinValue:    &minBet,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "join",
					Description: "Join the round recruiting in this channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Lock the roster and roll (host only)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "cancel",
					Description: "Cancel the round in this channel (host or operator)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show the round recruiting in this channel",
				},
			},
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
