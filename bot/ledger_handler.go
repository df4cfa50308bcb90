package bot

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"chinchiro/models"
	"chinchiro/service"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, _, err := interactionIDs(i)
	if err != nil {
		log.Printf("Error parsing interaction IDs: %v", err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	balance, err := b.ledgerService.GetBalance(ctx, userID)
	if err != nil {
		log.Printf("Error getting balance for %d: %v", userID, err)
		b.respondWithError(s, i, "Unable to retrieve balance. Please try again.")
		return
	}

	displayName := GetDisplayName(s, i.GuildID, i.Member.User.ID)
	b.respond(s, i, fmt.Sprintf("%s, your current balance: **%s coins**", displayName, FormatBalance(balance)))
}

func (b *Bot) handleTransfer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, _, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var amount int64
	var recipient *discordgo.User
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "amount":
			amount = opt.IntValue()
		case "user":
			recipient = opt.UserValue(s)
		}
	}
	if recipient == nil {
		b.respondWithError(s, i, "Please pick a recipient.")
		return
	}
	if recipient.Bot {
		b.respondWithError(s, i, "Bots have no use for coins.")
		return
	}

	recipientID, err := parseID(recipient.ID)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	result, err := b.ledgerService.Transfer(ctx, userID, recipientID, amount,
		fmt.Sprintf("transfer to %s", recipient.Username))
	if err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error transferring %d from %d to %d: %v", amount, userID, recipientID, err)
		b.respondWithError(s, i, "Transfer failed. Please try again.")
		return
	}

	recipientName := GetDisplayName(s, i.GuildID, recipient.ID)
	b.respond(s, i, fmt.Sprintf("✅ Sent **%s coins** to **%s**. Your balance: **%s coins**",
		FormatBalance(result.Amount), recipientName, FormatBalance(result.SenderBalance)))
}

func (b *Bot) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, _, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	limit := 10
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "limit" {
			limit = int(opt.IntValue())
		}
	}

	rows, err := b.ledgerService.History(ctx, userID, limit)
	if err != nil {
		log.Printf("Error getting history for %d: %v", userID, err)
		b.respondWithError(s, i, "Unable to retrieve history. Please try again.")
		return
	}
	if len(rows) == 0 {
		b.respondWithError(s, i, "No ledger entries yet.")
		return
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(formatLedgerRow(userID, row))
		sb.WriteString("\n")
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "📒 Recent Ledger Entries",
				Description: sb.String(),
				Color:       ColorPrimary,
			}},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to history command: %v", err)
	}
}

// formatLedgerRow renders one row from the user's point of view
func formatLedgerRow(userID int64, row *models.Transaction) string {
	sign := "+"
	if row.SenderID == userID {
		sign = "-"
	}
	label := strings.ReplaceAll(string(row.Kind), "_", " ")
	return fmt.Sprintf("`%s` %s%s — %s", row.CreatedAt.Format("Jan 02 15:04"), sign, FormatBalance(row.Amount), label)
}
