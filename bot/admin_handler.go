package bot

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"chinchiro/service"

	"github.com/bwmarrin/discordgo"
)

// isOperator reports whether the user may run privileged ledger commands.
func (b *Bot) isOperator(userID int64) bool {
	for _, id := range b.config.Operators {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) handleAward(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, _, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !b.isOperator(userID) {
		b.respondWithError(s, i, "Only operators can award coins.")
		return
	}

	var amount int64
	var recipient *discordgo.User
	reason := "operator award"
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "amount":
			amount = opt.IntValue()
		case "user":
			recipient = opt.UserValue(s)
		case "reason":
			reason = opt.StringValue()
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

	batchID, err := b.ledgerService.Award(ctx, []int64{recipientID}, amount, reason)
	if err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error awarding %d to %d: %v", amount, recipientID, err)
		b.respondWithError(s, i, "Award failed. Please try again.")
		return
	}

	b.respond(s, i, fmt.Sprintf("💰 Awarded **%s coins** to %s. Batch `%s` — `/rollback` undoes it.",
		FormatBalance(amount), mention(recipientID), batchID))
}

func (b *Bot) handleRollback(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, _, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !b.isOperator(userID) {
		b.respondWithError(s, i, "Only operators can roll back batches.")
		return
	}

	var batchID string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "batch" {
			batchID = opt.StringValue()
		}
	}

	result, err := b.ledgerService.Rollback(ctx, batchID)
	if err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error rolling back batch %s: %v", batchID, err)
		b.respondWithError(s, i, "Rollback failed. Please try again.")
		return
	}

	b.respond(s, i, fmt.Sprintf("↩️ Rolled back batch `%s`: %d entries, **%s coins** reversed.",
		result.BatchID, result.RowsReversed, FormatBalance(result.TotalReversed)))
}

func (b *Bot) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	total, err := b.ledgerService.TotalEconomy(ctx)
	if err != nil {
		log.Printf("Error reading total economy: %v", err)
		b.respondWithError(s, i, "Unable to retrieve stats. Please try again.")
		return
	}

	b.respondWithEmbed(s, i, &discordgo.MessageEmbed{
		Title: "🏦 Economy",
		Color: ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "In circulation", Value: fmt.Sprintf("**%s coins**", FormatBalance(total)), Inline: true},
			{Name: "Rounds settled since startup", Value: FormatBalance(b.roundsSettled.Load()), Inline: true},
		},
	})
}
