package bot

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"chinchiro/models"
	"chinchiro/service"

	"github.com/bwmarrin/discordgo"
)

// revealDelay paces the per-participant reveal between locking the round and
// settling it. Funds are already escrowed, so the delay is presentation only.
const revealDelay = 2 * time.Second

func (b *Bot) handleDiceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "create":
		b.handleDiceCreate(s, i, options[0])
	case "join":
		b.handleDiceJoin(s, i)
	case "start":
		b.handleDiceStart(s, i)
	case "cancel":
		b.handleDiceCancel(s, i)
	case "status":
		b.handleDiceStatus(s, i)
	}
}

func (b *Bot) handleDiceCreate(s *discordgo.Session, i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	userID, channelID, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var bet int64
	for _, sub := range opt.Options {
		if sub.Name == "bet" {
			bet = sub.IntValue()
		}
	}

	session, err := b.sessionService.Create(ctx, userID, channelID, bet)
	if err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error creating round in channel %d: %v", channelID, err)
		b.respondWithError(s, i, "Unable to open a round. Please try again.")
		return
	}

	b.respondWithEmbed(s, i, buildRecruitingEmbed(session))
}

func (b *Bot) handleDiceJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, channelID, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	session, err := b.sessionService.Join(ctx, channelID, userID)
	if err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error joining round in channel %d: %v", channelID, err)
		b.respondWithError(s, i, "Unable to join the round. Please try again.")
		return
	}

	b.respondWithEmbed(s, i, buildRecruitingEmbed(session))
}

func (b *Bot) handleDiceStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, channelID, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	session, err := b.sessionService.Start(ctx, channelID, userID)
	if err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error starting round in channel %d: %v", channelID, err)
		b.respondWithError(s, i, "Unable to start the round. Please try again.")
		return
	}

	b.respond(s, i, fmt.Sprintf("🎲 The round is on! %d stakes of **%s coins** are locked in. Rolling...",
		len(session.Participants()), FormatBalance(session.Bet)))

	// The reveal and settlement run in the background so the interaction
	// response stays within Discord's deadline.
	go b.revealAndSettle(s, i.ChannelID, channelID, session)
}

// revealAndSettle posts each participant's roll with a dramatic pause, then
// resolves the round and posts the settlement.
func (b *Bot) revealAndSettle(s *discordgo.Session, discordChannelID string, channelID int64, session *models.Session) {
	ctx := context.Background()

	time.Sleep(revealDelay)
	b.sendMessage(s, discordChannelID, fmt.Sprintf("**Host** %s rolls:\n%s",
		mention(session.HostID), formatOutcome(session.HostOutcome)))

	for _, p := range session.PlayerOutcomes {
		time.Sleep(revealDelay)
		b.sendMessage(s, discordChannelID, fmt.Sprintf("%s rolls:\n%s",
			mention(p.UserID), formatOutcome(p.Outcome)))
	}

	settlement, err := b.sessionService.Resolve(ctx, channelID)
	if err != nil {
		log.Printf("Error resolving round in channel %d: %v", channelID, err)
		b.sendMessage(s, discordChannelID, fmt.Sprintf("❌ %s", friendlyError(err)))
		return
	}

	_, err = s.ChannelMessageSendEmbed(discordChannelID, buildSettlementEmbed(session, settlement))
	if err != nil {
		log.Printf("Error posting settlement for channel %d: %v", channelID, err)
	}
}

func (b *Bot) handleDiceCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, channelID, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	if err := b.sessionService.Cancel(ctx, channelID, userID); err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error cancelling round in channel %d: %v", channelID, err)
		b.respondWithError(s, i, "Unable to cancel the round. Please try again.")
		return
	}

	b.respond(s, i, "🚫 The round was cancelled and any locked stakes were refunded.")
}

func (b *Bot) handleDiceStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, channelID, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	session := b.sessionService.Get(channelID)
	if session == nil {
		b.respondWithError(s, i, "There's no active round in this channel.")
		return
	}
	if session.Phase != models.SessionPhaseRecruiting {
		b.respond(s, i, "🎲 The dice are already rolling — hold tight.")
		return
	}

	b.respondWithEmbed(s, i, buildRecruitingEmbed(session))
}

func (b *Bot) handleSolo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, _, err := interactionIDs(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var bet int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "bet" {
			bet = opt.IntValue()
		}
	}

	result, err := b.soloService.Play(ctx, userID, bet)
	if err != nil {
		if service.IsBusinessError(err) {
			b.respondWithError(s, i, friendlyError(err))
			return
		}
		log.Printf("Error playing solo round for %d: %v", userID, err)
		b.respondWithError(s, i, "Unable to play. Please try again.")
		return
	}

	b.respondWithEmbed(s, i, buildSoloEmbed(result))
}

// respondWithEmbed sends an embed response to an interaction
func (b *Bot) respondWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Printf("Error responding with embed: %v", err)
	}
}

// sendMessage posts a plain channel message, logging failures
func (b *Bot) sendMessage(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.Printf("Error sending message to channel %s: %v", channelID, err)
	}
}
