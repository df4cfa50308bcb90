package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"chinchiro/events"
	"chinchiro/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string

	// Operators may run privileged ledger commands (/award, /rollback)
	// and cancel any round.
	Operators []int64
}

type Bot struct {
	config         Config
	session        *discordgo.Session
	ledgerService  service.LedgerService
	sessionService service.SessionService
	soloService    service.SoloService
	eventBus       *events.Bus

	// roundsSettled counts rounds settled since startup, fed by the event
	// bus and shown by /stats.
	roundsSettled atomic.Int64
}

func New(config Config, ledgerService service.LedgerService, sessionService service.SessionService, soloService service.SoloService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		config:         config,
		session:        dg,
		ledgerService:  ledgerService,
		sessionService: sessionService,
		soloService:    soloService,
		eventBus:       eventBus,
	}

	dg.AddHandler(bot.handleCommands)
	bot.subscribeEvents()

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.Info("Bot connected and commands registered")

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// subscribeEvents wires the bot into the domain event stream: settlements
// feed the /stats uptime counter and every balance change lands in the
// audit log.
func (b *Bot) subscribeEvents() {
	b.eventBus.Subscribe(events.EventTypeRoundSettled, func(ctx context.Context, e events.Event) {
		ev, ok := e.(events.RoundSettledEvent)
		if !ok {
			return
		}
		b.roundsSettled.Add(1)
		log.WithFields(log.Fields{
			"channelID": ev.ChannelID,
			"hostID":    ev.HostID,
			"players":   ev.PlayerCount,
			"hostDelta": ev.HostDelta,
		}).Info("Round settled")
	})

	b.eventBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		ev, ok := e.(events.BalanceChangeEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"userID": ev.UserID,
			"delta":  ev.Delta,
			"kind":   ev.Kind,
		}).Debug("Balance changed")
	})
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "balance":
		b.handleBalance(s, i)
	case "transfer":
		b.handleTransfer(s, i)
	case "history":
		b.handleHistory(s, i)
	case "solo":
		b.handleSolo(s, i)
	case "dice":
		b.handleDiceCommand(s, i)
	case "award":
		b.handleAward(s, i)
	case "rollback":
		b.handleRollback(s, i)
	case "stats":
		b.handleStats(s, i)
	}
}

// respondWithError sends an ephemeral error response to an interaction
func (b *Bot) respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error sending error response: %v", err)
	}
}

// respond sends a plain message response to an interaction
func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		log.Printf("Error responding to command: %v", err)
	}
}
