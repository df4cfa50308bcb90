package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"chinchiro/bot"
	"chinchiro/config"
	"chinchiro/database"
	"chinchiro/events"
	"chinchiro/repository"
	"chinchiro/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting chinchiro bot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	ledgerService := service.NewLedgerService(uowFactory)
	dice := service.NewDiceEngine(time.Now().UnixNano(), int64(cfg.ForcedLossPercent))
	cooldowns := service.NewCooldownTracker(time.Duration(cfg.CooldownSeconds) * time.Second)
	sessionService := service.NewSessionService(uowFactory, ledgerService, dice, cooldowns, cfg, eventBus)
	soloService := service.NewSoloService(uowFactory, dice)
	log.Println("Services initialized successfully")

	// Discard recruiting rounds nobody started
	go sessionService.RunTimeoutSweeper(ctx)

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:     cfg.DiscordToken,
		GuildID:   cfg.DiscordGuildID,
		Operators: cfg.OperatorIDs,
	}
	discordBot, err := bot.New(botConfig, ledgerService, sessionService, soloService, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")

	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
