package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string

	// Database configuration
	DatabaseURL string

	// Round configuration
	VenueFeePercent       int // percentage of the bet burned at round start
	SessionTimeoutSeconds int // recruiting window before a round is discarded
	CooldownSeconds       int // per-user wait between resolved rounds
	ForcedLossPercent     int // chance of the pre-roll instant-loss event

	// OperatorIDs may cancel any session regardless of host
	OperatorIDs []int64

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Round settings with defaults
		VenueFeePercent:       5,
		SessionTimeoutSeconds: 120,
		CooldownSeconds:       180,
		ForcedLossPercent:     2,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if fee := os.Getenv("VENUE_FEE_PERCENT"); fee != "" {
		if parsed, err := strconv.Atoi(fee); err == nil {
			config.VenueFeePercent = parsed
		}
	}
	if timeout := os.Getenv("SESSION_TIMEOUT_SECONDS"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil {
			config.SessionTimeoutSeconds = parsed
		}
	}
	if cooldown := os.Getenv("COOLDOWN_SECONDS"); cooldown != "" {
		if parsed, err := strconv.Atoi(cooldown); err == nil {
			config.CooldownSeconds = parsed
		}
	}
	if chance := os.Getenv("FORCED_LOSS_PERCENT"); chance != "" {
		if parsed, err := strconv.Atoi(chance); err == nil {
			config.ForcedLossPercent = parsed
		}
	}

	// Parse operator Discord IDs
	if operatorIDs := os.Getenv("OPERATOR_DISCORD_IDS"); operatorIDs != "" {
		idStrings := strings.Split(operatorIDs, ",")
		for _, idStr := range idStrings {
			idStr = strings.TrimSpace(idStr)
			if idStr != "" {
				if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
					config.OperatorIDs = append(config.OperatorIDs, id)
				}
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// IsOperator reports whether the user may perform elevated actions such as
// cancelling another host's session.
func (c *Config) IsOperator(userID int64) bool {
	for _, id := range c.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}
