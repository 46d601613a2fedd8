package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}
	// Optional variables fall back to def.
	getEnvOr := func(key, def string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		return def
	}

	cfg := Config{
		DBName:    getEnv("DB_NAME"),
		Port:      getEnv("PORT"),
		JWTSecret: getEnv("JWT_SECRET"),
		TokenTTL:  time.Duration(parseInt(getEnvOr("TOKEN_TTL_HOURS", "720"), 720)) * time.Hour,
		Timezone:  getEnvOr("DEFAULT_TIMEZONE", "UTC"),
		LogLevel:  getEnvOr("LOG_LEVEL", "info"),
		Slack: SlackConfig{
			Token:     getEnvOr("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnvOr("SLACK_CHANNEL_ID", ""),
		},
		Telegram: TelegramConfig{
			Token:  getEnvOr("TELEGRAM_BOT_TOKEN", ""),
			ChatID: parseInt(getEnvOr("TELEGRAM_CHAT_ID", "0"), 0),
		},
		Turso: TursoConfig{
			PrimaryURL: getEnvOr("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvOr("TURSO_AUTH_TOKEN", ""),
		},
		Inngest: InngestConfig{
			AppID:      getEnvOr("INNGEST_APP_ID", "rivalry"),
			SigningKey: getEnvOr("INNGEST_SIGNING_KEY", ""),
			EventKey:   getEnvOr("INNGEST_EVENT_KEY", ""),
			Dev:        getEnvOr("INNGEST_DEV", "") != "",
		},
		ProjectID:     getEnvOr("GCP_PROJECT", ""),
		MessageTopic:  getEnvOr("PUBSUB_MESSAGE_TOPIC", "match-message-created"),
		InternalToken: getEnvOr("INTERNAL_TOKEN", ""),
	}
	return cfg
}

func parseInt(raw string, def int64) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn("Ignoring malformed integer setting", "value", raw, "default", def)
		return def
	}
	return n
}

// Location resolves the default time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn("Unknown DEFAULT_TIMEZONE, using UTC", "zone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
