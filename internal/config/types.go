package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName       string
	Port         string
	JWTSecret    string
	TokenTTL     time.Duration
	Timezone     string
	LogLevel     string
	Slack        SlackConfig
	Telegram     TelegramConfig
	Turso        TursoConfig
	Inngest      InngestConfig
	ProjectID    string
	MessageTopic string

	// InternalToken authenticates Pub/Sub pushes and the rating processor trigger.
	InternalToken string
}
type SlackConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether Slack notifications are configured.
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.ChannelID != ""
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type InngestConfig struct {
	AppID      string
	SigningKey string
	EventKey   string
	Dev        bool
}

// Enabled reports whether rating updates should go through Inngest.
func (i InngestConfig) Enabled() bool {
	return i.Dev || (i.SigningKey != "" && i.EventKey != "")
}
