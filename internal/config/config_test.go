package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_NAME", "rivalry.db")
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")

	t.Run("defaults", func(t *testing.T) {
		cfg := Load()
		assert.Equal(t, "rivalry.db", cfg.DBName)
		assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
		assert.Equal(t, "match-message-created", cfg.MessageTopic)
		assert.Equal(t, time.UTC, cfg.Location())
		assert.Equal(t, log.InfoLevel, cfg.Level())
		assert.False(t, cfg.Slack.Enabled())
		assert.False(t, cfg.Telegram.Enabled())
		assert.False(t, cfg.Inngest.Enabled())
	})

	t.Run("optional settings", func(t *testing.T) {
		t.Setenv("DEFAULT_TIMEZONE", "Europe/Madrid")
		t.Setenv("TOKEN_TTL_HOURS", "2")
		t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
		t.Setenv("TELEGRAM_CHAT_ID", "-1001")
		t.Setenv("LOG_LEVEL", "debug")

		cfg := Load()
		assert.Equal(t, "Europe/Madrid", cfg.Location().String())
		assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
		assert.Equal(t, int64(-1001), cfg.Telegram.ChatID)
		assert.True(t, cfg.Telegram.Enabled())
		assert.Equal(t, log.DebugLevel, cfg.Level())
	})

	t.Run("malformed integers fall back", func(t *testing.T) {
		t.Setenv("TOKEN_TTL_HOURS", "soon")
		cfg := Load()
		assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	})
}
