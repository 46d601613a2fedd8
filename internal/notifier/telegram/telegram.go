// Package telegram delivers notifications to a Telegram chat through a bot.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/notifier"
)

const channel = "telegram"

// botAPI is the part of tgbotapi.BotAPI used to send messages.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ notifier.Notifier = &Notifier{}

type Notifier struct {
	bot     botAPI
	chatID  int64
	metrics metrics.Metrics
	loc     *time.Location
}

// NewNotifier authenticates the bot token against Telegram.
func NewNotifier(token string, chatID int64, metrics metrics.Metrics, loc *time.Location) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info("Telegram bot authorised", "username", bot.Self.UserName)
	return NewNotifierWithAPI(bot, chatID, metrics, loc), nil
}

func NewNotifierWithAPI(bot botAPI, chatID int64, metrics metrics.Metrics, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{bot: bot, chatID: chatID, metrics: metrics, loc: loc}
}

func (t *Notifier) send(ctx context.Context, lines ...string) error {
	text := strings.Join(lines, "\n")
	if notifier.IsDryRun(ctx) {
		log.Info("[Dry Run] Would send Telegram message", "chat", t.chatID, "text", text)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	sent, err := t.bot.Send(msg)
	if err != nil {
		t.metrics.IncNotificationsFailed(channel)
		log.Error("Failed to send Telegram message", "error", err, "chat", t.chatID)
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	t.metrics.IncNotificationsSent(channel)
	log.Info("Successfully sent Telegram message", "chat", t.chatID, "messageID", sent.MessageID)
	return nil
}

func (t *Notifier) kickoff(n notifier.MatchNotice) string {
	if n.Match == nil || n.Match.ScheduledAt == nil {
		return "not scheduled"
	}
	return n.Match.ScheduledAt.In(t.loc).Format("Mon 02 Jan 15:04")
}

func (t *Notifier) ChallengeSent(ctx context.Context, n notifier.ChallengeNotice) error {
	return t.send(ctx, "⚔️ New challenge", fmt.Sprintf("%s challenged %s", n.ChallengerName, n.TargetName))
}

func (t *Notifier) ProposalSent(ctx context.Context, n notifier.MatchNotice) error {
	lines := []string{"📅 New proposal", fmt.Sprintf("%s vs %s", n.TeamAName, n.TeamBName)}
	if n.Message != nil {
		lines = append(lines, n.Message.Content)
	}
	return t.send(ctx, lines...)
}

func (t *Notifier) ProposalAccepted(ctx context.Context, n notifier.MatchNotice) error {
	return t.send(ctx, "✅ Match confirmed", fmt.Sprintf("%s vs %s", n.TeamAName, n.TeamBName), "Kick-off: "+t.kickoff(n))
}

func (t *Notifier) MatchCancelled(ctx context.Context, n notifier.MatchNotice) error {
	return t.send(ctx, "❌ Match cancelled", fmt.Sprintf("%s vs %s", n.TeamAName, n.TeamBName))
}

func (t *Notifier) MatchFinished(ctx context.Context, n notifier.MatchNotice) error {
	if n.Result == nil {
		return t.send(ctx, "🏁 Match finished", fmt.Sprintf("%s vs %s", n.TeamAName, n.TeamBName))
	}
	return t.send(ctx, "🏁 Match finished", fmt.Sprintf("%s %d - %d %s", n.TeamAName, n.Result.GoalsA, n.Result.GoalsB, n.TeamBName))
}
