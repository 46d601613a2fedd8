package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/notifier"
	"github.com/slack-go/slack"
)

const channel = "slack"

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	loc       *time.Location
}

// NewNotifier creates a new Notifier. Kick-off times are rendered in loc.
func NewNotifier(token, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics, loc)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		loc:       loc,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message) (string, string, error) {
	if notifier.IsDryRun(ctx) {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncNotificationsFailed(channel)
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotificationsSent(channel)
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) ChallengeSent(ctx context.Context, n notifier.ChallengeNotice) error {
	_, _, err := s.sendMessage(ctx, s.formatChallenge(n))
	return err
}

func (s *Notifier) ProposalSent(ctx context.Context, n notifier.MatchNotice) error {
	_, _, err := s.sendMessage(ctx, s.formatProposal(n, "📅 New proposal"))
	return err
}

func (s *Notifier) ProposalAccepted(ctx context.Context, n notifier.MatchNotice) error {
	_, _, err := s.sendMessage(ctx, s.formatProposal(n, "✅ Match confirmed"))
	return err
}

func (s *Notifier) MatchCancelled(ctx context.Context, n notifier.MatchNotice) error {
	_, _, err := s.sendMessage(ctx, s.formatCancelled(n))
	return err
}

func (s *Notifier) MatchFinished(ctx context.Context, n notifier.MatchNotice) error {
	_, _, err := s.sendMessage(ctx, s.formatResult(n))
	return err
}

func header(text string) slack.Block {
	return slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", text, true, false))
}

func section(text string) slack.Block {
	return slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil)
}

func fixture(n notifier.MatchNotice) string {
	return fmt.Sprintf("%s vs %s", n.TeamAName, n.TeamBName)
}

func (s *Notifier) kickoff(n notifier.MatchNotice) string {
	if n.Match == nil || n.Match.ScheduledAt == nil {
		return "not scheduled"
	}
	return n.Match.ScheduledAt.In(s.loc).Format("Monday 02 Jan, 15:04")
}

// formatChallenge creates the Slack message for a new challenge using Block Kit.
func (s *Notifier) formatChallenge(n notifier.ChallengeNotice) slack.Message {
	blocks := []slack.Block{
		header("⚔️ New challenge!"),
		section(fmt.Sprintf("%s challenged %s", n.ChallengerName, n.TargetName)),
	}
	return slack.NewBlockMessage(blocks...)
}

// formatProposal renders the offer carried by the notice's message.
func (s *Notifier) formatProposal(n notifier.MatchNotice, title string) slack.Message {
	blocks := []slack.Block{header(title), section(fixture(n))}

	if n.Message != nil && n.Message.Proposal != nil {
		offer := n.Message.Proposal.Offer
		details := fmt.Sprintf("Date: %s\nTime: %s", offer.Date, offer.Time)
		if offer.Venue != "" {
			details += "\nVenue: " + offer.Venue
		}
		if offer.Modality != "" {
			details += "\nModality: " + offer.Modality
		}
		if offer.DurationMinutes > 0 {
			details += fmt.Sprintf("\nDuration: %d min", offer.DurationMinutes)
		}
		blocks = append(blocks, section(details))
	}

	if n.Match != nil && n.Match.ScheduledAt != nil {
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Kick-off: "+s.kickoff(n), true, false)))
	}
	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatCancelled(n notifier.MatchNotice) slack.Message {
	return slack.NewBlockMessage(
		header("❌ Match cancelled"),
		section(fmt.Sprintf("%s\nWas scheduled for: %s", fixture(n), s.kickoff(n))),
	)
}

// formatResult creates the Slack message for a finished match using Block Kit.
func (s *Notifier) formatResult(n notifier.MatchNotice) slack.Message {
	blocks := []slack.Block{header("🏁 Match finished!")}
	if n.Result == nil {
		blocks = append(blocks, section(fixture(n)+"\nResult: No score reported."))
		return slack.NewBlockMessage(blocks...)
	}

	score := fmt.Sprintf("%s %d - %d %s", n.TeamAName, n.Result.GoalsA, n.Result.GoalsB, n.TeamBName)
	blocks = append(blocks, section(score))

	outcome := "It's a draw!"
	switch {
	case n.Result.GoalsA > n.Result.GoalsB:
		outcome = n.TeamAName + " won! 🏆"
	case n.Result.GoalsB > n.Result.GoalsA:
		outcome = n.TeamBName + " won! 🏆"
	}
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", outcome, true, false)))
	return slack.NewBlockMessage(blocks...)
}
