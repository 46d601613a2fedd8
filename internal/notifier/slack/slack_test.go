package slack

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/notifier"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	n := NewNotifierWithAPI(nil, "C123", metrics, nil)

	ctx := notifier.WithDryRun(context.Background(), true)
	_, _, err := n.sendMessage(ctx, slackapi.NewBlockMessage())
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.NotificationsSent("slack"))
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metrics, nil)

	message := slackapi.NewBlockMessage(section("hello"))
	_, _, err := n.sendMessage(context.Background(), message)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.NotificationsSent("slack"))
	assert.Equal(t, 0, metrics.NotificationsFailed("slack"))
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metrics, nil)

	err := n.MatchCancelled(context.Background(), notifier.MatchNotice{Match: &match.Match{ID: "m1"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.NotificationsSent("slack"))
	assert.Equal(t, 1, metrics.NotificationsFailed("slack"))
}

func TestFormatProposal(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	at := time.Date(2026, 11, 7, 19, 0, 0, 0, time.UTC)

	msg := chat.NewProposal("m1", "a", "u1", chat.Offer{Date: "2026-11-07", Time: "20:00", Venue: "Polideportivo Norte", Modality: "F7", DurationMinutes: 60})
	n := &Notifier{channelID: "C123", loc: loc}
	out := n.formatProposal(notifier.MatchNotice{
		Match:     &match.Match{ID: "m1", ScheduledAt: &at},
		TeamAName: "Leones",
		TeamBName: "Tigres",
		Message:   msg,
	}, "New proposal")

	require.Len(t, out.Blocks.BlockSet, 4)

	fix, ok := out.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Leones vs Tigres", fix.Text.Text)

	details, ok := out.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Date: 2026-11-07\nTime: 20:00\nVenue: Polideportivo Norte\nModality: F7\nDuration: 60 min", details.Text.Text)

	ctxBlock, ok := out.Blocks.BlockSet[3].(*slackapi.ContextBlock)
	require.True(t, ok)
	text, ok := ctxBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Equal(t, "Kick-off: Saturday 07 Nov, 20:00", text.Text)
}

func TestFormatResult(t *testing.T) {
	n := &Notifier{channelID: "C123", loc: time.UTC}

	t.Run("winner", func(t *testing.T) {
		out := n.formatResult(notifier.MatchNotice{TeamAName: "Leones", TeamBName: "Tigres", Result: &match.Result{GoalsA: 1, GoalsB: 3}})
		require.Len(t, out.Blocks.BlockSet, 3)
		score := out.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		assert.Equal(t, "Leones 1 - 3 Tigres", score.Text.Text)
		outcome := out.Blocks.BlockSet[2].(*slackapi.ContextBlock).ContextElements.Elements[0].(*slackapi.TextBlockObject)
		assert.Equal(t, "Tigres won! 🏆", outcome.Text)
	})

	t.Run("no result", func(t *testing.T) {
		out := n.formatResult(notifier.MatchNotice{TeamAName: "Leones", TeamBName: "Tigres"})
		require.Len(t, out.Blocks.BlockSet, 2)
	})
}
