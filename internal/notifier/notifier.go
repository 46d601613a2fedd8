package notifier

import (
	"context"
	"errors"

	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/match"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
// Delivery is best effort; callers log failures and move on.
type Notifier interface {
	ChallengeSent(ctx context.Context, n ChallengeNotice) error
	ProposalSent(ctx context.Context, n MatchNotice) error
	ProposalAccepted(ctx context.Context, n MatchNotice) error
	MatchCancelled(ctx context.Context, n MatchNotice) error
	MatchFinished(ctx context.Context, n MatchNotice) error
}

// ChallengeNotice describes a challenge with display names resolved.
type ChallengeNotice struct {
	Challenge      *challenge.Challenge
	ChallengerName string
	TargetName     string
}

// MatchNotice describes a match event with display names resolved.
// Message is set for proposal events, Result for finished matches.
type MatchNotice struct {
	Match     *match.Match
	TeamAName string
	TeamBName string
	Message   *chat.Message
	Result    *match.Result
}

type contextKey string

const dryRunKey contextKey = "dryRun"

// WithDryRun marks ctx so notifiers log instead of sending.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, dryRunKey, dryRun)
}

// IsDryRun reports whether ctx was marked with WithDryRun.
func IsDryRun(ctx context.Context) bool {
	dryRun, ok := ctx.Value(dryRunKey).(bool)
	return ok && dryRun
}

// Multi fans a notification out to several channels. Every channel is
// attempted; the errors are joined.
type Multi []Notifier

var _ Notifier = Multi(nil)

func (m Multi) each(fn func(Notifier) error) error {
	var errs []error
	for _, n := range m {
		if err := fn(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) ChallengeSent(ctx context.Context, n ChallengeNotice) error {
	return m.each(func(x Notifier) error { return x.ChallengeSent(ctx, n) })
}

func (m Multi) ProposalSent(ctx context.Context, n MatchNotice) error {
	return m.each(func(x Notifier) error { return x.ProposalSent(ctx, n) })
}

func (m Multi) ProposalAccepted(ctx context.Context, n MatchNotice) error {
	return m.each(func(x Notifier) error { return x.ProposalAccepted(ctx, n) })
}

func (m Multi) MatchCancelled(ctx context.Context, n MatchNotice) error {
	return m.each(func(x Notifier) error { return x.MatchCancelled(ctx, n) })
}

func (m Multi) MatchFinished(ctx context.Context, n MatchNotice) error {
	return m.each(func(x Notifier) error { return x.MatchFinished(ctx, n) })
}

// Noop discards every notification.
type Noop struct{}

var _ Notifier = Noop{}

func (Noop) ChallengeSent(context.Context, ChallengeNotice) error { return nil }
func (Noop) ProposalSent(context.Context, MatchNotice) error      { return nil }
func (Noop) ProposalAccepted(context.Context, MatchNotice) error  { return nil }
func (Noop) MatchCancelled(context.Context, MatchNotice) error    { return nil }
func (Noop) MatchFinished(context.Context, MatchNotice) error     { return nil }
