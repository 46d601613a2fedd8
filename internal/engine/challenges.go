package engine

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/negotiation"
	"github.com/mauv0809/rivalry/internal/notifier"
	"github.com/mauv0809/rivalry/internal/session"
)

// requireManager fails unless userID manages teamID.
func (e *Engine) requireManager(ctx context.Context, userID, teamID string) error {
	if userID == "" {
		return session.ErrNoSession
	}
	ok, err := e.gate.ManagesTeam(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if !ok {
		return negotiation.ErrNotManager
	}
	return nil
}

func (e *Engine) CanSendChallenge(ctx context.Context, userID, teamA, teamB string) (bool, error) {
	if userID == "" {
		return false, session.ErrNoSession
	}
	return e.challenges.CanSend(ctx, teamA, teamB)
}

// SendChallenge opens a challenge from a team the user manages.
func (e *Engine) SendChallenge(ctx context.Context, userID, challengerID, targetID string) (*challenge.Challenge, error) {
	if err := e.requireManager(ctx, userID, challengerID); err != nil {
		return nil, err
	}
	if _, err := e.teams.GetTeam(ctx, targetID); err != nil {
		return nil, err
	}
	c, err := e.challenges.Send(ctx, challengerID, targetID)
	if err != nil {
		return nil, e.stale("send_challenge", err)
	}
	e.metrics.IncChallengesSent()

	e.async(ctx, "challenge_sent", func(ctx context.Context) error {
		n := notifier.ChallengeNotice{Challenge: c, ChallengerName: challengerID, TargetName: targetID}
		if t, err := e.teams.GetTeam(ctx, challengerID); err == nil {
			n.ChallengerName = t.Name
		}
		if t, err := e.teams.GetTeam(ctx, targetID); err == nil {
			n.TargetName = t.Name
		}
		return e.notifier.ChallengeSent(ctx, n)
	})
	return c, nil
}

// RespondChallenge lets the challenged team accept or reject. Accepting
// returns the new PENDING match.
func (e *Engine) RespondChallenge(ctx context.Context, userID, challengeID string, status challenge.Status) (*challenge.Challenge, *match.Match, error) {
	if userID == "" {
		return nil, nil, session.ErrNoSession
	}
	c, err := e.challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, nil, err
	}
	if err := e.requireManager(ctx, userID, c.TargetID); err != nil {
		return nil, nil, err
	}
	c, m, err := e.challenges.Respond(ctx, challengeID, status)
	if err != nil {
		return nil, nil, e.stale("respond_challenge", err)
	}
	if m != nil {
		log.Info("Match opened from challenge", "challengeID", c.ID, "matchID", m.ID)
	}
	return c, m, nil
}

// CancelChallenge lets the challenger withdraw a pending challenge.
func (e *Engine) CancelChallenge(ctx context.Context, userID, challengeID string) (*challenge.Challenge, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	c, err := e.challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := e.requireManager(ctx, userID, c.ChallengerID); err != nil {
		return nil, err
	}
	c, err = e.challenges.Cancel(ctx, challengeID)
	return c, e.stale("cancel_challenge", err)
}

// TeamChallenges lists a team's challenges for its members.
func (e *Engine) TeamChallenges(ctx context.Context, userID, teamID string) ([]challenge.Challenge, error) {
	if err := e.requireMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	return e.challenges.ListForTeam(ctx, teamID)
}
