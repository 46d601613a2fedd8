package engine

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/notifier"
	"github.com/mauv0809/rivalry/internal/realtime"
	"github.com/mauv0809/rivalry/internal/session"
)

var ErrNotMember = failure.Permission("only members of either team can view this match")

// New creates an Engine.
func New(d Deps) *Engine {
	e := &Engine{
		teams:       d.Teams,
		challenges:  d.Challenges,
		matches:     d.Matches,
		chat:        d.Chat,
		negotiator:  d.Negotiator,
		gate:        d.Gate,
		publisher:   d.Publisher,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		ratings:     d.Ratings,
		defaultZone: d.DefaultZone,
		now:         d.Now,
	}
	if e.notifier == nil {
		e.notifier = notifier.Noop{}
	}
	if e.defaultZone == nil {
		e.defaultZone = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Wait blocks until every background notification has finished.
func (e *Engine) Wait() {
	e.background.Wait()
}

// stale counts stale rejections of op and passes err through.
func (e *Engine) stale(op string, err error) error {
	if err != nil && failure.KindOf(err) == failure.KindStale {
		e.metrics.IncStaleRejections(op)
	}
	return err
}

// async runs fn after the caller's request is done. Failures are logged
// and never reach the caller.
func (e *Engine) async(ctx context.Context, what string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		if err := fn(ctx); err != nil {
			log.Error("Background task failed", "task", what, "error", err)
		}
	}()
}

func (e *Engine) publish(ctx context.Context, ev realtime.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, realtime.MatchTopic(ev.MatchID), ev); err != nil {
		log.Warn("Failed to publish realtime event", "type", ev.Type, "matchID", ev.MatchID, "error", err)
	}
}

func (e *Engine) publishMatch(ctx context.Context, m *match.Match) {
	e.publish(ctx, realtime.Event{Type: realtime.EventMatchUpdated, MatchID: m.ID, Match: m})
}

// matchNotice resolves the team names of m for a notification.
func (e *Engine) matchNotice(ctx context.Context, m *match.Match) notifier.MatchNotice {
	n := notifier.MatchNotice{Match: m, TeamAName: m.TeamA, TeamBName: m.TeamB}
	if t, err := e.teams.GetTeam(ctx, m.TeamA); err == nil {
		n.TeamAName = t.Name
	}
	if t, err := e.teams.GetTeam(ctx, m.TeamB); err == nil {
		n.TeamBName = t.Name
	}
	return n
}

// triggerRating fires the rating trigger for a decided match. A failure
// leaves the trigger for the pending processor.
func (e *Engine) triggerRating(ctx context.Context, matchID string) {
	if e.ratings == nil {
		return
	}
	if _, err := e.ratings.MatchFinished(ctx, matchID); err != nil {
		log.Error("Rating trigger failed", "matchID", matchID, "error", err)
	}
}

// LoadMatch returns the full state of a match for any member of either team.
func (e *Engine) LoadMatch(ctx context.Context, userID, matchID string) (*MatchView, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	m, err := e.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	member, err := e.gate.IsParticipant(ctx, userID, m)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	view := &MatchView{Match: m, Phase: match.DerivePhase(m, e.now())}
	if view.TeamA, err = e.teamView(ctx, m.TeamA); err != nil {
		return nil, err
	}
	if view.TeamB, err = e.teamView(ctx, m.TeamB); err != nil {
		return nil, err
	}
	if view.Messages, err = e.chat.List(ctx, matchID); err != nil {
		return nil, err
	}
	view.Result, err = e.matches.GetResult(ctx, matchID)
	if err != nil && !errors.Is(err, match.ErrNoResult) {
		return nil, err
	}
	if view.PlayerStats, err = e.matches.PlayerStats(ctx, matchID); err != nil {
		return nil, err
	}
	if view.PlayerStats == nil {
		view.PlayerStats = []match.PlayerStat{}
	}
	view.ManagedTeamID, view.CanManage, err = e.gate.ManagedSide(ctx, userID, m)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (e *Engine) teamView(ctx context.Context, teamID string) (TeamView, error) {
	team, err := e.teams.GetTeam(ctx, teamID)
	if err != nil {
		return TeamView{}, err
	}
	members, err := e.teams.GetTeamMembers(ctx, teamID)
	if err != nil {
		return TeamView{}, err
	}
	return TeamView{Team: team, Members: members}, nil
}
