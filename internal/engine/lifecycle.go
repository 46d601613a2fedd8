package engine

import (
	"context"
	"errors"
	"time"

	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/negotiation"
	"github.com/mauv0809/rivalry/internal/session"
	"github.com/mauv0809/rivalry/internal/validation"
)

var (
	ErrIncompleteSchedule = failure.Precondition("date and time must be given together")
	ErrNotConfirmed       = failure.Stale("only a confirmed match can have its reservation edited")
	ErrResultNotOpen      = failure.Stale("results can only be submitted once the match is live or in check-in")
	ErrStatsNotOpen       = failure.Stale("player stats can only be submitted for a finished match")
	ErrAlreadyDecided     = failure.Stale("match is already decided")
)

// managedMatch loads a match the user manages and returns the side the
// user acts for. An empty team resolves to the managed side.
func (e *Engine) managedMatch(ctx context.Context, userID, matchID, team string) (*match.Match, string, error) {
	if userID == "" {
		return nil, "", session.ErrNoSession
	}
	m, err := e.matches.Get(ctx, matchID)
	if err != nil {
		return nil, "", err
	}
	if team == "" {
		side, ok, err := e.gate.ManagedSide(ctx, userID, m)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			return nil, "", negotiation.ErrNotManager
		}
		return m, side, nil
	}
	if !m.Involves(team) {
		return nil, "", match.ErrNotParticipant
	}
	if err := e.requireManager(ctx, userID, team); err != nil {
		return nil, "", err
	}
	return m, team, nil
}

// EditReservation rewrites the details of a CONFIRMED match, keeping it
// CONFIRMED.
func (e *Engine) EditReservation(ctx context.Context, userID, matchID string, r Reservation) (*match.Match, error) {
	if err := validation.Struct(r); err != nil {
		return nil, err
	}
	if (r.Date == "") != (r.Time == "") {
		return nil, ErrIncompleteSchedule
	}
	m, _, err := e.managedMatch(ctx, userID, matchID, "")
	if err != nil {
		return nil, err
	}
	if m.Status != match.StatusConfirmed {
		return nil, e.stale("edit_reservation", ErrNotConfirmed)
	}

	fields := match.Fields{IsFriendly: r.IsFriendly}
	if r.Date != "" {
		loc := e.defaultZone
		if r.Timezone != "" {
			if loc, err = time.LoadLocation(r.Timezone); err != nil {
				return nil, negotiation.ErrUnknownZone
			}
		}
		kickoff, err := match.ComposeLocal(r.Date, r.Time, loc)
		if err != nil {
			return nil, err
		}
		fields.ScheduledAt = &kickoff
	}
	if r.Venue != "" {
		fields.Venue = &r.Venue
	}
	if r.Modality != "" {
		fields.Modality = &r.Modality
	}
	if r.DurationMinutes > 0 {
		fields.DurationMinutes = &r.DurationMinutes
	}

	updated, err := e.matches.UpdateStatus(ctx, matchID, []match.Status{match.StatusConfirmed}, match.StatusConfirmed, fields)
	if err != nil {
		if errors.Is(err, match.ErrStaleMatch) {
			err = ErrNotConfirmed
		}
		return nil, e.stale("edit_reservation", err)
	}
	e.publishMatch(ctx, updated)
	return updated, nil
}

// CancelMatch cancels a PENDING or CONFIRMED match outside the 24 hour
// window before kick-off.
func (e *Engine) CancelMatch(ctx context.Context, userID, matchID string) (*match.Match, error) {
	m, _, err := e.managedMatch(ctx, userID, matchID, "")
	if err != nil {
		return nil, err
	}
	if err := match.CheckCancellable(m, e.now()); err != nil {
		return nil, e.stale("cancel_match", err)
	}
	updated, err := e.matches.UpdateStatus(ctx, matchID, []match.Status{m.Status}, match.StatusCancelled, match.Fields{})
	if err != nil {
		return nil, e.stale("cancel_match", err)
	}
	e.publishMatch(ctx, updated)
	e.async(ctx, "match_cancelled", func(ctx context.Context) error {
		return e.notifier.MatchCancelled(ctx, e.matchNotice(ctx, updated))
	})
	return updated, nil
}

// SubmitResult records the final score and finishes the match.
func (e *Engine) SubmitResult(ctx context.Context, userID, matchID string, goalsA, goalsB int) (*match.Result, error) {
	if goalsA < 0 || goalsB < 0 {
		return nil, match.ErrInvalidScore
	}
	m, _, err := e.managedMatch(ctx, userID, matchID, "")
	if err != nil {
		return nil, err
	}
	if m.Status == match.StatusFinished {
		return nil, e.stale("submit_result", match.ErrResultExists)
	}
	if !match.CanSubmitResult(m, e.now()) {
		return nil, e.stale("submit_result", ErrResultNotOpen)
	}
	result, err := e.matches.SaveResult(ctx, matchID, goalsA, goalsB, userID)
	if err != nil {
		return nil, e.stale("submit_result", err)
	}

	finished, err := e.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	e.publishMatch(ctx, finished)
	e.triggerRating(ctx, matchID)
	e.async(ctx, "match_finished", func(ctx context.Context) error {
		n := e.matchNotice(ctx, finished)
		n.Result = result
		return e.notifier.MatchFinished(ctx, n)
	})
	return result, nil
}

// ConfirmResult marks the result as agreed by the user's side.
func (e *Engine) ConfirmResult(ctx context.Context, userID, matchID string) (*match.Result, error) {
	_, side, err := e.managedMatch(ctx, userID, matchID, "")
	if err != nil {
		return nil, err
	}
	return e.matches.ConfirmResult(ctx, matchID, side)
}

// SubmitPlayerStats replaces the stat lines of one team for a finished match.
func (e *Engine) SubmitPlayerStats(ctx context.Context, userID, matchID, teamID string, stats []match.PlayerStat) ([]match.PlayerStat, error) {
	for i := range stats {
		if err := validation.Struct(stats[i]); err != nil {
			return nil, err
		}
	}
	m, side, err := e.managedMatch(ctx, userID, matchID, teamID)
	if err != nil {
		return nil, err
	}
	if m.Status != match.StatusFinished {
		return nil, e.stale("submit_stats", ErrStatsNotOpen)
	}
	if err := e.matches.ReplacePlayerStats(ctx, matchID, side, stats); err != nil {
		return nil, err
	}
	return e.matches.PlayerStats(ctx, matchID)
}

// ClaimWalkover awards the match to the claiming side. The evidence is
// stored without verification.
func (e *Engine) ClaimWalkover(ctx context.Context, userID, matchID string, w Walkover) (*match.Match, error) {
	if err := validation.Struct(w); err != nil {
		return nil, err
	}
	m, side, err := e.managedMatch(ctx, userID, matchID, w.ClaimingTeam)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		return nil, e.stale("claim_walkover", ErrAlreadyDecided)
	}
	to := match.StatusWalkoverA
	if side == m.TeamB {
		to = match.StatusWalkoverB
	}
	fields := match.Fields{WalkoverClaimedBy: &side}
	if w.EvidenceURL != "" {
		fields.EvidenceURL = &w.EvidenceURL
	}

	updated, err := e.matches.UpdateStatus(ctx, matchID, match.NonTerminalStatuses, to, fields)
	if err != nil {
		if errors.Is(err, match.ErrStaleMatch) {
			err = ErrAlreadyDecided
		}
		return nil, e.stale("claim_walkover", err)
	}
	e.publishMatch(ctx, updated)
	e.triggerRating(ctx, matchID)
	e.async(ctx, "walkover", func(ctx context.Context) error {
		return e.notifier.MatchFinished(ctx, e.matchNotice(ctx, updated))
	})
	return updated, nil
}
