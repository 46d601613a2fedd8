package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/roster"
)

var _ Applier = (*Updater)(nil)

func NewUpdater(db *sql.DB, teams roster.Store, matches match.Store, m metrics.Metrics) *Updater {
	return &Updater{db: db, teams: teams, matches: matches, metrics: m, k: DefaultK}
}

// Elo returns the new ratings of A and B given A's score (1 win, 0.5 draw, 0 loss).
func Elo(ratingA, ratingB int, scoreA, k float64) (int, int) {
	expectedA := 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
	delta := int(math.Round(k * (scoreA - expectedA)))
	return ratingA + delta, ratingB - delta
}

// scoreA is team A's Elo score for a decided match.
func scoreA(m *match.Match, r *match.Result) (float64, bool) {
	switch m.Status {
	case match.StatusWalkoverA:
		return 1, true
	case match.StatusWalkoverB:
		return 0, true
	case match.StatusFinished:
		if r == nil {
			return 0, false
		}
		switch {
		case r.GoalsA > r.GoalsB:
			return 1, true
		case r.GoalsA < r.GoalsB:
			return 0, true
		default:
			return 0.5, true
		}
	}
	return 0, false
}

// Apply claims the pending trigger and moves both ratings in one
// transaction. It reports false when there was nothing left to apply.
func (u *Updater) Apply(ctx context.Context, matchID string) (bool, error) {
	start := time.Now()
	m, err := u.matches.Get(ctx, matchID)
	if err != nil {
		return false, err
	}
	var result *match.Result
	if m.Status == match.StatusFinished {
		result, err = u.matches.GetResult(ctx, matchID)
		if err != nil && !errors.Is(err, match.ErrNoResult) {
			return false, err
		}
	}

	applied := false
	err = database.RunInTx(ctx, u.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE rating_triggers SET applied_at = ?
			WHERE match_id = ? AND applied_at IS NULL`, time.Now().Unix(), matchID)
		if err != nil {
			return fmt.Errorf("failed to claim rating trigger: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		applied = true

		if m.IsFriendly {
			log.Info("Friendly match, ratings unchanged", "matchID", matchID)
			return nil
		}
		score, ok := scoreA(m, result)
		if !ok {
			log.Warn("Match has no decided outcome, ratings unchanged", "matchID", matchID, "status", m.Status)
			return nil
		}

		teams := u.teams.WithTx(tx)
		a, err := teams.GetTeam(ctx, m.TeamA)
		if err != nil {
			return err
		}
		b, err := teams.GetTeam(ctx, m.TeamB)
		if err != nil {
			return err
		}
		newA, newB := Elo(a.Rating, b.Rating, score, u.k)
		if err := teams.SetRating(ctx, a.ID, newA); err != nil {
			return err
		}
		if err := teams.SetRating(ctx, b.ID, newB); err != nil {
			return err
		}
		log.Info("Ratings updated", "matchID", matchID, "team_a", a.ID, "rating_a", newA, "team_b", b.ID, "rating_b", newB)
		return nil
	})
	if err != nil {
		return false, err
	}
	u.metrics.ObserveRatingDuration(time.Since(start).Seconds())
	return applied, nil
}
