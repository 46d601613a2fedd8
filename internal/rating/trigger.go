package rating

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/metrics"
)

func NewTrigger(db *sql.DB, dispatcher Dispatcher, m metrics.Metrics) *Trigger {
	return &Trigger{db: db, dispatcher: dispatcher, metrics: m}
}

// MatchFinished claims the trigger of a decided match and dispatches it.
// The match store queues the trigger with the status change; the row is
// inserted here too for matches decided before that. It reports false when
// the trigger was already dispatched, in which case nothing is dispatched.
// A dispatch failure leaves the trigger pending for the Processor.
func (t *Trigger) MatchFinished(ctx context.Context, matchID string) (bool, error) {
	now := time.Now().Unix()
	if _, err := t.db.ExecContext(ctx, `
		INSERT INTO rating_triggers (match_id, triggered_at) VALUES (?, ?)
		ON CONFLICT(match_id) DO NOTHING`, matchID, now); err != nil {
		return false, fmt.Errorf("failed to record rating trigger: %w", err)
	}
	res, err := t.db.ExecContext(ctx, `
		UPDATE rating_triggers SET dispatched_at = ?
		WHERE match_id = ? AND dispatched_at IS NULL`, now, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to claim rating trigger: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Debug("Rating already triggered", "matchID", matchID)
		return false, nil
	}
	t.metrics.IncRatingTriggers()
	log.Info("Rating trigger dispatched", "matchID", matchID)

	if err := t.dispatcher.Dispatch(ctx, matchID); err != nil {
		return true, fmt.Errorf("failed to dispatch rating update for %s: %w", matchID, err)
	}
	return true, nil
}

// LocalDispatcher applies the update in-process.
type LocalDispatcher struct {
	Applier Applier
}

func (d LocalDispatcher) Dispatch(ctx context.Context, matchID string) error {
	_, err := d.Applier.Apply(ctx, matchID)
	return err
}
