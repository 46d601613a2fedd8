// Package rating records when a match's outcome should move team ratings
// and applies the update exactly once.
package rating

import (
	"context"
	"database/sql"

	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/roster"
)

// EventMatchFinished is the event name dispatched for a recorded trigger.
const EventMatchFinished = "match/finished"

// DefaultK is the Elo K-factor.
const DefaultK = 32

// Dispatcher hands a recorded trigger to whatever applies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, matchID string) error
}

// Applier applies the rating change of one match.
type Applier interface {
	Apply(ctx context.Context, matchID string) (bool, error)
}

// Trigger is the single entry point that marks a match as rated-pending.
type Trigger struct {
	db         *sql.DB
	dispatcher Dispatcher
	metrics    metrics.Metrics
}

// Updater applies Elo updates to the two teams of a match.
type Updater struct {
	db      *sql.DB
	teams   roster.Store
	matches match.Store
	metrics metrics.Metrics
	k       float64
}

// Processor re-applies triggers that were recorded but never applied.
type Processor struct {
	db      *sql.DB
	applier Applier
}
