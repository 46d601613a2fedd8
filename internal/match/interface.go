package match

import (
	"context"
	"database/sql"
)

// Store owns the canonical match record. Every write is a narrow,
// conditional update; there is no full-document overwrite.
type Store interface {
	Create(ctx context.Context, teamA, teamB, challengeID string) (*Match, error)
	Get(ctx context.Context, matchID string) (*Match, error)
	ListForTeam(ctx context.Context, teamID string) ([]Match, error)
	// ActiveBetween reports whether a PENDING, CONFIRMED or LIVE match exists
	// between the two teams in either order.
	ActiveBetween(ctx context.Context, teamA, teamB string) (bool, error)

	// UpdateStatus moves the match to `to` only if its current status is one
	// of `from`, writing the non-nil Fields alongside. ErrStaleMatch is
	// returned when the stored status no longer matches.
	UpdateStatus(ctx context.Context, matchID string, from []Status, to Status, fields Fields) (*Match, error)

	// SaveResult writes the result row and the FINISHED transition together.
	SaveResult(ctx context.Context, matchID string, goalsA, goalsB int, submittedBy string) (*Result, error)
	GetResult(ctx context.Context, matchID string) (*Result, error)
	ConfirmResult(ctx context.Context, matchID, teamID string) (*Result, error)

	// ReplacePlayerStats swaps one team's stat rows for a match.
	ReplacePlayerStats(ctx context.Context, matchID, teamID string, stats []PlayerStat) error
	PlayerStats(ctx context.Context, matchID string) ([]PlayerStat, error)

	// WithTx returns a Store bound to an open transaction.
	WithTx(tx *sql.Tx) Store
}
