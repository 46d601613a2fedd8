package challenge

import (
	"context"

	"github.com/mauv0809/rivalry/internal/match"
)

// Store is the challenge gate between two teams.
type Store interface {
	// CanSend is true only when neither a PENDING challenge nor an active
	// match exists between the pair.
	CanSend(ctx context.Context, teamA, teamB string) (bool, error)
	// Send opens a challenge, reactivating a previous row for the pair when
	// there is one.
	Send(ctx context.Context, challengerID, targetID string) (*Challenge, error)
	// Respond accepts or rejects a PENDING challenge. Accepting creates the
	// PENDING match in the same transaction.
	Respond(ctx context.Context, challengeID string, status Status) (*Challenge, *match.Match, error)
	Cancel(ctx context.Context, challengeID string) (*Challenge, error)
	Get(ctx context.Context, challengeID string) (*Challenge, error)
	ListForTeam(ctx context.Context, teamID string) ([]Challenge, error)
}
