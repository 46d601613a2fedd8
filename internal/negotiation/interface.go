package negotiation

import (
	"context"

	"github.com/mauv0809/rivalry/internal/chat"
)

// Negotiator runs the proposal handshake embedded in a match's chat log.
type Negotiator interface {
	// Propose appends a SENT proposal on behalf of actingTeam. An empty
	// actingTeam resolves to the side the user manages.
	Propose(ctx context.Context, userID, matchID, actingTeam string, offer chat.Offer) (*chat.Message, error)
	// SendText appends a plain chat line on behalf of actingTeam.
	SendText(ctx context.Context, userID, matchID, actingTeam, content string) (*chat.Message, error)
	// Respond accepts, rejects or withdraws a proposal. responderZone is the
	// IANA zone of the acting device, used when the offer carries none.
	Respond(ctx context.Context, userID, messageID string, to chat.ProposalStatus, responderZone string) (*Outcome, error)
}
