package chat

import (
	"context"
	"database/sql"
)

// Store is the append-only match message log.
type Store interface {
	// Append assigns an id and timestamp and inserts the message.
	Append(ctx context.Context, msg *Message) error
	Get(ctx context.Context, messageID string) (*Message, error)
	// List returns a match's messages newest first.
	List(ctx context.Context, matchID string) ([]Message, error)
	// TransitionProposal moves a SENT proposal to `to`. Only the first
	// transition away from SENT succeeds; later callers get ErrStaleProposal.
	TransitionProposal(ctx context.Context, messageID string, to ProposalStatus, by string) (*Message, error)
	// WithTx returns a Store bound to an open transaction.
	WithTx(tx *sql.Tx) Store
}
