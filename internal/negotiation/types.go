package negotiation

import (
	"database/sql"
	"time"

	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/permission"
)

// Outcome is the state after a successful response. Match is only set when
// the proposal was accepted.
type Outcome struct {
	Message *chat.Message `json:"message"`
	Match   *match.Match  `json:"match,omitempty"`
}

// Service implements Negotiator on top of the match and chat stores.
type Service struct {
	db         *sql.DB
	matches    match.Store
	chat       chat.Store
	gate       *permission.Gate
	defaultLoc *time.Location
}
