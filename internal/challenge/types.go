package challenge

import (
	"database/sql"
	"time"

	"github.com/mauv0809/rivalry/internal/match"
)

// Status is the state of a challenge between two teams.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Challenge is one team's invitation to another to start negotiating a match.
type Challenge struct {
	ID           string    `json:"id"`
	ChallengerID string    `json:"challenger_id"`
	TargetID     string    `json:"target_id"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type store struct {
	db      *sql.DB
	matches match.Store
}

// pair orders two team ids so the unordered pair has one key.
func pair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
