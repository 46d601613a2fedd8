package match

import (
	"context"
	"database/sql"
	"time"
)

// Status is the persisted state of a match.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusLive      Status = "LIVE"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
	StatusWalkoverA Status = "WO_A"
	StatusWalkoverB Status = "WO_B"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinished, StatusCancelled, StatusWalkoverA, StatusWalkoverB:
		return true
	}
	return false
}

// Decided reports whether the match has an outcome that moves ratings.
func (s Status) Decided() bool {
	return s == StatusFinished || s == StatusWalkoverA || s == StatusWalkoverB
}

// Active reports whether the match still blocks a new challenge between its teams.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusLive
}

// Negotiable reports whether proposals may still be sent and accepted.
func (s Status) Negotiable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ActiveStatuses blocks new challenges between the same pair of teams.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusLive}

// NonTerminalStatuses may still be claimed as a walkover.
var NonTerminalStatuses = ActiveStatuses

// Phase is the derived, never persisted, lifecycle phase of a match.
type Phase string

const (
	PhasePrevia    Phase = "previa"
	PhaseCheckin   Phase = "checkin"
	PhasePostmatch Phase = "postmatch"
)

// Match is one fixture between two teams.
type Match struct {
	ID                string     `json:"id" msgpack:"id"`
	TeamA             string     `json:"team_a" msgpack:"team_a"`
	TeamB             string     `json:"team_b" msgpack:"team_b"`
	ChallengeID       string     `json:"challenge_id,omitempty" msgpack:"challenge_id"`
	Status            Status     `json:"status" msgpack:"status"`
	ScheduledAt       *time.Time `json:"scheduled_at,omitempty" msgpack:"scheduled_at"`
	IsFriendly        bool       `json:"is_friendly" msgpack:"is_friendly"`
	Venue             string     `json:"venue,omitempty" msgpack:"venue"`
	Modality          string     `json:"modality,omitempty" msgpack:"modality"`
	DurationMinutes   int        `json:"duration_minutes,omitempty" msgpack:"duration_minutes"`
	EvidenceURL       string     `json:"evidence_url,omitempty" msgpack:"evidence_url"`
	WalkoverClaimedBy string     `json:"walkover_claimed_by,omitempty" msgpack:"walkover_claimed_by"`
	CreatedAt         time.Time  `json:"created_at" msgpack:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" msgpack:"updated_at"`
}

// Involves reports whether teamID plays in the match.
func (m *Match) Involves(teamID string) bool {
	return teamID != "" && (m.TeamA == teamID || m.TeamB == teamID)
}

// Opponent returns the other side of teamID.
func (m *Match) Opponent(teamID string) string {
	if m.TeamA == teamID {
		return m.TeamB
	}
	return m.TeamA
}

// Fields are the optional columns written alongside a status transition.
// Nil pointers leave the stored value untouched.
type Fields struct {
	ScheduledAt       *time.Time
	IsFriendly        *bool
	Venue             *string
	Modality          *string
	DurationMinutes   *int
	EvidenceURL       *string
	WalkoverClaimedBy *string
}

// Result is the final score of a finished match.
type Result struct {
	MatchID     string    `json:"match_id"`
	GoalsA      int       `json:"goals_a"`
	GoalsB      int       `json:"goals_b"`
	IsDraw      bool      `json:"is_draw"`
	ConfirmedA  bool      `json:"confirmed_a"`
	ConfirmedB  bool      `json:"confirmed_b"`
	SubmittedBy string    `json:"submitted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlayerStat is one player's line for one match.
type PlayerStat struct {
	MatchID string `json:"match_id"`
	UserID  string `json:"user_id" validate:"required"`
	TeamID  string `json:"team_id"`
	Goals   int    `json:"goals" validate:"min=0"`
	IsMVP   bool   `json:"is_mvp"`
}

type store struct {
	db      *sql.DB
	tx      *sql.Tx
	retry   RetryPolicy
	runInTx txRunner
}

type txRunner func(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error
