// Package engine is the single entry point the UI and HTTP layers call.
// Every mutation requires an acting user, checks the permission gate and
// is conditioned on stored state; side effects run after the write commits.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/negotiation"
	"github.com/mauv0809/rivalry/internal/notifier"
	"github.com/mauv0809/rivalry/internal/permission"
	"github.com/mauv0809/rivalry/internal/realtime"
	"github.com/mauv0809/rivalry/internal/roster"
)

// RatingTrigger records that a match's outcome is final.
type RatingTrigger interface {
	MatchFinished(ctx context.Context, matchID string) (bool, error)
}

// Deps are the collaborators of an Engine. Notifier, Publisher and Ratings
// may be nil.
type Deps struct {
	Teams       roster.Store
	Challenges  challenge.Store
	Matches     match.Store
	Chat        chat.Store
	Negotiator  negotiation.Negotiator
	Gate        *permission.Gate
	Publisher   realtime.Publisher
	Notifier    notifier.Notifier
	Metrics     metrics.Metrics
	Ratings     RatingTrigger
	DefaultZone *time.Location
	// Now overrides the clock for phase and window checks.
	Now func() time.Time
}

type Engine struct {
	teams       roster.Store
	challenges  challenge.Store
	matches     match.Store
	chat        chat.Store
	negotiator  negotiation.Negotiator
	gate        *permission.Gate
	publisher   realtime.Publisher
	notifier    notifier.Notifier
	metrics     metrics.Metrics
	ratings     RatingTrigger
	defaultZone *time.Location
	now         func() time.Time

	background sync.WaitGroup
}

// TeamView is a team with its roster.
type TeamView struct {
	Team    *roster.Team    `json:"team"`
	Members []roster.Member `json:"members"`
}

// MatchView is everything a match screen needs, read in one call.
type MatchView struct {
	Match         *match.Match       `json:"match"`
	TeamA         TeamView           `json:"team_a"`
	TeamB         TeamView           `json:"team_b"`
	Messages      []chat.Message     `json:"messages"`
	Result        *match.Result      `json:"result,omitempty"`
	PlayerStats   []match.PlayerStat `json:"player_stats"`
	Phase         match.Phase        `json:"phase"`
	CanManage     bool               `json:"can_manage"`
	ManagedTeamID string             `json:"managed_team_id,omitempty"`
}

// Reservation is a manual edit of a confirmed match's details. Date and
// Time are given together or not at all; empty fields are left untouched.
type Reservation struct {
	Date            string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time            string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Timezone        string `json:"timezone,omitempty" validate:"omitempty,timezone"`
	Venue           string `json:"venue,omitempty" validate:"omitempty,max=200"`
	Modality        string `json:"modality,omitempty" validate:"omitempty,max=32"`
	DurationMinutes int    `json:"duration_minutes,omitempty" validate:"omitempty,min=10,max=600"`
	IsFriendly      *bool  `json:"is_friendly,omitempty"`
}

// Walkover is a forfeit claim. The evidence URL is stored as given.
type Walkover struct {
	ClaimingTeam string `json:"claiming_team,omitempty"`
	EvidenceURL  string `json:"evidence_url,omitempty" validate:"omitempty,url"`
}
