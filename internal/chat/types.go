package chat

import (
	"database/sql"
	"time"

	"github.com/mauv0809/rivalry/internal/failure"
)

// Kind discriminates the rows of the match message log.
type Kind string

const (
	KindText     Kind = "TEXT"
	KindProposal Kind = "PROPOSAL"
)

// ProposalStatus is the sub-state of a proposal row.
type ProposalStatus string

const (
	ProposalSent      ProposalStatus = "SENT"
	ProposalAccepted  ProposalStatus = "ACCEPTED"
	ProposalRejected  ProposalStatus = "REJECTED"
	ProposalCancelled ProposalStatus = "CANCELLED"
)

// Offer is the payload of a proposal. Date and Time stay calendar-local
// strings until the proposal is accepted.
type Offer struct {
	Date            string `json:"date" msgpack:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" msgpack:"time" validate:"required,datetime=15:04"`
	Timezone        string `json:"timezone,omitempty" msgpack:"timezone" validate:"omitempty,timezone"`
	Modality        string `json:"modality,omitempty" msgpack:"modality" validate:"omitempty,max=32"`
	DurationMinutes int    `json:"duration_minutes,omitempty" msgpack:"duration_minutes" validate:"omitempty,min=10,max=600"`
	IsFriendly      *bool  `json:"is_friendly,omitempty" msgpack:"is_friendly"`
	Venue           string `json:"venue,omitempty" msgpack:"venue" validate:"omitempty,max=200"`
}

// Proposal is present on a Message iff its kind is PROPOSAL.
type Proposal struct {
	Offer       Offer          `json:"offer" msgpack:"offer"`
	Status      ProposalStatus `json:"status" msgpack:"status"`
	RespondedBy string         `json:"responded_by,omitempty" msgpack:"responded_by"`
	RespondedAt *time.Time     `json:"responded_at,omitempty" msgpack:"responded_at"`
}

// Message is one row of a match's append-only log.
type Message struct {
	ID           string    `json:"id" msgpack:"id"`
	MatchID      string    `json:"match_id" msgpack:"match_id"`
	SenderTeamID string    `json:"sender_team_id" msgpack:"sender_team_id"`
	SenderUserID string    `json:"sender_user_id" msgpack:"sender_user_id"`
	Kind         Kind      `json:"type" msgpack:"type"`
	Content      string    `json:"content" msgpack:"content"`
	Proposal     *Proposal `json:"proposal,omitempty" msgpack:"proposal"`
	CreatedAt    time.Time `json:"created_at" msgpack:"created_at"`
}

var ErrMalformed = failure.Precondition("message kind and payload do not match")

// NewText builds a TEXT message.
func NewText(matchID, teamID, userID, content string) *Message {
	return &Message{
		MatchID:      matchID,
		SenderTeamID: teamID,
		SenderUserID: userID,
		Kind:         KindText,
		Content:      content,
	}
}

// NewProposal builds a PROPOSAL message in the SENT state.
func NewProposal(matchID, teamID, userID string, offer Offer) *Message {
	return &Message{
		MatchID:      matchID,
		SenderTeamID: teamID,
		SenderUserID: userID,
		Kind:         KindProposal,
		Content:      offer.Summary(),
		Proposal:     &Proposal{Offer: offer, Status: ProposalSent},
	}
}

// Validate enforces that proposal data is present iff the kind is PROPOSAL.
func (m *Message) Validate() error {
	switch m.Kind {
	case KindText:
		if m.Proposal != nil {
			return ErrMalformed
		}
	case KindProposal:
		if m.Proposal == nil || m.Proposal.Status == "" {
			return ErrMalformed
		}
	default:
		return ErrMalformed
	}
	return nil
}

// IsOpenProposal reports whether the message is a proposal still awaiting an answer.
func (m *Message) IsOpenProposal() bool {
	return m.Kind == KindProposal && m.Proposal != nil && m.Proposal.Status == ProposalSent
}

// Summary renders the offer for chat previews and notifications.
func (o Offer) Summary() string {
	s := o.Date + " " + o.Time
	if o.Venue != "" {
		s += " @ " + o.Venue
	}
	if o.Modality != "" {
		s += " (" + o.Modality + ")"
	}
	return s
}

type store struct {
	db *sql.DB
	tx *sql.Tx
}
