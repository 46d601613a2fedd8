package negotiation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/permission"
	"github.com/mauv0809/rivalry/internal/session"
	"github.com/mauv0809/rivalry/internal/validation"
)

var (
	ErrNotManager    = failure.Permission("only an active captain or sub-captain of the team can do this")
	ErrWrongSide     = failure.Permission("only the team that received the proposal can accept or reject it")
	ErrNotSender     = failure.Permission("only the team that sent the proposal can withdraw it")
	ErrNotNegotiable = failure.Stale("match is no longer open for negotiation")
	ErrUnknownZone   = failure.Precondition("unknown time zone")
)

var _ Negotiator = (*Service)(nil)

// New creates a negotiation Service. defaultLoc is used to compose the
// kick-off instant when neither the offer nor the responder names a zone.
func New(db *sql.DB, matches match.Store, messages chat.Store, gate *permission.Gate, defaultLoc *time.Location) *Service {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Service{
		db:         db,
		matches:    matches,
		chat:       messages,
		gate:       gate,
		defaultLoc: defaultLoc,
	}
}

// actingSide returns the team the user acts for in m.
func (s *Service) actingSide(ctx context.Context, userID string, m *match.Match, actingTeam string) (string, error) {
	if actingTeam == "" {
		team, ok, err := s.gate.ManagedSide(ctx, userID, m)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNotManager
		}
		return team, nil
	}
	if !m.Involves(actingTeam) {
		return "", match.ErrNotParticipant
	}
	ok, err := s.gate.ManagesTeam(ctx, userID, actingTeam)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotManager
	}
	return actingTeam, nil
}

func (s *Service) Propose(ctx context.Context, userID, matchID, actingTeam string, offer chat.Offer) (*chat.Message, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	if err := validation.Struct(offer); err != nil {
		return nil, err
	}

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.Status.Negotiable() {
		return nil, ErrNotNegotiable
	}
	team, err := s.actingSide(ctx, userID, m, actingTeam)
	if err != nil {
		return nil, err
	}

	msg := chat.NewProposal(matchID, team, userID, offer)
	if err := s.chat.Append(ctx, msg); err != nil {
		return nil, err
	}
	log.Info("Proposal sent", "matchID", matchID, "messageID", msg.ID, "team", team, "offer", msg.Content)
	return msg, nil
}

func (s *Service) SendText(ctx context.Context, userID, matchID, actingTeam, content string) (*chat.Message, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, chat.ErrEmptyTextMessage
	}

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	team, err := s.actingSide(ctx, userID, m, actingTeam)
	if err != nil {
		return nil, err
	}

	msg := chat.NewText(matchID, team, userID, content)
	if err := s.chat.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) Respond(ctx context.Context, userID, messageID string, to chat.ProposalStatus, responderZone string) (*Outcome, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	switch to {
	case chat.ProposalAccepted, chat.ProposalRejected, chat.ProposalCancelled:
	default:
		return nil, chat.ErrInvalidResponse
	}

	msg, err := s.chat.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Kind != chat.KindProposal {
		return nil, chat.ErrNotAProposal
	}
	m, err := s.matches.Get(ctx, msg.MatchID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeResponse(ctx, userID, m, msg, to); err != nil {
		return nil, err
	}
	if !msg.IsOpenProposal() {
		return nil, chat.ErrStaleProposal
	}

	if to != chat.ProposalAccepted {
		updated, err := s.chat.TransitionProposal(ctx, messageID, to, userID)
		if err != nil {
			return nil, err
		}
		return &Outcome{Message: updated}, nil
	}
	return s.accept(ctx, userID, m, msg, responderZone)
}

// authorizeResponse lets the receiving side accept or reject, and the
// sending side withdraw.
func (s *Service) authorizeResponse(ctx context.Context, userID string, m *match.Match, msg *chat.Message, to chat.ProposalStatus) error {
	if to == chat.ProposalCancelled {
		ok, err := s.gate.ManagesTeam(ctx, userID, msg.SenderTeamID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotSender
		}
		return nil
	}
	ok, err := s.gate.ManagesTeam(ctx, userID, m.Opponent(msg.SenderTeamID))
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongSide
	}
	return nil
}

// accept marks the proposal ACCEPTED and confirms the match in one
// transaction. Either write failing rolls back both.
func (s *Service) accept(ctx context.Context, userID string, m *match.Match, msg *chat.Message, responderZone string) (*Outcome, error) {
	if !m.Status.Negotiable() {
		return nil, ErrNotNegotiable
	}
	offer := msg.Proposal.Offer
	loc, err := s.location(offer.Timezone, responderZone)
	if err != nil {
		return nil, err
	}
	kickoff, err := match.ComposeLocal(offer.Date, offer.Time, loc)
	if err != nil {
		return nil, err
	}
	fields := offerFields(offer, kickoff)

	out := &Outcome{}
	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		updated, err := s.chat.WithTx(tx).TransitionProposal(ctx, msg.ID, chat.ProposalAccepted, userID)
		if err != nil {
			return err
		}
		confirmed, err := s.matches.WithTx(tx).UpdateStatus(ctx, m.ID,
			[]match.Status{match.StatusPending, match.StatusConfirmed}, match.StatusConfirmed, fields)
		if err != nil {
			if errors.Is(err, match.ErrStaleMatch) {
				return ErrNotNegotiable
			}
			return err
		}
		out.Message = updated
		out.Match = confirmed
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Proposal accepted", "matchID", m.ID, "messageID", msg.ID, "scheduled_at", kickoff.UTC(), "zone", loc.String())
	return out, nil
}

// location picks the offer's zone, then the responder's, then the default.
func (s *Service) location(offerZone, responderZone string) (*time.Location, error) {
	zone := offerZone
	if zone == "" {
		zone = responderZone
	}
	if zone == "" {
		return s.defaultLoc, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		log.Debug("Rejecting unknown zone", "zone", zone, "error", err)
		return nil, ErrUnknownZone
	}
	return loc, nil
}

func offerFields(offer chat.Offer, kickoff time.Time) match.Fields {
	f := match.Fields{
		ScheduledAt: &kickoff,
		IsFriendly:  offer.IsFriendly,
	}
	if offer.Venue != "" {
		f.Venue = &offer.Venue
	}
	if offer.Modality != "" {
		f.Modality = &offer.Modality
	}
	if offer.DurationMinutes > 0 {
		f.DurationMinutes = &offer.DurationMinutes
	}
	return f
}
