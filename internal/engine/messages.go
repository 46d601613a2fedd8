package engine

import (
	"context"

	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/negotiation"
	"github.com/mauv0809/rivalry/internal/realtime"
)

func (e *Engine) SendText(ctx context.Context, userID, matchID, actingTeam, content string) (*chat.Message, error) {
	msg, err := e.negotiator.SendText(ctx, userID, matchID, actingTeam, content)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, realtime.Event{Type: realtime.EventMessageCreated, MatchID: matchID, Message: msg})
	return msg, nil
}

func (e *Engine) SendProposal(ctx context.Context, userID, matchID, actingTeam string, offer chat.Offer) (*chat.Message, error) {
	msg, err := e.negotiator.Propose(ctx, userID, matchID, actingTeam, offer)
	if err != nil {
		return nil, e.stale("propose", err)
	}
	e.metrics.IncProposalsSent()
	e.publish(ctx, realtime.Event{Type: realtime.EventMessageCreated, MatchID: matchID, Message: msg})

	e.async(ctx, "proposal_sent", func(ctx context.Context) error {
		m, err := e.matches.Get(ctx, matchID)
		if err != nil {
			return err
		}
		n := e.matchNotice(ctx, m)
		n.Message = msg
		return e.notifier.ProposalSent(ctx, n)
	})
	return msg, nil
}

// RespondProposal accepts, rejects or withdraws a proposal. Callers should
// reload the match afterwards.
func (e *Engine) RespondProposal(ctx context.Context, userID, messageID string, to chat.ProposalStatus, responderZone string) (*negotiation.Outcome, error) {
	out, err := e.negotiator.Respond(ctx, userID, messageID, to, responderZone)
	if err != nil {
		return nil, e.stale("respond_proposal", err)
	}
	e.metrics.IncProposalResponses(string(to))
	e.publish(ctx, realtime.Event{Type: realtime.EventMessageUpdated, MatchID: out.Message.MatchID, Message: out.Message})

	if out.Match != nil {
		e.publishMatch(ctx, out.Match)
		m, msg := out.Match, out.Message
		e.async(ctx, "proposal_accepted", func(ctx context.Context) error {
			n := e.matchNotice(ctx, m)
			n.Message = msg
			return e.notifier.ProposalAccepted(ctx, n)
		})
	}
	return out, nil
}
