package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/engine"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/pubsub"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/mauv0809/rivalry/internal/session"
	"github.com/mauv0809/rivalry/internal/validation"
)

// userFrom returns the user the auth middleware put on the request.
func userFrom(r *http.Request) string {
	userID, _ := session.CurrentUserID(r.Context())
	return userID
}

// bind decodes and validates a JSON body.
func bind(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return validation.Struct(v)
}

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) CreateTeamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req engine.NewTeam
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		team, err := s.Engine.CreateTeam(r.Context(), userFrom(r), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, team)
	}
}

func (s *Server) GetTeamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Engine.Team(r.Context(), userFrom(r), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, view)
	}
}

func (s *Server) ListMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Engine.Team(r.Context(), userFrom(r), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, view.Members)
	}
}

func (s *Server) AddMemberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req engine.NewMember
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		member, err := s.Engine.AddMember(r.Context(), userFrom(r), r.PathValue("id"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, member)
	}
}

func (s *Server) SetMemberStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status roster.MemberStatus `json:"status" validate:"required"`
		}
		if err := bind(r, &req); err != nil {
			writeError(w, err)
			return
		}
		view, err := s.Engine.SetMemberStatus(r.Context(), userFrom(r), r.PathValue("id"), r.PathValue("user"), req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, view)
	}
}

func (s *Server) TransferCaptaincyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id" validate:"required"`
		}
		if err := bind(r, &req); err != nil {
			writeError(w, err)
			return
		}
		view, err := s.Engine.TransferCaptaincy(r.Context(), userFrom(r), r.PathValue("id"), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, view)
	}
}

func (s *Server) ListChallengesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		challenges, err := s.Engine.TeamChallenges(r.Context(), userFrom(r), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if challenges == nil {
			challenges = []challenge.Challenge{}
		}
		writeOK(w, http.StatusOK, challenges)
	}
}

func (s *Server) CanSendChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamA, teamB := r.URL.Query().Get("team_a"), r.URL.Query().Get("team_b")
		ok, err := s.Engine.CanSendChallenge(r.Context(), userFrom(r), teamA, teamB)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]bool{"can_send": ok})
	}
}

func (s *Server) SendChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChallengerID string `json:"challenger_id" validate:"required"`
			TargetID     string `json:"target_id" validate:"required"`
		}
		if err := bind(r, &req); err != nil {
			writeError(w, err)
			return
		}
		c, err := s.Engine.SendChallenge(r.Context(), userFrom(r), req.ChallengerID, req.TargetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, c)
	}
}

func (s *Server) RespondChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status challenge.Status `json:"status" validate:"required,oneof=ACCEPTED REJECTED"`
		}
		if err := bind(r, &req); err != nil {
			writeError(w, err)
			return
		}
		c, m, err := s.Engine.RespondChallenge(r.Context(), userFrom(r), r.PathValue("id"), req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, struct {
			Challenge *challenge.Challenge `json:"challenge"`
			Match     *match.Match         `json:"match,omitempty"`
		}{c, m})
	}
}

func (s *Server) CancelChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Engine.CancelChallenge(r.Context(), userFrom(r), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, c)
	}
}

func (s *Server) LoadMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Engine.LoadMatch(r.Context(), userFrom(r), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, view)
	}
}

func (s *Server) SendTextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TeamID  string `json:"team_id"`
			Content string `json:"content" validate:"required,max=2000"`
		}
		if err := bind(r, &req); err != nil {
			writeError(w, err)
			return
		}
		msg, err := s.Engine.SendText(r.Context(), userFrom(r), r.PathValue("id"), req.TeamID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, msg)
	}
}

func (s *Server) SendProposalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TeamID string     `json:"team_id"`
			Offer  chat.Offer `json:"offer"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		msg, err := s.Engine.SendProposal(r.Context(), userFrom(r), r.PathValue("id"), req.TeamID, req.Offer)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, msg)
	}
}

func (s *Server) RespondProposalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status   chat.ProposalStatus `json:"status" validate:"required"`
			Timezone string              `json:"timezone" validate:"omitempty,timezone"`
		}
		if err := bind(r, &req); err != nil {
			writeError(w, err)
			return
		}
		out, err := s.Engine.RespondProposal(r.Context(), userFrom(r), r.PathValue("id"), req.Status, req.Timezone)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, out)
	}
}

func (s *Server) EditReservationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req engine.Reservation
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		m, err := s.Engine.EditReservation(r.Context(), userFrom(r), r.PathValue("id"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, m)
	}
}

func (s *Server) CancelMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.Engine.CancelMatch(r.Context(), userFrom(r), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, m)
	}
}

func (s *Server) SubmitResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GoalsA *int `json:"goals_a" validate:"required,min=0"`
			GoalsB *int `json:"goals_b" validate:"required,min=0"`
		}
		if err := bind(r, &req); err != nil {
			writeError(w, err)
			return
		}
		result, err := s.Engine.SubmitResult(r.Context(), userFrom(r), r.PathValue("id"), *req.GoalsA, *req.GoalsB)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, result)
	}
}

func (s *Server) ConfirmResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.Engine.ConfirmResult(r.Context(), userFrom(r), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, result)
	}
}

func (s *Server) SubmitStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TeamID string             `json:"team_id"`
			Stats  []match.PlayerStat `json:"stats"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		stats, err := s.Engine.SubmitPlayerStats(r.Context(), userFrom(r), r.PathValue("id"), req.TeamID, req.Stats)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, stats)
	}
}

func (s *Server) ClaimWalkoverHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req engine.Walkover
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		m, err := s.Engine.ClaimWalkover(r.Context(), userFrom(r), r.PathValue("id"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, m)
	}
}

// MessageCreatedPushHandler receives Pub/Sub push deliveries and re-delivers
// them to this instance's subscribers.
func (s *Server) MessageCreatedPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.PubSub == nil {
			http.Error(w, "Pub/Sub is not configured", http.StatusServiceUnavailable)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		raw, err := pubsub.DecodePush(body)
		if err != nil {
			log.Error("Failed to decode push message", "error", err)
			http.Error(w, "Invalid push message", http.StatusBadRequest)
			return
		}
		env, err := s.Hub.Relay(r.Context(), s.PubSub, raw)
		if err != nil {
			log.Error("Failed to relay realtime event", "error", err)
			http.Error(w, "Invalid realtime event", http.StatusBadRequest)
			return
		}
		log.Debug("Relayed realtime event", "topic", env.Topic, "type", env.Event.Type)
		w.Write([]byte("OK"))
	}
}

func (s *Server) ProcessRatingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied, err := s.Ratings.ProcessPending(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]int{"applied": applied})
	}
}
