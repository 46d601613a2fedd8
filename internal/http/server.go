package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mauv0809/rivalry/internal/engine"
	"github.com/mauv0809/rivalry/internal/pubsub"
	"github.com/mauv0809/rivalry/internal/rating"
	"github.com/mauv0809/rivalry/internal/realtime"
	"github.com/mauv0809/rivalry/internal/session"
)

func NewServer(eng *engine.Engine, sessions *session.Issuer, hub *realtime.Hub, pubsubClient pubsub.PubSubClient, ratings *rating.Processor, metricsHandler http.Handler, inngestHandler http.Handler, internalToken string) *Server {
	server := &Server{
		Engine:         eng,
		Sessions:       sessions,
		Hub:            hub,
		PubSub:         pubsubClient,
		Ratings:        ratings,
		MetricsHandler: metricsHandler,
		Inngest:        inngestHandler,
		InternalToken:  internalToken,
		Router:         http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// Authenticated routes additionally go through s.authMiddleware.
	auth := func(h http.Handler) http.Handler {
		return Chain(h, paramsMiddleware, s.authMiddleware)
	}

	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("POST /pubsub/message-created", Chain(s.MessageCreatedPushHandler(), paramsMiddleware, s.internalMiddleware))
	if s.Inngest != nil {
		s.Router.Handle("/api/inngest", s.Inngest)
	}

	s.Router.Handle("POST /teams", auth(s.CreateTeamHandler()))
	s.Router.Handle("GET /teams/{id}", auth(s.GetTeamHandler()))
	s.Router.Handle("GET /teams/{id}/members", auth(s.ListMembersHandler()))
	s.Router.Handle("POST /teams/{id}/members", auth(s.AddMemberHandler()))
	s.Router.Handle("PUT /teams/{id}/members/{user}/status", auth(s.SetMemberStatusHandler()))
	s.Router.Handle("POST /teams/{id}/captain", auth(s.TransferCaptaincyHandler()))
	s.Router.Handle("GET /teams/{id}/challenges", auth(s.ListChallengesHandler()))

	s.Router.Handle("GET /challenges/check", auth(s.CanSendChallengeHandler()))
	s.Router.Handle("POST /challenges", auth(s.SendChallengeHandler()))
	s.Router.Handle("POST /challenges/{id}/respond", auth(s.RespondChallengeHandler()))
	s.Router.Handle("POST /challenges/{id}/cancel", auth(s.CancelChallengeHandler()))

	s.Router.Handle("GET /matches/{id}", auth(s.LoadMatchHandler()))
	s.Router.Handle("GET /matches/{id}/stream", auth(s.StreamHandler()))
	s.Router.Handle("POST /matches/{id}/messages", auth(s.SendTextHandler()))
	s.Router.Handle("POST /matches/{id}/proposals", auth(s.SendProposalHandler()))
	s.Router.Handle("POST /messages/{id}/respond", auth(s.RespondProposalHandler()))
	s.Router.Handle("PUT /matches/{id}/reservation", auth(s.EditReservationHandler()))
	s.Router.Handle("POST /matches/{id}/cancel", auth(s.CancelMatchHandler()))
	s.Router.Handle("POST /matches/{id}/result", auth(s.SubmitResultHandler()))
	s.Router.Handle("POST /matches/{id}/result/confirm", auth(s.ConfirmResultHandler()))
	s.Router.Handle("PUT /matches/{id}/stats", auth(s.SubmitStatsHandler()))
	s.Router.Handle("POST /matches/{id}/walkover", auth(s.ClaimWalkoverHandler()))

	s.Router.Handle("POST /ratings/process", Chain(s.ProcessRatingsHandler(), paramsMiddleware, s.internalMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
