package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mauv0809/rivalry/internal/engine"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/pubsub"
	"github.com/mauv0809/rivalry/internal/rating"
	"github.com/mauv0809/rivalry/internal/realtime"
	"github.com/mauv0809/rivalry/internal/session"
)

type Server struct {
	Engine         *engine.Engine
	Sessions       *session.Issuer
	Hub            *realtime.Hub
	PubSub         pubsub.PubSubClient
	Ratings        *rating.Processor
	MetricsHandler http.Handler
	// Inngest serves the durable rating function. Nil when not configured.
	Inngest http.Handler

	// InternalToken guards the endpoints called by Pub/Sub and schedulers.
	// They are refused when it is empty.
	InternalToken string

	Router   *http.ServeMux
	upgrader websocket.Upgrader
}

// Response is the JSON envelope of every API reply.
type Response struct {
	OK     bool         `json:"ok"`
	Data   any          `json:"data,omitempty"`
	Kind   failure.Kind `json:"kind,omitempty"`
	Reason string       `json:"reason,omitempty"`
}
