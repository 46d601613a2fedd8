package inngest

import (
	"github.com/inngest/inngestgo"
	"github.com/mauv0809/rivalry/internal/rating"
)

type client struct {
	inngestClient inngestgo.Client
	applier       rating.Applier
}

// MatchFinishedData is the payload of a rating trigger event.
type MatchFinishedData struct {
	MatchID string `json:"match_id"`
}
