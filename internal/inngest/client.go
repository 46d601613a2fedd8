package inngest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/mauv0809/rivalry/internal/rating"
)

var _ rating.Dispatcher = (*client)(nil)

// New wires the rating updater function into the given Inngest client.
func New(inngestClient inngestgo.Client, applier rating.Applier) (InngestClient, error) {
	c := &client{
		inngestClient: inngestClient,
		applier:       applier,
	}
	if _, err := c.createRatingFunction(); err != nil {
		return nil, err
	}
	return c, nil
}

func (i *client) createRatingFunction() (inngestgo.ServableFunction, error) {
	config := inngestgo.FunctionOpts{
		ID:   "rating-updater",
		Name: "Apply rating update",
	}
	f, err := inngestgo.CreateFunction(
		i.inngestClient,
		config,
		inngestgo.EventTrigger(rating.EventMatchFinished, nil),
		func(ctx context.Context, input inngestgo.Input[map[string]any]) (any, error) {
			matchID, err := matchIDFrom(map[string]any{"name": input.Event.Name, "data": input.Event.Data})
			if err != nil {
				return nil, err
			}
			applied, err := step.Run(ctx, "apply-rating", func(ctx context.Context) (bool, error) {
				return i.applier.Apply(ctx, matchID)
			})
			if err != nil {
				return nil, err
			}
			log.Info("Rating function finished", "matchID", matchID, "applied", applied)
			return applied, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rating function: %w", err)
	}
	return f, nil
}

// matchIDFrom reads data.match_id from a raw event.
func matchIDFrom(event map[string]any) (string, error) {
	data, ok := event["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("event has no data")
	}
	matchID, ok := data["match_id"].(string)
	if !ok || matchID == "" {
		return "", fmt.Errorf("event data has no match_id")
	}
	return matchID, nil
}

func (i *client) Serve() http.Handler {
	return i.inngestClient.Serve()
}

func (i *client) Dispatch(ctx context.Context, matchID string) error {
	id, err := i.inngestClient.Send(ctx, inngestgo.Event{
		Name: rating.EventMatchFinished,
		Data: map[string]any{"match_id": matchID},
	})
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", rating.EventMatchFinished, err)
	}
	log.Info("Sent rating event", "matchID", matchID, "eventID", id)
	return nil
}
