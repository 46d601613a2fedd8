package inngest

import (
	"context"
	"net/http"
)

// InngestClient dispatches rating triggers as durable events and serves
// the functions that consume them.
type InngestClient interface {
	Serve() http.Handler
	Dispatch(ctx context.Context, matchID string) error
}
