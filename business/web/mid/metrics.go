package mid

import (
	"context"
	"net/http"

	"github.com/siertrichain/blockchain/foundation/metrics"
	"github.com/siertrichain/blockchain/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			metrics.Requests.Inc()
			if err != nil {
				metrics.Errors.Inc()
			}

			return err
		}

		return h
	}

	return m
}
