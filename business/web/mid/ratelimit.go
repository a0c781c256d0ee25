package mid

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/siertrichain/blockchain/business/web/errs"
	"github.com/siertrichain/blockchain/foundation/web"
)

// ErrRateLimited is returned when a request arrives faster than allowed.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit refuses requests beyond the given rate with a 429. A rate of zero
// disables the limiter.
func RateLimit(perSecond float64, burst int) web.Middleware {
	if perSecond <= 0 {
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !limiter.Allow() {
				return errs.NewTrusted(ErrRateLimited, http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
