package middleware

import (
	"fmt"
	"net/http"

	"github.com/lembrabot/lembrabot/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRateLimitPerMin caps requests per client IP per minute.
const DefaultRateLimitPerMin = 60

// RateLimit returns middleware backed by ulule/limiter with a Redis
// store, keyed on request.ClientIP.
func RateLimit(redisClient *redis.Client, requestsPerMinute int) (func(http.Handler) http.Handler, error) {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimitPerMin
	}

	rate, err := limiter.NewRateFromFormatted(fmt.Sprintf("%d-M", requestsPerMinute))
	if err != nil {
		return nil, fmt.Errorf("failed to build rate: %w", err)
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter store: %w", err)
	}

	instance := limiter.New(store, rate)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}
