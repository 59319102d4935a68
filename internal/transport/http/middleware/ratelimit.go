package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lenlo121500/auth-system/internal/metrics"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Per-route budgets, keyed by client IP. Enforced before the lifecycle
// service is ever invoked.
var (
	SignupRate         = limiter.Rate{Period: time.Hour, Limit: 5}
	LoginRate          = limiter.Rate{Period: 15 * time.Minute, Limit: 10}
	VerifyRate         = limiter.Rate{Period: time.Hour, Limit: 5}
	ForgotPasswordRate = limiter.Rate{Period: time.Hour, Limit: 5}
	GlobalRate         = limiter.Rate{Period: time.Hour, Limit: 100}
)

// RateLimit returns a gin middleware enforcing rate for one route, backed by
// an in-memory sliding-window store.
func RateLimit(route string, rate limiter.Rate) gin.HandlerFunc {
	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			metrics.RateLimitedTotal.WithLabelValues(route).Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
		}),
	)
}
