package dispatch

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Limiter keys. Engagement categories carry their own hourly budget; every
// other category shares the generic API budget.
const (
	limiterLikes    = "likes"
	limiterFollows  = "follows"
	limiterComments = "comments"
	limiterAPI      = "api"
)

// limiterKey maps a task category onto its rate budget.
func limiterKey(category types.TaskCategory) string {
	switch category {
	case types.TaskEngagementLike:
		return limiterLikes
	case types.TaskEngagementFollow:
		return limiterFollows
	case types.TaskEngagementComment:
		return limiterComments
	default:
		return limiterAPI
	}
}

// limiterPool lazily creates one rate.Limiter per budget key. Limiters are
// shared across users so the whole system, not each user, stays inside the
// configured action budgets.
type limiterPool struct {
	cfg config.DispatchConfig

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func newLimiterPool(cfg config.DispatchConfig) *limiterPool {
	return &limiterPool{
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// get returns the limiter for key, creating it on first use.
func (p *limiterPool) get(key string) *rate.Limiter {
	// Fast path: read lock.
	p.mu.RLock()
	limiter, ok := p.limiters[key]
	p.mu.RUnlock()
	if ok {
		return limiter
	}

	// Slow path: write lock.
	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check in case another goroutine created it.
	if limiter, ok = p.limiters[key]; ok {
		return limiter
	}

	limiter = newLimiter(p.budgetFor(key))
	p.limiters[key] = limiter
	return limiter
}

// budgetFor returns the per-window request budget for the key.
func (p *limiterPool) budgetFor(key string) (int, time.Duration) {
	switch key {
	case limiterLikes:
		return p.cfg.LikesPerHour, time.Hour
	case limiterFollows:
		return p.cfg.FollowsPerHour, time.Hour
	case limiterComments:
		return p.cfg.CommentsPerHour, time.Hour
	default:
		return p.cfg.APIPerMinute, time.Minute
	}
}

// newLimiter converts a per-window budget into a token bucket whose burst is
// the full window allowance.
func newLimiter(requests int, window time.Duration) *rate.Limiter {
	if requests <= 0 {
		requests = 1
	}
	perSecond := float64(requests) / window.Seconds()
	return rate.NewLimiter(rate.Limit(perSecond), requests)
}
