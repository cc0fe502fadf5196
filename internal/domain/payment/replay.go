package payment

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"
)

// ReplayStore is a shared mark of delivered callbacks, typically Redis.
// MarkDelivered records the key and reports whether it was already present.
type ReplayStore interface {
	MarkDelivered(ctx context.Context, key string, ttl time.Duration) (alreadySeen bool, err error)
}

// ReplayGuard suppresses redundant database work during webhook retry
// storms. A local bloom filter prescreens callback keys: a negative answer
// is definite and skips the store roundtrip, a positive one is confirmed
// against the store. The guard is advisory only and fails open; the
// conditional order update remains the idempotency authority.
type ReplayGuard struct {
	store ReplayStore
	ttl   time.Duration
	lg    *zap.Logger

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewReplayGuard creates a guard sized for the expected callback volume
// within one mark TTL.
func NewReplayGuard(store ReplayStore, expected uint, fpRate float64, ttl time.Duration, lg *zap.Logger) *ReplayGuard {
	return &ReplayGuard{
		store:  store,
		ttl:    ttl,
		lg:     lg,
		filter: bloom.NewWithEstimates(expected, fpRate),
	}
}

// Observe records the callback and reports whether it was delivered before.
func (g *ReplayGuard) Observe(ctx context.Context, sessionID, paymentID string) bool {
	key := "callback:" + sessionID + "|" + paymentID

	g.mu.Lock()
	maybeSeen := g.filter.TestAndAddString(key)
	g.mu.Unlock()

	if !maybeSeen {
		// Definitely new to this process: mark the store off the request
		// path so fresh callbacks never wait on it.
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if _, err := g.store.MarkDelivered(ctx, key, g.ttl); err != nil {
				g.lg.Warn("replay mark not recorded", zap.Error(err))
			}
		}()
		return false
	}

	// Bloom positive: could be a false positive or a mark left by another
	// instance, so confirm against the store.
	seen, err := g.store.MarkDelivered(ctx, key, g.ttl)
	if err != nil {
		g.lg.Warn("replay store unavailable, failing open", zap.Error(err))
		return false
	}
	return seen
}
