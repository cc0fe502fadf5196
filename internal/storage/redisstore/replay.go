// Package redisstore implements the payment replay store on Redis.
package redisstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/velmart/checkout-core/internal/domain/payment"
)

var _ payment.ReplayStore = (*ReplayStore)(nil)

const keyPrefix = "checkout:replay:"

// ReplayStore records delivered payment callbacks via SET NX with a TTL.
type ReplayStore struct {
	client *redis.Client
}

// NewReplayStore returns a ReplayStore using the given client.
func NewReplayStore(client *redis.Client) *ReplayStore {
	return &ReplayStore{client: client}
}

// MarkDelivered sets the callback mark and reports whether it already
// existed. SET NX makes the mark-and-check a single round trip.
func (s *ReplayStore) MarkDelivered(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := s.client.SetNX(ctx, keyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "set replay mark")
	}
	return !set, nil
}
