package mqhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper guards at-least-once MQ delivery: a redelivered event must not
// create a second notification row.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce returns true the first time this (handler, entity, marker)
// combination is seen within the TTL. When redis is unavailable it
// returns true: processing twice beats dropping an event.
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, entityID int, marker string) bool {
	if d.rdb == nil {
		return true
	}

	key := fmt.Sprintf("dedup:%s:%d:%s", handler, entityID, marker)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}
