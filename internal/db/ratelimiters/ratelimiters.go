package ratelimiters

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v9"

	"HomelyBridge/internal/db"
)

// limits
const (
	flowRequestLimitPerMinute = 10
	// minimum time between two /home polls of the same location,
	// the Homely API throttles anything more frequent
	homePollMinInterval = 10 * time.Second
)

// limit key prefixes
const (
	flowRequestKeyPrefix = "r:f"
	homePollKeyPrefix    = "r:h"
)

// FlowRequestAllowed checks if an incoming setup flow request from the given IP address is allowed to get processed
func FlowRequestAllowed(ctx context.Context, IP string) bool {
	key := fmt.Sprintf("%s:%s", flowRequestKeyPrefix, IP)
	res, err := db.RateLimiter.Allow(ctx, key, redis_rate.PerMinute(flowRequestLimitPerMinute))
	if err != nil {
		return false
	}
	return res.Allowed != 0
}

// HomePollAllowed checks if the location with the given ID may be polled again
func HomePollAllowed(ctx context.Context, locationID string) bool {
	key := fmt.Sprintf("%s:%s", homePollKeyPrefix, locationID)
	res, err := db.RateLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   1,
		Burst:  1,
		Period: homePollMinInterval,
	})
	if err != nil {
		return false
	}
	return res.Allowed != 0
}
