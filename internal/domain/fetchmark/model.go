package fetchmark

import (
	"context"
	"time"
)

// Marker keys, one per pipeline.
const (
	KeyBaseRefresh = "base_refresh"
	KeyLiveRefresh = "live_refresh"
)

// Marker records when a named fetch pipeline last completed. It rate-limits
// repeated runs inside the cooldown window; it is a throttle, not a lock.
type Marker struct {
	Key         string
	LastFetched time.Time
}

type Repository interface {
	Get(ctx context.Context, key string) (Marker, bool, error)
	Touch(ctx context.Context, key string, at time.Time) error
}
