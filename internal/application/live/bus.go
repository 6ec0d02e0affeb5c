package live

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by Subscribe when no Redis client is configured.
var ErrDisabled = errors.New("live updates disabled")

const channelPrefix = "live:"

// Bus is the observer side of live queries. Repositories publish a
// table-level change event after every committed write; subscribers get a
// notification per change and re-run their query for a fresh snapshot.
// The contract is push-on-matching-write with eventual consistency — no
// payload travels on the bus, only the fact that the table changed.
type Bus struct {
	Rdb *redis.Client
}

// Publish signals that rows in channel's table changed. A nil bus or nil
// client is a no-op so tests and Redis-less deploys still work.
func (b *Bus) Publish(ctx context.Context, channel string) error {
	if b == nil || b.Rdb == nil {
		return nil
	}
	return b.Rdb.Publish(ctx, channelPrefix+channel, "1").Err()
}

// Subscribe returns a stream of change notifications for one table.
// Notifications coalesce: a subscriber that is mid-query when several
// writes land sees one pending notification, which is enough because each
// notification triggers a full re-query. The subscription is released by
// cancelling ctx.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan struct{}, error) {
	if b == nil || b.Rdb == nil {
		return nil, ErrDisabled
	}
	sub := b.Rdb.Subscribe(ctx, channelPrefix+channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default: // already pending, coalesce
				}
			}
		}
	}()
	return out, nil
}
