package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/beacon/internal/core/lease"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// LeaseStore implements lease.Storage and lease.Watcher. Every claim and
// release is announced on "<key>:changes"; Watch also fires every nudge
// interval so a holder that died without releasing is noticed once its
// TTL lapses.
type LeaseStore struct {
	client *redis.Client
	nudge  time.Duration
}

var (
	_ lease.Storage = (*LeaseStore)(nil)
	_ lease.Watcher = (*LeaseStore)(nil)
)

// NewLeaseStore wraps client. A non-positive nudge defaults to 5s.
func NewLeaseStore(client *redis.Client, nudge time.Duration) *LeaseStore {
	if nudge <= 0 {
		nudge = 5 * time.Second
	}
	return &LeaseStore{client: client, nudge: nudge}
}

func changesChannel(key string) string { return key + ":changes" }

func (s *LeaseStore) announce(ctx context.Context, key, holder string) {
	if err := s.client.Publish(ctx, changesChannel(key), holder).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("publish lease change")
	}
}

func (s *LeaseStore) Claim(ctx context.Context, key, holder string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, holder, ttl).Err(); err != nil {
		return fmt.Errorf("claim %q: %w", key, err)
	}
	s.announce(ctx, key, holder)
	return nil
}

func (s *LeaseStore) ClaimIfAbsent(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %q if absent: %w", key, err)
	}
	if ok {
		s.announce(ctx, key, holder)
	}
	return ok, nil
}

func (s *LeaseStore) Renew(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	n, err := renewScript.Run(ctx, s.client, []string{key}, holder, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("renew %q: %w", key, err)
	}
	return n == 1, nil
}

func (s *LeaseStore) Holder(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return v, nil
}

func (s *LeaseStore) ReleaseIf(ctx context.Context, key, holder string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, []string{key}, holder).Int64()
	if err != nil {
		return false, fmt.Errorf("release %q: %w", key, err)
	}
	if n == 1 {
		s.announce(ctx, key, "")
	}
	return n == 1, nil
}

// Watch subscribes to the change channel. The returned channel is closed
// when ctx ends.
func (s *LeaseStore) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	pubsub := s.client.Subscribe(ctx, changesChannel(key))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %q: %w", changesChannel(key), err)
	}

	out := make(chan struct{}, 1)
	notify := func() {
		select {
		case out <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		ticker := time.NewTicker(s.nudge)
		defer ticker.Stop()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				notify()
			case <-ticker.C:
				notify()
			}
		}
	}()

	return out, nil
}
