package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Backend] over a shared Redis instance, for deployments where
// the consumer runs on shared or kiosk hosts and session state must follow
// the installation rather than the machine.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

var _ Backend = (*Redis)(nil)

// NewRedis creates a Redis backend. prefix namespaces all keys so one
// instance can serve multiple installations.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "gs"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation or dependency calls fail.
// Get is safe for concurrent use.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return value, nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation or dependency calls fail.
// Set is safe for concurrent use.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation or dependency calls fail.
// Delete is safe for concurrent use.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
