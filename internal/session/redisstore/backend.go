// Package redisstore persists console session slots in Redis.
package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Backend stores session slots as plain string keys under a prefix.
type Backend struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Backend using client. Keys are written as "<prefix>:<slot>".
func New(client redis.UniversalClient, prefix string) *Backend {
	return &Backend{client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

func (b *Backend) key(slot string) string {
	if b.prefix == "" {
		return slot
	}
	return b.prefix + ":" + slot
}

// Ping checks connectivity to Redis.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// ReadSlots fetches every slot with a single MGET so the values form one
// consistent snapshot.
func (b *Backend) ReadSlots(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}

	vals, err := b.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// WriteSlots sets every slot inside a MULTI/EXEC transaction.
func (b *Backend) WriteSlots(ctx context.Context, slots map[string]string) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range slots {
			pipe.Set(ctx, b.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write slots: %w", err)
	}
	return nil
}

// DeleteSlots removes every slot with a single DEL.
func (b *Backend) DeleteSlots(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
