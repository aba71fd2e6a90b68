package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// ModificationGuard records which orders have already been modified.
type ModificationGuard struct {
	rdb *redis.Client
}

func NewModificationGuard(rdb *redis.Client) *ModificationGuard {
	return &ModificationGuard{rdb: rdb}
}

func modificationKey(storeID, orderID int64) string {
	return fmt.Sprintf("order-modified:%d:%d", storeID, orderID)
}

// Claim marks the order as modified. It returns false if it already was.
func (g *ModificationGuard) Claim(ctx context.Context, storeID, orderID int64) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, modificationKey(storeID, orderID), time.Now().UTC().Format(time.RFC3339), 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release undoes a Claim whose modification could not be recorded.
func (g *ModificationGuard) Release(ctx context.Context, storeID, orderID int64) error {
	return g.rdb.Del(ctx, modificationKey(storeID, orderID)).Err()
}
