package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const (
	cartKeyPrefix    = "cart:"
	maxUpdateRetries = 32
)

// redisCmdable is the part of *redis.Client the repository relies on.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// RedisCartRepository stores each cart as a JSON snapshot under cart:<id>.
// Every save refreshes the key TTL; a zero TTL keeps keys forever.
// Update uses WATCH/MULTI and retries when another writer got in first.
type RedisCartRepository struct {
	client redisCmdable
	ttl    time.Duration
}

func NewRedisCartRepository(client redisCmdable, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func cartKey(id string) string {
	return cartKeyPrefix + id
}

func (r *RedisCartRepository) Fetch(ctx context.Context, id string) (*models.Cart, error) {
	raw, err := r.client.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cartNotFound(id)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return decodeCart(raw)
}

func (r *RedisCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	payload, err := json.Marshal(cart.Snapshot())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(cart.ID()), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cart: %w", err)
	}
	return nil
}

func (r *RedisCartRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, cartKey(id)).Result()
	if err != nil {
		return fmt.Errorf("del cart: %w", err)
	}
	if n == 0 {
		return cartNotFound(id)
	}
	return nil
}

func (r *RedisCartRepository) Update(ctx context.Context, id string, fn func(*models.Cart) error) (*models.Cart, error) {
	key := cartKey(id)

	var updated *models.Cart
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return cartNotFound(id)
			}
			return fmt.Errorf("get cart: %w", err)
		}
		cart, err := decodeCart(raw)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		payload, err := json.Marshal(cart.Snapshot())
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = cart
		return nil
	}

	backoff := retry.WithMaxRetries(maxUpdateRetries, retry.WithJitter(2*time.Millisecond, retry.NewConstant(time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func decodeCart(raw []byte) (*models.Cart, error) {
	var snap models.CartSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return models.RestoreCart(snap)
}
