package cart

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisRepository keeps one cart in a Redis hash keyed by the namespace
// and session, with the JSON envelope under a single "cart" field.
type RedisRepository struct {
	ctx     context.Context
	client  *redis.Client
	session string
}

const cartField = "cart"

// NewRedisRepository returns a repository bound to one session's cart.
func NewRedisRepository(ctx context.Context, client *redis.Client, session string) *RedisRepository {
	return &RedisRepository{ctx: ctx, client: client, session: session}
}

func (r *RedisRepository) key() string {
	return Namespace + ":" + r.session
}

// Load fetches the persisted cart. A missing key means an empty cart.
func (r *RedisRepository) Load() ([]LineItem, error) {
	val, err := r.client.HGet(r.ctx, r.key(), cartField).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis HGet")
	}
	items, err := unmarshalEnvelope([]byte(val))
	if err != nil {
		return nil, errors.Wrap(err, "decode cart data")
	}
	return items, nil
}

// Save writes the cart envelope back to the hash.
func (r *RedisRepository) Save(items []LineItem) error {
	data, err := marshalEnvelope(items)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := r.client.HSet(r.ctx, r.key(), cartField, data).Err(); err != nil {
		return errors.Wrap(err, "redis HSet")
	}
	return nil
}
