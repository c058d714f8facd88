package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/siherrmann/geobench/helper"
)

// DefaultPrefix namespaces the keys written by geobench
const DefaultPrefix = "geobench:"

// Redis is a Cache shared between runs and machines
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a Redis cache
type RedisOption func(*Redis)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithTTL expires entries after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// NewRedis connects to the Redis server at url (redis://host:port/db)
func NewRedis(ctx context.Context, url string, opts ...RedisOption) (*Redis, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, helper.NewError("parse redis url", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, helper.NewError("redis ping", err)
	}

	return NewRedisWithClient(client, opts...), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Get returns the value for key and whether it was present
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, helper.NewError("redis get", err)
	}
	return value, true, nil
}

// Put stores value under key
func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return helper.NewError("redis set", err)
	}
	return nil
}

// Close closes the connection
func (r *Redis) Close() error {
	return r.client.Close()
}
