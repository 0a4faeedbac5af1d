package dbs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPort = 6379

// RedisOptions configures a Redis wrapper. Addr wins over Host/Port when set.
type RedisOptions struct {
	Addr     string `mapstructure:"addr" validate:"required_without=Host"`
	Host     string `mapstructure:"host" validate:"required_without=Addr"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// Address returns host:port for the client.
func (o RedisOptions) Address() string {
	if o.Addr != "" {
		return o.Addr
	}
	port := o.Port
	if port <= 0 {
		port = defaultRedisPort
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

// RedisDB wraps a go-redis client with string get/set.
type RedisDB struct {
	name   string
	client *redis.Client
}

// NewRedis builds a Redis wrapper. No connection is made until the first command.
func NewRedis(name string, opts RedisOptions) *RedisDB {
	return &RedisDB{
		name: name,
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Address(),
			Username: opts.User,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// Get returns the value at key; ok is false when the key does not exist.
func (r *RedisDB) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s get %q: %w", r.name, key, err)
	}
	return val, true, nil
}

// Set stores value at key. A zero ttl keeps the key forever.
func (r *RedisDB) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s set %q: %w", r.name, key, err)
	}
	return nil
}

// Delete removes key and reports whether it existed.
func (r *RedisDB) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%s delete %q: %w", r.name, key, err)
	}
	return n > 0, nil
}

// Ping checks the server is reachable.
func (r *RedisDB) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s ping: %w", r.name, err)
	}
	return nil
}

// Close closes the client pool.
func (r *RedisDB) Close() error { return r.client.Close() }
