// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/webuzz/internal/config"
)

const (
	redisTracer      = "github.com/carterperez-dev/webuzz/redis"
	redisPoolTimeout = 30 * time.Second
	redisIdleTime    = 5 * time.Minute
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = redisPoolTimeout
	opts.ConnMaxIdleTime = redisIdleTime

	client := redis.NewClient(opts)
	client.AddHook(tracingHook{})

	r := &Redis{Client: client}
	if err := r.Ping(ctx); err != nil {
		_ = client.Close() //nolint:errcheck // cleanup on connection failure
		return nil, err
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

// RedisKey joins a namespace and its parts with colons.
func RedisKey(namespace string, parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}

// tracingHook opens a span per command or pipeline. redis.Nil is a cache
// miss, not a failure.
type tracingHook struct{}

func (tracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (tracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := StartSpan(ctx, redisTracer, "redis."+cmd.Name(),
			attribute.String("db.system", "redis"),
		)
		err := next(ctx, cmd)
		EndSpan(span, redisErr(err))
		return err
	}
}

func (tracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := StartSpan(ctx, redisTracer, "redis.pipeline",
			attribute.String("db.system", "redis"),
			attribute.Int("db.redis.commands", len(cmds)),
		)
		err := next(ctx, cmds)
		EndSpan(span, redisErr(err))
		return err
	}
}

func redisErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
