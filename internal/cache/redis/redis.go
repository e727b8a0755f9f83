package redis

import (
	"context"
	"errors"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

var ErrNotFoundInCache = errors.New("not found in cache")

// unlockScript deletes the lock only while it still holds our value.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Cache struct {
	cli *redis.Client
}

func New(conf config.Config) *Cache {
	cli := redis.NewClient(
		&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Pass,
			DB:       0,
		},
	)

	if _, err := cli.Ping(context.Background()).Result(); err != nil {
		zap.L().Fatal("failed to connect to redis", zap.Error(err))
	}

	return &Cache{cli: cli}
}

func (c *Cache) Close() error {
	return c.cli.Close()
}

func (c *Cache) GetToStruct(ctx context.Context, key string, dest any) error {
	const op = "cache.GetToStruct.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	val, err := c.cli.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFoundInCache
		}
		zap.L().Debug("failed to get from cache", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return err
	}

	if err = json.Unmarshal(val, dest); err != nil {
		zap.L().Debug("failed to unmarshal cached value", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}

func (c *Cache) Set(ctx context.Context, t time.Duration, key string, val any) {
	const op = "cache.Set.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	bytes, err := json.Marshal(val)
	if err != nil {
		zap.L().Debug("failed to marshal value", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return
	}

	if err = c.cli.Set(ctx, key, bytes, t).Err(); err != nil {
		zap.L().Debug("failed to set to cache", zap.String("op", op), zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	const op = "cache.Delete.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if err := c.cli.Del(ctx, key).Err(); err != nil {
		zap.L().Debug("failed to delete from cache", zap.String("op", op), zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) InvalidateKeysByPattern(ctx context.Context, pattern string) {
	const op = "cache.InvalidateKeysByPattern.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	iter := c.cli.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.cli.Del(ctx, iter.Val()).Err(); err != nil {
			zap.L().Debug("failed to delete key", zap.String("op", op), zap.String("key", iter.Val()), zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		zap.L().Debug("failed to scan keys", zap.String("op", op), zap.String("pattern", pattern), zap.Error(err))
	}
}

// Lock tries to take key for ttl. The returned token is needed to Unlock.
func (c *Cache) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	const op = "cache.Lock.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	token := uuid.NewString()
	ok, err := c.cli.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		zap.L().Error("failed to acquire lock", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return "", false, err
	}

	return token, ok, nil
}

func (c *Cache) Unlock(ctx context.Context, key, token string) error {
	const op = "cache.Unlock.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if err := unlockScript.Run(ctx, c.cli, []string{key}, token).Err(); err != nil {
		zap.L().Error("failed to release lock", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}
