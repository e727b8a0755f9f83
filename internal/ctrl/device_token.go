package ctrl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JMURv/fieldlog/internal/cache/redis"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type deviceTokenCtrl interface {
	RegisterToken(ctx context.Context, caller uuid.UUID, req *dto.RegisterTokenRequest) error
	UnregisterToken(ctx context.Context, caller uuid.UUID, token string) error
	ActiveTokensFor(ctx context.Context, caller, uid uuid.UUID) ([]string, error)
}

type deviceTokenRepo interface {
	UpsertDeviceToken(ctx context.Context, t *md.DeviceToken) error
	DeactivateDeviceToken(ctx context.Context, uid uuid.UUID, token string) (bool, error)
	ListActiveTokens(ctx context.Context, uid uuid.UUID) ([]string, error)
	ListActiveTokensFor(ctx context.Context, uids []uuid.UUID) ([]string, error)
	DeactivateTokens(ctx context.Context, tokens []string) ([]uuid.UUID, error)
}

// RegisterToken upserts by token string, so a device that switches accounts moves to the caller.
func (c *Controller) RegisterToken(ctx context.Context, caller uuid.UUID, req *dto.RegisterTokenRequest) error {
	const op = "tokens.RegisterToken.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if req.UserID != caller {
		return ErrForbidden
	}

	err := c.repo.UpsertDeviceToken(
		ctx, &md.DeviceToken{
			Token:      strings.TrimSpace(req.Token),
			UserID:     req.UserID,
			Platform:   req.Platform,
			DeviceInfo: req.DeviceInfo,
		},
	)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return err
	}

	// The token may have belonged to someone else a moment ago.
	c.cache.InvalidateKeysByPattern(ctx, config.PushTokensPattern)
	return nil
}

// UnregisterToken only touches the caller's own token. An unknown token is a no-op.
func (c *Controller) UnregisterToken(ctx context.Context, caller uuid.UUID, token string) error {
	const op = "tokens.UnregisterToken.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	changed, err := c.repo.DeactivateDeviceToken(ctx, caller, token)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return err
	}

	if changed {
		c.cache.Delete(ctx, fmt.Sprintf(config.PushTokensCacheKey, caller))
	}
	return nil
}

func (c *Controller) ActiveTokensFor(ctx context.Context, caller, uid uuid.UUID) ([]string, error) {
	const op = "tokens.ActiveTokensFor.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if caller != uid {
		return nil, ErrForbidden
	}

	return c.activeTokens(ctx, uid)
}

func (c *Controller) activeTokens(ctx context.Context, uid uuid.UUID) ([]string, error) {
	const op = "tokens.activeTokens.ctrl"
	key := fmt.Sprintf(config.PushTokensCacheKey, uid)

	cached := make([]string, 0)
	if err := c.cache.GetToStruct(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, redis.ErrNotFoundInCache) {
		zap.L().Debug("failed to read tokens from cache", zap.String("op", op), zap.Error(err))
	}

	res, err := c.repo.ListActiveTokens(ctx, uid)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ctx, config.DefaultCacheTime, key, res)
	return res, nil
}

// DeactivateTokens never fails the caller: errors are logged and delivery results stand.
func (c *Controller) DeactivateTokens(ctx context.Context, tokens []string) {
	const op = "tokens.DeactivateTokens.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if len(tokens) == 0 {
		return
	}

	owners, err := c.repo.DeactivateTokens(ctx, tokens)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error(
			"failed to deactivate invalid tokens",
			zap.String("op", op),
			zap.Int("count", len(tokens)),
			zap.Error(err),
		)
		return
	}

	for _, uid := range owners {
		c.cache.Delete(ctx, fmt.Sprintf(config.PushTokensCacheKey, uid))
	}

	zap.L().Info("deactivated invalid tokens", zap.String("op", op), zap.Int("count", len(tokens)))
}
