package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/JMURv/fieldlog/internal/config"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

func (r *Repository) UpsertDeviceToken(ctx context.Context, t *md.DeviceToken) error {
	const op = "tokens.UpsertDeviceToken.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	_, err := r.conn.ExecContext(ctx, deviceTokenUpsertQ, t.Token, t.UserID, t.Platform, t.DeviceInfo)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to upsert device token", zap.String("op", op), zap.Error(err))
		return err
	}

	return nil
}

// DeactivateDeviceToken reports whether an active token owned by uid was changed.
func (r *Repository) DeactivateDeviceToken(ctx context.Context, uid uuid.UUID, token string) (bool, error) {
	const op = "tokens.DeactivateDeviceToken.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, deviceTokenDeactivateQ, token, uid)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to deactivate device token", zap.String("op", op), zap.Error(err))
		return false, err
	}

	aff, err := res.RowsAffected()
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to get affected rows", zap.String("op", op), zap.Error(err))
		return false, err
	}

	return aff > 0, nil
}

func (r *Repository) ListActiveTokens(ctx context.Context, uid uuid.UUID) ([]string, error) {
	const op = "tokens.ListActiveTokens.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := make([]string, 0)
	if err := r.conn.SelectContext(ctx, &res, deviceTokenListActiveQ, uid); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to list active tokens", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	return res, nil
}

func (r *Repository) ListActiveTokensFor(ctx context.Context, uids []uuid.UUID) ([]string, error) {
	const op = "tokens.ListActiveTokensFor.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := make([]string, 0)
	if len(uids) == 0 {
		return res, nil
	}

	q, args, err := sq.Select("token").
		From("device_tokens").
		Where(sq.Eq{"user_id": uids}).
		Where(sq.Eq{"is_active": true}).
		OrderBy("user_id", "last_used_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to build query", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	if err = r.conn.SelectContext(ctx, &res, q, args...); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to list active tokens", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	return res, nil
}

// DeactivateTokens flips every listed token inactive and returns the distinct owners touched.
func (r *Repository) DeactivateTokens(ctx context.Context, tokens []string) ([]uuid.UUID, error) {
	const op = "tokens.DeactivateTokens.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := make([]uuid.UUID, 0)
	if len(tokens) == 0 {
		return res, nil
	}

	q, args, err := sq.Update("device_tokens").
		Set("is_active", false).
		Where(sq.Eq{"token": tokens}).
		Suffix("RETURNING user_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to build query", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	owners := make([]uuid.UUID, 0, len(tokens))
	if err = r.conn.SelectContext(ctx, &owners, q, args...); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to deactivate tokens", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(owners))
	for _, uid := range owners {
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		res = append(res, uid)
	}

	return res, nil
}
