package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JMURv/fieldlog/internal/config"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/JMURv/fieldlog/internal/repo"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

func (r *Repository) CreateSession(ctx context.Context, s *md.Session) error {
	const op = "sessions.CreateSession.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	_, err := r.conn.ExecContext(
		ctx,
		sessionCreateQ,
		s.ID,
		s.UserID,
		s.RefreshHash,
		s.IP,
		s.UA,
		s.DeviceName,
		s.ExpiresAt,
	)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to create session", zap.String("op", op), zap.Error(err))
		return err
	}

	return nil
}

func (r *Repository) GetSessionByHash(ctx context.Context, hash string) (*md.Session, error) {
	const op = "sessions.GetSessionByHash.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := &md.Session{}
	if err := r.conn.GetContext(ctx, res, sessionGetByHashQ, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to get session", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	return res, nil
}

// RotateSession revokes prevID and stores next in one transaction.
// It returns repo.ErrNotFound when prevID was already revoked.
func (r *Repository) RotateSession(ctx context.Context, prevID uuid.UUID, next *md.Session) error {
	const op = "sessions.RotateSession.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	err := r.withTx(
		ctx, op, func(tx *sqlx.Tx) error {
			res, err := tx.ExecContext(ctx, sessionRevokeByIDQ, prevID)
			if err != nil {
				return err
			}

			aff, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if aff == 0 {
				return repo.ErrNotFound
			}

			_, err = tx.ExecContext(
				ctx,
				sessionCreateQ,
				next.ID,
				next.UserID,
				next.RefreshHash,
				next.IP,
				next.UA,
				next.DeviceName,
				next.ExpiresAt,
			)
			return err
		},
	)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to rotate session", zap.String("op", op), zap.Error(err))
	}

	return err
}

// RevokeSession invalidates the live session holding hash and returns its owner.
func (r *Repository) RevokeSession(ctx context.Context, hash string) (uuid.UUID, error) {
	const op = "sessions.RevokeSession.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	var uid uuid.UUID
	if err := r.conn.QueryRowContext(ctx, sessionRevokeByHashQ, hash).Scan(&uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, repo.ErrNotFound
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to revoke session", zap.String("op", op), zap.Error(err))
		return uuid.Nil, err
	}

	return uid, nil
}
