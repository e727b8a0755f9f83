package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/JMURv/fieldlog/internal/repo"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// ListDueReminders returns live records due within [from, to] whose status is not terminal.
func (r *Repository) ListDueReminders(ctx context.Context, from, to time.Time) ([]md.ReminderCandidate, error) {
	const op = "reminders.ListDueReminders.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	q, args, err := buildDueRemindersQuery(from, to)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to build query", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	res := make([]md.ReminderCandidate, 0)
	if err = r.conn.SelectContext(ctx, &res, q, args...); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to list due reminders", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	return res, nil
}

// ClaimReminder reports false when (recordID, due) is sent, cancelled, or
// claimed by a run that is still inside the claim TTL.
func (r *Repository) ClaimReminder(ctx context.Context, recordID uuid.UUID, due time.Time) (bool, error) {
	const op = "reminders.ClaimReminder.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, reminderClaimQ, recordID, due, r.claimTTL.Seconds())
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to claim reminder", zap.String("op", op), zap.Error(err))
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

func (r *Repository) CompleteReminder(ctx context.Context, rem *md.ScheduledReminder) error {
	const op = "reminders.CompleteReminder.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	ids := rem.MessageIDs
	if ids == nil {
		ids = []string{}
	}

	raw, err := json.Marshal(ids)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to marshal message ids", zap.String("op", op), zap.Error(err))
		return err
	}

	res, err := r.conn.ExecContext(ctx, reminderCompleteQ, rem.Status, raw, rem.RecordID, rem.DueDate)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to complete reminder", zap.String("op", op), zap.Error(err))
		return err
	}

	if aff, err := res.RowsAffected(); err == nil && aff == 0 {
		zap.L().Info(
			"reminder was cancelled before completion",
			zap.String("op", op),
			zap.String("record", rem.RecordID.String()),
		)
	}

	return nil
}

func (r *Repository) CancelReminders(ctx context.Context, recordID uuid.UUID) (int64, error) {
	const op = "reminders.CancelReminders.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, reminderCancelQ, recordID)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to cancel reminders", zap.String("op", op), zap.Error(err))
		return 0, err
	}

	return res.RowsAffected()
}

func (r *Repository) CreateNotificationLog(ctx context.Context, l *md.NotificationLog) error {
	const op = "reminders.CreateNotificationLog.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	_, err := r.conn.ExecContext(
		ctx,
		notificationLogCreateQ,
		l.UserID,
		l.RecordID,
		l.Kind,
		l.Title,
		l.Body,
		l.SuccessCount,
		l.FailureCount,
	)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to create notification log", zap.String("op", op), zap.Error(err))
		return err
	}

	return nil
}

func (r *Repository) GetRecordOwner(ctx context.Context, recordID uuid.UUID) (uuid.UUID, error) {
	const op = "reminders.GetRecordOwner.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	var uid uuid.UUID
	if err := r.conn.QueryRowContext(ctx, recordOwnerQ, recordID).Scan(&uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, repo.ErrNotFound
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to get record owner", zap.String("op", op), zap.Error(err))
		return uuid.Nil, err
	}

	return uid, nil
}
