package ctrl

import (
	"context"
	"errors"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/JMURv/fieldlog/internal/repo"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type reminderCtrl interface {
	CancelReminders(ctx context.Context, caller, recordID uuid.UUID) (int64, error)
}

type reminderRepo interface {
	ListDueReminders(ctx context.Context, from, to time.Time) ([]md.ReminderCandidate, error)
	ClaimReminder(ctx context.Context, recordID uuid.UUID, due time.Time) (bool, error)
	CompleteReminder(ctx context.Context, rem *md.ScheduledReminder) error
	CancelReminders(ctx context.Context, recordID uuid.UUID) (int64, error)
	GetRecordOwner(ctx context.Context, recordID uuid.UUID) (uuid.UUID, error)
	CreateNotificationLog(ctx context.Context, l *md.NotificationLog) error
}

func (c *Controller) ListDueReminders(ctx context.Context, from, to time.Time) ([]md.ReminderCandidate, error) {
	const op = "reminders.ListDueReminders.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	return c.repo.ListDueReminders(ctx, from, to)
}

func (c *Controller) ClaimReminder(ctx context.Context, recordID uuid.UUID, due time.Time) (bool, error) {
	const op = "reminders.ClaimReminder.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	return c.repo.ClaimReminder(ctx, recordID, due)
}

func (c *Controller) CompleteReminder(ctx context.Context, rem *md.ScheduledReminder) error {
	const op = "reminders.CompleteReminder.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	return c.repo.CompleteReminder(ctx, rem)
}

// CancelReminders drops unsent reminders of a record after it was edited. A new
// due date gets a fresh claim; the cancelled one is never sent.
func (c *Controller) CancelReminders(ctx context.Context, caller, recordID uuid.UUID) (int64, error) {
	const op = "reminders.CancelReminders.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	owner, err := c.repo.GetRecordOwner(ctx, recordID)
	if err != nil && errors.Is(err, repo.ErrNotFound) {
		return 0, ErrNotFound
	} else if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return 0, err
	}

	if owner != caller {
		return 0, ErrForbidden
	}

	return c.repo.CancelReminders(ctx, recordID)
}

// LogNotification is best-effort: a failed audit write is logged and forgotten.
func (c *Controller) LogNotification(ctx context.Context, l *md.NotificationLog) {
	const op = "reminders.LogNotification.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if err := c.repo.CreateNotificationLog(ctx, l); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Warn(
			"failed to write notification log",
			zap.String("op", op),
			zap.String("uid", l.UserID.String()),
			zap.Error(err),
		)
	}
}
