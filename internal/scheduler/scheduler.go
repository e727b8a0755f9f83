package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	md "github.com/JMURv/fieldlog/internal/models"
	metrics "github.com/JMURv/fieldlog/internal/observability/metrics/prometheus"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	reminderTitle = "Inspection due tomorrow"
	bodyLayout    = "Jan 2, 15:04"
	unlockTimeout = 5 * time.Second
)

const (
	KindPush  = "reminder"
	KindEmail = "reminder_email"
)

type ReminderService interface {
	ListDueReminders(ctx context.Context, from, to time.Time) ([]md.ReminderCandidate, error)
	ClaimReminder(ctx context.Context, recordID uuid.UUID, due time.Time) (bool, error)
	CompleteReminder(ctx context.Context, rem *md.ScheduledReminder) error
	SendToUser(ctx context.Context, uid uuid.UUID, title, body string, data map[string]any) (dto.DeliveryResult, error)
	LogNotification(ctx context.Context, l *md.NotificationLog)
}

// Locker keeps two instances from running the same pass.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type Mailer interface {
	SendReminder(ctx context.Context, to string, rc md.ReminderCandidate) error
}

// Report summarizes one pass.
type Report struct {
	From        time.Time
	To          time.Time
	Ran         bool
	Candidates  int
	Sent        int
	Emailed     int
	NoDevice    int
	AlreadyDone int
	Failed      int
}

type Scheduler struct {
	svc     ReminderService
	lock    Locker
	mail    Mailer
	cron    *cron.Cron
	spec    string
	loc     *time.Location
	lockTTL time.Duration
	now     func() time.Time
}

// New validates the cron spec and time zone. lock and mail may be nil.
func New(conf config.ReminderConfig, svc ReminderService, lock Locker, mail Mailer) (*Scheduler, error) {
	loc, err := conf.Location()
	if err != nil {
		return nil, fmt.Errorf("reminder timezone: %w", err)
	}

	if _, err = cron.ParseStandard(conf.Spec); err != nil {
		return nil, fmt.Errorf("reminder spec: %w", err)
	}

	logger := cron.PrintfLogger(zap.NewStdLog(zap.L()))
	return &Scheduler{
		svc:  svc,
		lock: lock,
		mail: mail,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec:    conf.Spec,
		loc:     loc,
		lockTTL: conf.LockTTL,
		now:     time.Now,
	}, nil
}

// Start registers the daily job. Missed runs are not caught up.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(
		s.spec, func() {
			if _, err := s.RunOnce(ctx); err != nil {
				zap.L().Error("reminder run failed", zap.Error(err))
			}
		},
	)
	if err != nil {
		return err
	}

	s.cron.Start()
	zap.L().Info("Reminder scheduler has been started", zap.String("spec", s.spec), zap.String("tz", s.loc.String()))
	return nil
}

// Stop waits for a running pass to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		zap.L().Info("Reminder scheduler has been stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Window is tomorrow in loc, from 00:00:00.000 to 23:59:59.999.
func Window(now time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := now.In(loc).Date()
	from := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	to := time.Date(y, m, d+1, 23, 59, 59, int(999*time.Millisecond), loc)
	return from, to
}

// RunOnce performs a single pass. Only failing to list candidates is an error;
// per-record failures are counted in the report.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	const op = "reminders.RunOnce.scheduler"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	rep := Report{}
	rep.From, rep.To = Window(s.now(), s.loc)

	if s.lock != nil {
		token, ok, err := s.lock.Lock(ctx, config.ReminderLock, s.lockTTL)
		switch {
		case err != nil:
			zap.L().Warn("reminder lock unavailable, running without it", zap.String("op", op), zap.Error(err))
		case !ok:
			zap.L().Info("another instance holds the reminder lock", zap.String("op", op))
			metrics.ObserveReminderRun("skipped")
			return rep, nil
		default:
			defer func() {
				uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
				defer cancel()
				_ = s.lock.Unlock(uctx, config.ReminderLock, token)
			}()
		}
	}
	rep.Ran = true

	list, err := s.svc.ListDueReminders(ctx, rep.From, rep.To)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to list due reminders", zap.String("op", op), zap.Error(err))
		metrics.ObserveReminderRun("error")
		return rep, err
	}

	rep.Candidates = len(list)
	for i := range list {
		s.remind(ctx, list[i], &rep)
	}

	metrics.ObserveReminderRun("ok")
	zap.L().Info(
		"reminder run finished",
		zap.String("op", op),
		zap.Time("from", rep.From),
		zap.Time("to", rep.To),
		zap.Int("candidates", rep.Candidates),
		zap.Int("sent", rep.Sent),
		zap.Int("emailed", rep.Emailed),
		zap.Int("noDevice", rep.NoDevice),
		zap.Int("alreadyDone", rep.AlreadyDone),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}

func (s *Scheduler) remind(ctx context.Context, rc md.ReminderCandidate, rep *Report) {
	const op = "reminders.remind.scheduler"
	defer func() {
		if r := recover(); r != nil {
			rep.Failed++
			zap.L().Error("reminder panicked", zap.String("op", op), zap.String("record", rc.ID.String()), zap.Any("panic", r))
		}
	}()

	claimed, err := s.svc.ClaimReminder(ctx, rc.ID, rc.DueDate)
	if err != nil {
		rep.Failed++
		zap.L().Error("failed to claim reminder", zap.String("op", op), zap.String("record", rc.ID.String()), zap.Error(err))
		return
	}
	if !claimed {
		rep.AlreadyDone++
		return
	}

	body := fmt.Sprintf("%s is due on %s", rc.Title, rc.DueDate.In(s.loc).Format(bodyLayout))
	res, err := s.svc.SendToUser(
		ctx, rc.UserID, reminderTitle, body, map[string]any{
			"type":     KindPush,
			"recordId": rc.ID,
			"dueDate":  rc.DueDate,
		},
	)

	kind, status := KindPush, md.ReminderFailed
	switch {
	case err != nil:
		zap.L().Error("failed to dispatch reminder", zap.String("op", op), zap.String("record", rc.ID.String()), zap.Error(err))
	case res.NoDevice:
		rep.NoDevice++
		if s.email(ctx, rc) {
			kind, status = KindEmail, md.ReminderSent
			rep.Emailed++
		}
	case res.SuccessCount > 0:
		status = md.ReminderSent
		rep.Sent++
	}
	if status == md.ReminderFailed && !res.NoDevice {
		rep.Failed++
	}

	err = s.svc.CompleteReminder(
		ctx, &md.ScheduledReminder{
			RecordID:   rc.ID,
			DueDate:    rc.DueDate,
			Status:     status,
			MessageIDs: res.MessageIDs(),
		},
	)
	if err != nil {
		zap.L().Warn("failed to store reminder outcome", zap.String("op", op), zap.String("record", rc.ID.String()), zap.Error(err))
	}

	recordID := rc.ID
	s.svc.LogNotification(
		ctx, &md.NotificationLog{
			UserID:       rc.UserID,
			RecordID:     &recordID,
			Kind:         kind,
			Title:        reminderTitle,
			Body:         body,
			SuccessCount: res.SuccessCount,
			FailureCount: res.FailureCount,
		},
	)
}

func (s *Scheduler) email(ctx context.Context, rc md.ReminderCandidate) bool {
	if s.mail == nil || rc.OwnerEmail == "" {
		return false
	}

	if err := s.mail.SendReminder(ctx, rc.OwnerEmail, rc); err != nil {
		zap.L().Warn("failed to email reminder", zap.String("record", rc.ID.String()), zap.Error(err))
		return false
	}
	return true
}
