package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/mail"
	"github.com/nekogravitycat/mentorship-backend/internal/session"
)

// SessionReconciler is the part of session.Service AutoComplete uses.
type SessionReconciler interface {
	CompleteEnded(ctx context.Context) (int64, error)
	ExpirePending(ctx context.Context) (int64, error)
}

// AutoComplete completes approved sessions that have ended and cancels
// pending sessions nobody approved before they started. Both are single
// conditional updates, so sessions changed concurrently are left alone.
type AutoComplete struct {
	sessions SessionReconciler
	logger   *zap.Logger
}

func NewAutoComplete(sessions SessionReconciler, logger *zap.Logger) *AutoComplete {
	return &AutoComplete{sessions: sessions, logger: logger}
}

func (j *AutoComplete) Name() string { return "auto_complete" }

func (j *AutoComplete) Run(ctx context.Context) error {
	completed, err := j.sessions.CompleteEnded(ctx)
	if err != nil {
		return err
	}
	expired, err := j.sessions.ExpirePending(ctx)
	if err != nil {
		return err
	}
	if completed > 0 || expired > 0 {
		j.logger.Info("sessions reconciled",
			zap.Int64("completed", completed),
			zap.Int64("expired", expired),
		)
	}
	return nil
}

// ReminderSource is the part of session.Service Reminders uses.
type ReminderSource interface {
	ClaimReminders(ctx context.Context, lead time.Duration, limit int) ([]*session.Session, error)
	ReleaseReminder(ctx context.Context, id string) error
}

// Notifier sends templated emails. It is satisfied by *mail.Mailer.
type Notifier interface {
	Send(ctx context.Context, to []mail.Address, name string, data any) error
}

const (
	reminderBatchSize  = 50
	reminderMaxBatches = 20
)

// Reminders emails mentor and learner ahead of approved sessions. Sessions
// are claimed before sending so concurrent runners never double-send; every
// claimed session that was not reminded is released for the next run, even
// when the run is cancelled part way.
type Reminders struct {
	sessions  ReminderSource
	notifier  Notifier
	lead      time.Duration
	batchSize int
	logger    *zap.Logger
}

func NewReminders(sessions ReminderSource, notifier Notifier, lead time.Duration, logger *zap.Logger) *Reminders {
	return &Reminders{
		sessions:  sessions,
		notifier:  notifier,
		lead:      lead,
		batchSize: reminderBatchSize,
		logger:    logger,
	}
}

func (j *Reminders) Name() string { return "reminders" }

func (j *Reminders) Run(ctx context.Context) error {
	sent := 0
	defer func() {
		if sent > 0 {
			j.logger.Info("session reminders sent", zap.Int("sessions", sent))
		}
	}()

	for batch := 0; batch < reminderMaxBatches; batch++ {
		claimed, err := j.sessions.ClaimReminders(ctx, j.lead, j.batchSize)
		if err != nil {
			return err
		}

		failed := 0
		for i, s := range claimed {
			if err := ctx.Err(); err != nil {
				return errors.Join(err, j.release(ctx, claimed[i:]))
			}
			if err := j.remind(ctx, s); err != nil {
				failed++
				j.logger.Warn("failed to send session reminder",
					zap.String("session_id", s.ID),
					zap.Error(err),
				)
				if err := j.release(ctx, claimed[i:i+1]); err != nil {
					return errors.Join(err, j.release(ctx, claimed[i+1:]))
				}
				continue
			}
			sent++
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Released sessions would be claimed again straight away.
		if failed > 0 || len(claimed) < j.batchSize {
			break
		}
	}
	return nil
}

// release clears the claims on sessions that were not reminded. It carries
// on past failures and outlives cancellation of ctx.
func (j *Reminders) release(ctx context.Context, sessions []*session.Session) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, s := range sessions {
		if err := j.sessions.ReleaseReminder(ctx, s.ID); err != nil {
			errs = append(errs, fmt.Errorf("release reminder for session %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (j *Reminders) remind(ctx context.Context, s *session.Session) error {
	recipients := []mail.Address{
		{Name: s.MentorName, Email: s.MentorEmail},
		{Name: s.LearnerName, Email: s.LearnerEmail},
	}
	for _, to := range recipients {
		err := j.notifier.Send(ctx, []mail.Address{to}, mail.TemplateSessionReminder, mail.SessionReminder{
			Name:        to.Name,
			MentorName:  s.MentorName,
			LearnerName: s.LearnerName,
			Topic:       s.Topic,
			Start:       s.StartTime,
			End:         s.EndTime,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
