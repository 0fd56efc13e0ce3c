package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/availability"
	"github.com/nekogravitycat/mentorship-backend/internal/course"
)

type BookRequest struct {
	SlotID   string
	CourseID *string
	Topic    string
	Notes    string
}

type Service interface {
	Book(ctx context.Context, actor auth.Actor, req BookRequest) (*Session, error)
	GetByID(ctx context.Context, actor auth.Actor, id string) (*Session, error)
	List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Session, int, error)

	Approve(ctx context.Context, actor auth.Actor, id string) (*Session, error)
	Reject(ctx context.Context, actor auth.Actor, id, reason string) (*Session, error)
	Cancel(ctx context.Context, actor auth.Actor, id, reason string) (*Session, error)
	Complete(ctx context.Context, actor auth.Actor, id string) (*Session, error)
	Reschedule(ctx context.Context, actor auth.Actor, id, slotID string) (*Session, error)

	CompleteEnded(ctx context.Context) (int64, error)
	ExpirePending(ctx context.Context) (int64, error)
	// ClaimReminders claims approved sessions starting within lead from now.
	ClaimReminders(ctx context.Context, lead time.Duration, limit int) ([]*Session, error)
	ReleaseReminder(ctx context.Context, id string) error
}

// SlotLookup is the part of availability.Service sessions depend on.
type SlotLookup interface {
	GetSlot(ctx context.Context, id string) (*availability.Slot, error)
}

// CourseLookup is the part of course.Service sessions depend on.
type CourseLookup interface {
	GetByID(ctx context.Context, actor auth.Actor, id string) (*course.Course, error)
}

type service struct {
	repo    Repository
	slots   SlotLookup
	courses CourseLookup
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, slots SlotLookup, courses CourseLookup, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		slots:   slots,
		courses: courses,
		logger:  logger,
		now:     time.Now,
	}
}

// bookableSlot loads a slot and checks it can be booked right now.
func (s *service) bookableSlot(ctx context.Context, id string) (*availability.Slot, error) {
	slot, err := s.slots.GetSlot(ctx, id)
	if err != nil {
		if errors.Is(err, availability.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if slot.Status != availability.SlotOpen || !slot.Start.After(s.now()) {
		return nil, ErrSlotUnavailable
	}
	return slot, nil
}

func (s *service) Book(ctx context.Context, actor auth.Actor, req BookRequest) (*Session, error) {
	if actor.IsAdmin() {
		return nil, ErrAdminBooking
	}

	slot, err := s.bookableSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.MentorID == actor.ID {
		return nil, ErrSelfBooking
	}

	if req.CourseID != nil {
		c, err := s.courses.GetByID(ctx, actor, *req.CourseID)
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
		if c.MentorID != slot.MentorID {
			return nil, ErrCourseNotFound
		}
	}

	sess := &Session{
		SlotID:    &slot.ID,
		LearnerID: actor.ID,
		CourseID:  req.CourseID,
		Topic:     strings.TrimSpace(req.Topic),
		Notes:     strings.TrimSpace(req.Notes),
		Status:    StatusPending,
	}
	if err := s.repo.Book(ctx, sess, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info("session booked",
		zap.String("session_id", sess.ID),
		zap.String("slot_id", slot.ID),
		zap.String("mentor_id", sess.MentorID),
		zap.String("learner_id", sess.LearnerID),
	)
	return s.repo.GetByID(ctx, sess.ID)
}

func (s *service) GetByID(ctx context.Context, actor auth.Actor, id string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !sess.IsParticipant(actor.ID) {
		return nil, ErrPermissionDenied
	}
	return sess, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Session, int, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, ErrInvalidTimeRange
	}
	if !actor.IsAdmin() {
		filter.ParticipantID = actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Approve(ctx context.Context, actor auth.Actor, id string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isMentorOrAdmin(actor, sess) {
		return nil, ErrPermissionDenied
	}
	if sess.Status == StatusPending && !sess.StartTime.After(s.now()) {
		return nil, ErrAlreadyStarted
	}
	return s.transition(ctx, sess, StatusApproved, "", false)
}

// Reject declines a pending request on the mentor's behalf.
func (s *service) Reject(ctx context.Context, actor auth.Actor, id, reason string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isMentorOrAdmin(actor, sess) {
		return nil, ErrPermissionDenied
	}
	if sess.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	return s.transition(ctx, sess, StatusCancelled, defaultReason(reason, "rejected"), true)
}

func (s *service) Cancel(ctx context.Context, actor auth.Actor, id, reason string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !sess.IsParticipant(actor.ID) {
		return nil, ErrPermissionDenied
	}
	return s.transition(ctx, sess, StatusCancelled, defaultReason(reason, "cancelled"), true)
}

func (s *service) Complete(ctx context.Context, actor auth.Actor, id string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isMentorOrAdmin(actor, sess) {
		return nil, ErrPermissionDenied
	}
	if s.now().Before(sess.StartTime) {
		return nil, ErrNotStarted
	}
	return s.transition(ctx, sess, StatusCompleted, "", false)
}

// Reschedule moves a live session to another open slot of the same mentor.
// The old session is kept as rescheduled and a new pending session is returned.
func (s *service) Reschedule(ctx context.Context, actor auth.Actor, id, slotID string) (*Session, error) {
	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !old.IsParticipant(actor.ID) {
		return nil, ErrPermissionDenied
	}
	if !CanTransition(old.Status, StatusRescheduled) {
		return nil, ErrInvalidTransition
	}
	if !old.StartTime.After(s.now()) {
		return nil, ErrAlreadyStarted
	}
	if old.SlotID != nil && *old.SlotID == slotID {
		return nil, ErrSameSlot
	}

	slot, err := s.bookableSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.MentorID != old.MentorID {
		return nil, ErrDifferentMentor
	}

	next := &Session{
		SlotID:            &slot.ID,
		LearnerID:         old.LearnerID,
		CourseID:          old.CourseID,
		Topic:             old.Topic,
		Notes:             old.Notes,
		Status:            StatusPending,
		RescheduledFromID: &old.ID,
	}
	if err := s.repo.Reschedule(ctx, old, next, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info("session rescheduled",
		zap.String("session_id", old.ID),
		zap.String("new_session_id", next.ID),
		zap.String("slot_id", slot.ID),
	)
	return s.repo.GetByID(ctx, next.ID)
}

func (s *service) transition(ctx context.Context, sess *Session, to Status, reason string, release bool) (*Session, error) {
	if !CanTransition(sess.Status, to) {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, sess.ID, sess.Status, to, reason, release, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info("session status changed",
		zap.String("session_id", sess.ID),
		zap.String("from", string(sess.Status)),
		zap.String("to", string(to)),
	)
	return s.repo.GetByID(ctx, sess.ID)
}

func (s *service) isMentorOrAdmin(actor auth.Actor, sess *Session) bool {
	return actor.IsAdmin() || sess.MentorID == actor.ID
}

func defaultReason(reason, def string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return def
}

func (s *service) CompleteEnded(ctx context.Context) (int64, error) {
	return s.repo.CompleteEnded(ctx, s.now())
}

func (s *service) ExpirePending(ctx context.Context) (int64, error) {
	return s.repo.ExpirePending(ctx, s.now())
}

func (s *service) ClaimReminders(ctx context.Context, lead time.Duration, limit int) ([]*Session, error) {
	now := s.now()
	return s.repo.ClaimReminders(ctx, now, now.Add(lead), limit)
}

func (s *service) ReleaseReminder(ctx context.Context, id string) error {
	return s.repo.ReleaseReminder(ctx, id)
}
