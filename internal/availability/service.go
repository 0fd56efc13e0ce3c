package availability

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
)

// WindowRequest carries a window configuration from the API.
type WindowRequest struct {
	StartDate      time.Time
	EndDate        time.Time
	Weekdays       []time.Weekday
	DayStart       string
	DayEnd         string
	SessionMinutes int
	BufferMinutes  int
	Timezone       string
}

func (r WindowRequest) window() (Window, error) {
	start, err := ParseClock(r.DayStart)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(r.DayEnd)
	if err != nil {
		return Window{}, err
	}
	w := Window{
		StartDate:      civilDate(r.StartDate),
		EndDate:        civilDate(r.EndDate),
		Weekdays:       dedupeWeekdays(r.Weekdays),
		DayStart:       start,
		DayEnd:         end,
		SessionMinutes: r.SessionMinutes,
		BufferMinutes:  r.BufferMinutes,
		Timezone:       r.Timezone,
	}
	return w, w.Validate()
}

// Result is an availability window with the number of slots it produced.
type Result struct {
	Availability *Availability
	SlotsCreated int
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req WindowRequest) (*Result, error)
	Update(ctx context.Context, actor auth.Actor, id string, req WindowRequest) (*Result, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
	GetByID(ctx context.Context, id string) (*Availability, error)
	ListByMentor(ctx context.Context, mentorID string) ([]*Availability, error)

	AddSlot(ctx context.Context, actor auth.Actor, slot Interval) (*Slot, error)
	BlockSlot(ctx context.Context, actor auth.Actor, id string) (*Slot, error)
	UnblockSlot(ctx context.Context, actor auth.Actor, id string) (*Slot, error)
	GetSlot(ctx context.Context, id string) (*Slot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]*Slot, int, error)

	// SweepPastSlots deletes open slots whose start has passed.
	SweepPastSlots(ctx context.Context) (int64, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, req WindowRequest) (*Result, error) {
	if !actor.IsMentor() {
		return nil, ErrOnlyMentors
	}

	w, err := req.window()
	if err != nil {
		return nil, err
	}
	slots, err := s.futureSlots(w)
	if err != nil {
		return nil, err
	}

	a := &Availability{MentorID: actor.ID, Window: w}
	n, err := s.repo.Create(ctx, a, slots)
	if err != nil {
		return nil, err
	}

	s.logger.Info("availability created",
		zap.String("availability_id", a.ID),
		zap.String("mentor_id", a.MentorID),
		zap.Int("slots", n),
	)
	return &Result{Availability: a, SlotsCreated: n}, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, req WindowRequest) (*Result, error) {
	a, err := s.getManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	w, err := req.window()
	if err != nil {
		return nil, err
	}
	slots, err := s.futureSlots(w)
	if err != nil {
		return nil, err
	}

	a.Window = w
	n, err := s.repo.Update(ctx, a, slots, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("availability regenerated",
		zap.String("availability_id", a.ID),
		zap.Int("slots", n),
	)
	return &Result{Availability: a, SlotsCreated: n}, nil
}

// futureSlots generates the window's slots that start after now.
func (s *service) futureSlots(w Window) ([]Interval, error) {
	all, err := GenerateSlots(w)
	if err != nil {
		return nil, err
	}
	now := s.now()
	future := all[:0]
	for _, slot := range all {
		if slot.Start.After(now) {
			future = append(future, slot)
		}
	}
	return future, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if _, err := s.getManaged(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, s.now())
}

func (s *service) GetByID(ctx context.Context, id string) (*Availability, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByMentor(ctx context.Context, mentorID string) ([]*Availability, error) {
	return s.repo.ListByMentor(ctx, mentorID)
}

func (s *service) getManaged(ctx context.Context, actor auth.Actor, id string) (*Availability, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && a.MentorID != actor.ID {
		return nil, ErrPermissionDenied
	}
	return a, nil
}

// AddSlot creates an ad-hoc open slot. It must fit the working hours of one
// of the mentor's windows; the database rejects overlaps with other slots.
func (s *service) AddSlot(ctx context.Context, actor auth.Actor, slot Interval) (*Slot, error) {
	if !actor.IsMentor() {
		return nil, ErrOnlyMentors
	}
	slot = Interval{Start: slot.Start.UTC(), End: slot.End.UTC()}
	if !slot.Start.Before(slot.End) {
		return nil, ErrInvalidSlotRange
	}
	if !slot.Start.After(s.now()) {
		return nil, ErrSlotInPast
	}

	windows, err := s.repo.ListByMentor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	inside := false
	for _, a := range windows {
		if a.Window.Contains(slot) {
			inside = true
			break
		}
	}
	if !inside {
		return nil, ErrSlotOutsideWindow
	}

	created := &Slot{
		MentorID: actor.ID,
		Start:    slot.Start,
		End:      slot.End,
		Status:   SlotOpen,
	}
	if err := s.repo.InsertSlot(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) BlockSlot(ctx context.Context, actor auth.Actor, id string) (*Slot, error) {
	return s.toggleSlot(ctx, actor, id, SlotOpen, SlotBlocked)
}

func (s *service) UnblockSlot(ctx context.Context, actor auth.Actor, id string) (*Slot, error) {
	return s.toggleSlot(ctx, actor, id, SlotBlocked, SlotOpen)
}

func (s *service) toggleSlot(ctx context.Context, actor auth.Actor, id string, from, to SlotStatus) (*Slot, error) {
	slot, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && slot.MentorID != actor.ID {
		return nil, ErrPermissionDenied
	}
	if err := s.repo.SetSlotStatus(ctx, id, from, to, s.now()); err != nil {
		return nil, err
	}
	slot.Status = to
	return slot, nil
}

func (s *service) GetSlot(ctx context.Context, id string) (*Slot, error) {
	return s.repo.GetSlot(ctx, id)
}

func (s *service) ListSlots(ctx context.Context, filter SlotFilter) ([]*Slot, int, error) {
	return s.repo.ListSlots(ctx, filter)
}

func (s *service) SweepPastSlots(ctx context.Context) (int64, error) {
	return s.repo.DeleteOpenSlotsBefore(ctx, s.now())
}

func dedupeWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
