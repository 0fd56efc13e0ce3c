package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/availability"
	"github.com/nekogravitycat/mentorship-backend/internal/course"
)

// memStore keeps slots and sessions together so bookings can flip both
// under one lock, the way the repository does inside a transaction.
type memStore struct {
	mu       sync.Mutex
	slots    map[string]*availability.Slot
	sessions map[string]*Session
	seq      int

	// beforeWrite runs before a status compare-and-set, simulating a
	// concurrent writer.
	beforeWrite func(s *Session)
}

func newMemStore() *memStore {
	return &memStore{slots: map[string]*availability.Slot{}, sessions: map[string]*Session{}}
}

func (m *memStore) addSlot(mentorID string, start time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("slot-%d", m.seq)
	m.slots[id] = &availability.Slot{
		ID:       id,
		MentorID: mentorID,
		Start:    start,
		End:      start.Add(time.Hour),
		Status:   availability.SlotOpen,
	}
	return id
}

func (m *memStore) slotStatus(id string) availability.SlotStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id].Status
}

func (m *memStore) GetSlot(_ context.Context, id string) (*availability.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, availability.ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) bookSlot(s *Session, now time.Time) error {
	slot, ok := m.slots[*s.SlotID]
	if !ok || slot.Status != availability.SlotOpen || !slot.Start.After(now) {
		return ErrSlotUnavailable
	}
	slot.Status = availability.SlotBooked
	s.MentorID, s.StartTime, s.EndTime = slot.MentorID, slot.Start, slot.End
	return nil
}

func (m *memStore) insert(s *Session) {
	m.seq++
	s.ID = fmt.Sprintf("session-%d", m.seq)
	cp := *s
	m.sessions[s.ID] = &cp
}

func (m *memStore) release(slotID *string, now time.Time) {
	if slotID == nil {
		return
	}
	if slot, ok := m.slots[*slotID]; ok && slot.Status == availability.SlotBooked && slot.Start.After(now) {
		slot.Status = availability.SlotOpen
	}
}

func (m *memStore) Book(_ context.Context, s *Session, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot := *m.slots[*s.SlotID]
	if err := m.bookSlot(s, now); err != nil {
		return err
	}
	if s.MentorID == s.LearnerID {
		*m.slots[slot.ID] = slot
		return ErrSelfBooking
	}
	m.insert(s)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) List(_ context.Context, filter Filter) ([]*Session, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.sessions {
		if filter.ParticipantID != "" && !s.IsParticipant(filter.ParticipantID) {
			continue
		}
		if filter.Status != "" && string(s.Status) != filter.Status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, from, to Status, reason string, release bool, now time.Time) error {
	if m.beforeWrite != nil {
		m.mu.Lock()
		m.beforeWrite(m.sessions[id])
		m.mu.Unlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return ErrStatusConflict
	}
	s.Status = to
	s.CancelReason = reason
	if release {
		m.release(s.SlotID, now)
	}
	return nil
}

func (m *memStore) Reschedule(_ context.Context, old *Session, next *Session, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bookSlot(next, now); err != nil {
		return err
	}
	cur := m.sessions[old.ID]
	if cur.Status != old.Status {
		m.slots[*next.SlotID].Status = availability.SlotOpen
		return ErrStatusConflict
	}
	cur.Status = StatusRescheduled
	m.release(old.SlotID, now)
	m.insert(next)
	return nil
}

func (m *memStore) CompleteEnded(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.Status == StatusApproved && !s.EndTime.After(now) {
			s.Status = StatusCompleted
			n++
		}
	}
	return n, nil
}

func (m *memStore) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.Status == StatusPending && !s.StartTime.After(now) {
			s.Status = StatusCancelled
			s.CancelReason = ReasonExpired
			n++
		}
	}
	return n, nil
}

func (m *memStore) ClaimReminders(_ context.Context, now, until time.Time, limit int) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.sessions {
		if len(out) == limit {
			break
		}
		if s.Status != StatusApproved || s.ReminderSentAt != nil {
			continue
		}
		if s.StartTime.After(now) && !s.StartTime.After(until) {
			t := now
			s.ReminderSentAt = &t
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ReleaseReminder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.ReminderSentAt = nil
	}
	return nil
}

type fakeCourses map[string]*course.Course

func (f fakeCourses) GetByID(_ context.Context, _ auth.Actor, id string) (*course.Course, error) {
	c, ok := f[id]
	if !ok {
		return nil, course.ErrNotFound
	}
	return c, nil
}

var (
	baseNow  = time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)
	mentor   = auth.Actor{ID: "mentor-1", Role: auth.RoleMentor}
	other    = auth.Actor{ID: "mentor-2", Role: auth.RoleMentor}
	learner  = auth.Actor{ID: "learner-1", Role: auth.RoleLearner}
	stranger = auth.Actor{ID: "learner-2", Role: auth.RoleLearner}
	admin    = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin}
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(store *memStore, courses fakeCourses) (*service, *clock) {
	clk := &clock{t: baseNow}
	svc := NewService(store, store, courses, zap.NewNop()).(*service)
	svc.now = clk.now
	return svc, clk
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRescheduled, true},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusRescheduled, true},
		{StatusApproved, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusApproved, false},
		{StatusRescheduled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s to %s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}

	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
}

func TestBook(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestService(store, nil)
		slotID := store.addSlot(mentor.ID, baseNow.Add(24*time.Hour))

		s, err := svc.Book(ctx, learner, BookRequest{SlotID: slotID, Topic: "  Career advice "})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, s.Status)
		assert.Equal(t, mentor.ID, s.MentorID)
		assert.Equal(t, "Career advice", s.Topic)
		assert.Equal(t, baseNow.Add(24*time.Hour), s.StartTime)
		assert.Equal(t, availability.SlotBooked, store.slotStatus(slotID))
	})

	t.Run("Rejections", func(t *testing.T) {
		store := newMemStore()
		courses := fakeCourses{
			"course-1": {ID: "course-1", MentorID: mentor.ID},
			"course-2": {ID: "course-2", MentorID: other.ID},
		}
		svc, _ := newTestService(store, courses)
		future := store.addSlot(mentor.ID, baseNow.Add(time.Hour))
		past := store.addSlot(mentor.ID, baseNow.Add(-time.Hour))
		otherCourse := "course-2"
		missingCourse := "course-9"

		_, err := svc.Book(ctx, mentor, BookRequest{SlotID: future})
		assert.ErrorIs(t, err, ErrSelfBooking)

		_, err = svc.Book(ctx, admin, BookRequest{SlotID: future})
		assert.ErrorIs(t, err, ErrAdminBooking)

		_, err = svc.Book(ctx, learner, BookRequest{SlotID: past})
		assert.ErrorIs(t, err, ErrSlotUnavailable)

		_, err = svc.Book(ctx, learner, BookRequest{SlotID: "slot-missing"})
		assert.ErrorIs(t, err, ErrSlotNotFound)

		_, err = svc.Book(ctx, learner, BookRequest{SlotID: future, CourseID: &otherCourse})
		assert.ErrorIs(t, err, ErrCourseNotFound)

		_, err = svc.Book(ctx, learner, BookRequest{SlotID: future, CourseID: &missingCourse})
		assert.ErrorIs(t, err, ErrCourseNotFound)

		assert.Equal(t, availability.SlotOpen, store.slotStatus(future))

		// Another mentor may book as a learner.
		s, err := svc.Book(ctx, other, BookRequest{SlotID: future})
		require.NoError(t, err)
		assert.Equal(t, other.ID, s.LearnerID)

		_, err = svc.Book(ctx, learner, BookRequest{SlotID: future})
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("Concurrent bookings of one slot", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestService(store, nil)
		slotID := store.addSlot(mentor.ID, baseNow.Add(2*time.Hour))

		const n = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				actor := auth.Actor{ID: fmt.Sprintf("learner-%d", i+10), Role: auth.RoleLearner}
				_, err := svc.Book(ctx, actor, BookRequest{SlotID: slotID})
				mu.Lock()
				defer mu.Unlock()
				switch err {
				case nil:
					succeeded++
				case ErrSlotUnavailable:
					conflicts++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, n-1, conflicts)
	})
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*service, *clock, *memStore, *Session) {
		store := newMemStore()
		svc, clk := newTestService(store, nil)
		slotID := store.addSlot(mentor.ID, baseNow.Add(3*time.Hour))
		s, err := svc.Book(ctx, learner, BookRequest{SlotID: slotID})
		require.NoError(t, err)
		return svc, clk, store, s
	}

	t.Run("Approve then complete", func(t *testing.T) {
		svc, clk, _, s := setup(t)

		_, err := svc.Approve(ctx, learner, s.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		approved, err := svc.Approve(ctx, mentor, s.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, approved.Status)

		_, err = svc.Approve(ctx, mentor, s.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		_, err = svc.Complete(ctx, mentor, s.ID)
		assert.ErrorIs(t, err, ErrNotStarted)

		clk.advance(3*time.Hour + 30*time.Minute)
		done, err := svc.Complete(ctx, mentor, s.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, done.Status)

		_, err = svc.Cancel(ctx, learner, s.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Complete requires approval", func(t *testing.T) {
		svc, clk, _, s := setup(t)
		clk.advance(4 * time.Hour)
		_, err := svc.Complete(ctx, admin, s.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Reject frees the slot", func(t *testing.T) {
		svc, _, store, s := setup(t)

		_, err := svc.Reject(ctx, learner, s.ID, "")
		assert.ErrorIs(t, err, ErrPermissionDenied)

		rejected, err := svc.Reject(ctx, mentor, s.ID, "")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, rejected.Status)
		assert.Equal(t, "rejected", rejected.CancelReason)
		assert.Equal(t, availability.SlotOpen, store.slotStatus(*s.SlotID))
	})

	t.Run("Cancel by participants and admin", func(t *testing.T) {
		svc, _, store, s := setup(t)

		_, err := svc.Cancel(ctx, stranger, s.ID, "")
		assert.ErrorIs(t, err, ErrPermissionDenied)

		_, err = svc.Approve(ctx, mentor, s.ID)
		require.NoError(t, err)

		cancelled, err := svc.Cancel(ctx, learner, s.ID, "sick")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, "sick", cancelled.CancelReason)
		assert.Equal(t, availability.SlotOpen, store.slotStatus(*s.SlotID))

		_, err = svc.Reject(ctx, mentor, s.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Cancel after start keeps the slot booked", func(t *testing.T) {
		svc, clk, store, s := setup(t)
		_, err := svc.Approve(ctx, mentor, s.ID)
		require.NoError(t, err)

		clk.advance(3*time.Hour + time.Minute)
		_, err = svc.Cancel(ctx, admin, s.ID, "")
		require.NoError(t, err)
		assert.Equal(t, availability.SlotBooked, store.slotStatus(*s.SlotID))
	})

	t.Run("Concurrent change yields conflict", func(t *testing.T) {
		svc, _, store, s := setup(t)
		store.beforeWrite = func(cur *Session) { cur.Status = StatusCancelled }

		_, err := svc.Approve(ctx, mentor, s.ID)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})

	t.Run("Pending session cannot be approved after start", func(t *testing.T) {
		svc, clk, _, s := setup(t)
		clk.advance(3 * time.Hour)
		_, err := svc.Approve(ctx, mentor, s.ID)
		assert.ErrorIs(t, err, ErrAlreadyStarted)
	})
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestService(store, nil)

	oldSlot := store.addSlot(mentor.ID, baseNow.Add(5*time.Hour))
	newSlot := store.addSlot(mentor.ID, baseNow.Add(29*time.Hour))
	foreignSlot := store.addSlot(other.ID, baseNow.Add(30*time.Hour))

	s, err := svc.Book(ctx, learner, BookRequest{SlotID: oldSlot, Topic: "Go"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, mentor, s.ID)
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, stranger, s.ID, newSlot)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.Reschedule(ctx, learner, s.ID, foreignSlot)
	assert.ErrorIs(t, err, ErrDifferentMentor)

	_, err = svc.Reschedule(ctx, learner, s.ID, oldSlot)
	assert.ErrorIs(t, err, ErrSameSlot)

	next, err := svc.Reschedule(ctx, learner, s.ID, newSlot)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, next.Status)
	require.NotNil(t, next.RescheduledFromID)
	assert.Equal(t, s.ID, *next.RescheduledFromID)
	assert.Equal(t, "Go", next.Topic)
	assert.Equal(t, baseNow.Add(29*time.Hour), next.StartTime)

	old, err := svc.GetByID(ctx, learner, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRescheduled, old.Status)
	assert.Equal(t, availability.SlotOpen, store.slotStatus(oldSlot))
	assert.Equal(t, availability.SlotBooked, store.slotStatus(newSlot))

	_, err = svc.Reschedule(ctx, mentor, s.ID, oldSlot)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestService(store, nil)

	s, err := svc.Book(ctx, learner, BookRequest{SlotID: store.addSlot(mentor.ID, baseNow.Add(time.Hour))})
	require.NoError(t, err)
	_, err = svc.Book(ctx, stranger, BookRequest{SlotID: store.addSlot(other.ID, baseNow.Add(time.Hour))})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, stranger, s.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.GetByID(ctx, admin, s.ID)
	assert.NoError(t, err)

	_, total, err := svc.List(ctx, learner, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = svc.List(ctx, mentor, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = svc.List(ctx, admin, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	from, to := baseNow.Add(time.Hour), baseNow
	_, _, err = svc.List(ctx, admin, Filter{From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestReconciliation(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, clk := newTestService(store, nil)

	soon, err := svc.Book(ctx, learner, BookRequest{SlotID: store.addSlot(mentor.ID, baseNow.Add(30*time.Minute))})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, mentor, soon.ID)
	require.NoError(t, err)

	later, err := svc.Book(ctx, learner, BookRequest{SlotID: store.addSlot(mentor.ID, baseNow.Add(3*time.Hour))})
	require.NoError(t, err)

	t.Run("Reminders are claimed once", func(t *testing.T) {
		claimed, err := svc.ClaimReminders(ctx, time.Hour, 10)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, soon.ID, claimed[0].ID)

		again, err := svc.ClaimReminders(ctx, time.Hour, 10)
		require.NoError(t, err)
		assert.Empty(t, again)

		require.NoError(t, svc.ReleaseReminder(ctx, soon.ID))
		retry, err := svc.ClaimReminders(ctx, time.Hour, 10)
		require.NoError(t, err)
		assert.Len(t, retry, 1)
	})

	t.Run("Ended and expired sessions", func(t *testing.T) {
		clk.advance(4 * time.Hour)

		n, err := svc.CompleteEnded(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = svc.ExpirePending(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		expired, err := svc.GetByID(ctx, learner, later.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, expired.Status)
		assert.Equal(t, ReasonExpired, expired.CancelReason)

		done, err := svc.GetByID(ctx, mentor, soon.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, done.Status)
	})
}
