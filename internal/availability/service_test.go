package availability

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
)

// memRepo mirrors the constraints the PostgreSQL schema enforces.
type memRepo struct {
	mu      sync.Mutex
	windows map[string]*Availability
	slots   map[string]*Slot
	seq     int
}

func newMemRepo() *memRepo {
	return &memRepo{windows: map[string]*Availability{}, slots: map[string]*Slot{}}
}

func (r *memRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.windows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) ListByMentor(_ context.Context, mentorID string) ([]*Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Availability
	for _, a := range r.windows {
		if a.MentorID == mentorID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) checkNoOverlap(a *Availability) error {
	for _, o := range r.windows {
		if o.MentorID == a.MentorID && o.ID != a.ID && o.Window.Overlaps(a.Window) {
			return ErrWindowOverlap
		}
	}
	return nil
}

func (r *memRepo) insertFree(a *Availability, slots []Interval) int {
	n := 0
	for _, s := range slots {
		clash := false
		for _, e := range r.slots {
			if e.MentorID == a.MentorID && e.Interval().Overlaps(s) {
				clash = true
				break
			}
		}
		if clash {
			continue
		}
		id := r.nextID("slot")
		aid := a.ID
		r.slots[id] = &Slot{ID: id, MentorID: a.MentorID, AvailabilityID: &aid, Start: s.Start, End: s.End, Status: SlotOpen}
		n++
	}
	return n
}

func (r *memRepo) Create(_ context.Context, a *Availability, slots []Interval) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkNoOverlap(a); err != nil {
		return 0, err
	}
	a.ID = r.nextID("avail")
	cp := *a
	r.windows[a.ID] = &cp
	return r.insertFree(a, slots), nil
}

func (r *memRepo) Update(_ context.Context, a *Availability, slots []Interval, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkNoOverlap(a); err != nil {
		return 0, err
	}
	cp := *a
	r.windows[a.ID] = &cp
	for id, s := range r.slots {
		if s.AvailabilityID != nil && *s.AvailabilityID == a.ID && s.Status == SlotOpen && s.Start.After(now) {
			delete(r.slots, id)
		}
	}
	return r.insertFree(a, slots), nil
}

func (r *memRepo) Delete(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.windows[id]; !ok {
		return ErrNotFound
	}
	for _, s := range r.slots {
		if s.AvailabilityID != nil && *s.AvailabilityID == id && s.Status == SlotBooked && s.Start.After(now) {
			return ErrBookedSlotsRemain
		}
	}
	delete(r.windows, id)
	for sid, s := range r.slots {
		if s.AvailabilityID != nil && *s.AvailabilityID == id {
			delete(r.slots, sid)
		}
	}
	return nil
}

func (r *memRepo) GetSlot(_ context.Context, id string) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memRepo) ListSlots(_ context.Context, filter SlotFilter) ([]*Slot, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Slot
	for _, s := range r.slots {
		if filter.MentorID != "" && s.MentorID != filter.MentorID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, len(out), nil
}

func (r *memRepo) InsertSlot(_ context.Context, s *Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.slots {
		if e.MentorID == s.MentorID && e.Interval().Overlaps(s.Interval()) {
			return ErrSlotOverlap
		}
	}
	s.ID = r.nextID("slot")
	cp := *s
	r.slots[s.ID] = &cp
	return nil
}

func (r *memRepo) SetSlotStatus(_ context.Context, id string, from, to SlotStatus, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok || s.Status != from || !s.Start.After(now) {
		return ErrSlotStateConflict
	}
	s.Status = to
	return nil
}

func (r *memRepo) DeleteOpenSlotsBefore(_ context.Context, t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.slots {
		if s.Status == SlotOpen && !s.Start.After(t) {
			delete(r.slots, id)
			n++
		}
	}
	return n, nil
}

var (
	mentor  = auth.Actor{ID: "mentor", Role: auth.RoleMentor}
	other   = auth.Actor{ID: "other", Role: auth.RoleMentor}
	learner = auth.Actor{ID: "learner", Role: auth.RoleLearner}
	admin   = auth.Actor{ID: "admin", Role: auth.RoleAdmin}
)

// fixedNow is Sunday 2024-06-02 12:00 UTC.
var fixedNow = time.Date(2024, time.June, 2, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *service {
	svc := NewService(repo, zap.NewNop()).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func mondayRequest() WindowRequest {
	return WindowRequest{
		StartDate:      date(2024, time.June, 3),
		EndDate:        date(2024, time.June, 16),
		Weekdays:       []time.Weekday{time.Monday},
		DayStart:       "09:00",
		DayEnd:         "12:00",
		SessionMinutes: 60,
		BufferMinutes:  0,
		Timezone:       "UTC",
	}
}

func TestCreateAvailability(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	t.Run("Generates slots for every working day", func(t *testing.T) {
		res, err := svc.Create(ctx, mentor, mondayRequest())
		require.NoError(t, err)
		assert.Equal(t, 6, res.SlotsCreated) // two Mondays, three slots each
		assert.Equal(t, "mentor", res.Availability.MentorID)
	})

	t.Run("Only mentors publish availability", func(t *testing.T) {
		_, err := svc.Create(ctx, learner, mondayRequest())
		assert.ErrorIs(t, err, ErrOnlyMentors)
	})

	t.Run("Overlapping window on a shared weekday", func(t *testing.T) {
		req := mondayRequest()
		req.StartDate = date(2024, time.June, 10)
		req.EndDate = date(2024, time.June, 30)
		req.Weekdays = []time.Weekday{time.Monday, time.Thursday}
		_, err := svc.Create(ctx, mentor, req)
		assert.ErrorIs(t, err, ErrWindowOverlap)
	})

	t.Run("Same dates on another weekday", func(t *testing.T) {
		req := mondayRequest()
		req.Weekdays = []time.Weekday{time.Tuesday, time.Tuesday}
		res, err := svc.Create(ctx, mentor, req)
		require.NoError(t, err)
		assert.Equal(t, []time.Weekday{time.Tuesday}, res.Availability.Weekdays)
	})

	t.Run("Another mentor is unaffected", func(t *testing.T) {
		_, err := svc.Create(ctx, other, mondayRequest())
		assert.NoError(t, err)
	})

	t.Run("Invalid configuration", func(t *testing.T) {
		req := mondayRequest()
		req.DayEnd = "08:00"
		_, err := svc.Create(ctx, mentor, req)
		assert.ErrorIs(t, err, ErrInvalidDailyHours)

		req = mondayRequest()
		req.DayStart = "9am"
		_, err = svc.Create(ctx, mentor, req)
		assert.ErrorIs(t, err, ErrInvalidClock)
	})

	t.Run("Past slots are skipped", func(t *testing.T) {
		req := mondayRequest()
		req.StartDate = date(2024, time.June, 1) // Saturday, before fixedNow
		req.EndDate = date(2024, time.June, 2)
		req.Weekdays = []time.Weekday{time.Saturday, time.Sunday}
		req.DayStart = "10:00"
		req.DayEnd = "14:00"
		res, err := svc.Create(ctx, auth.Actor{ID: "third", Role: auth.RoleMentor}, req)
		require.NoError(t, err)
		assert.Equal(t, 1, res.SlotsCreated) // only Sunday 13:00 starts after noon
	})
}

func TestUpdateAvailabilityKeepsBookedSlots(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	res, err := svc.Create(ctx, mentor, mondayRequest())
	require.NoError(t, err)

	slots, _, err := svc.ListSlots(ctx, SlotFilter{MentorID: "mentor"})
	require.NoError(t, err)
	require.Len(t, slots, 6)

	// Book 10:00-11:00 on the first Monday.
	booked := slots[1]
	require.NoError(t, repo.SetSlotStatus(ctx, booked.ID, SlotOpen, SlotBooked, fixedNow))

	req := mondayRequest()
	req.SessionMinutes = 30
	req.BufferMinutes = 15
	out, err := svc.Update(ctx, mentor, res.Availability.ID, req)
	require.NoError(t, err)

	after, _, err := svc.ListSlots(ctx, SlotFilter{MentorID: "mentor"})
	require.NoError(t, err)

	// 09:00, 09:45, 10:30, 11:15 each Monday; 09:45 and 10:30 collide with
	// the booked 10:00-11:00 on the first Monday.
	assert.Equal(t, 6, out.SlotsCreated)
	assert.Len(t, after, 7)

	for i := 1; i < len(after); i++ {
		assert.False(t, after[i-1].Interval().Overlaps(after[i].Interval()), "slots must not overlap")
	}

	kept, err := svc.GetSlot(ctx, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotBooked, kept.Status)

	t.Run("Other mentors cannot update", func(t *testing.T) {
		_, err := svc.Update(ctx, other, res.Availability.ID, req)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestDeleteAvailability(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	res, err := svc.Create(ctx, mentor, mondayRequest())
	require.NoError(t, err)
	slots, _, err := svc.ListSlots(ctx, SlotFilter{MentorID: "mentor"})
	require.NoError(t, err)

	require.NoError(t, repo.SetSlotStatus(ctx, slots[0].ID, SlotOpen, SlotBooked, fixedNow))
	assert.ErrorIs(t, svc.Delete(ctx, mentor, res.Availability.ID), ErrBookedSlotsRemain)

	require.NoError(t, repo.SetSlotStatus(ctx, slots[0].ID, SlotBooked, SlotOpen, fixedNow))
	assert.ErrorIs(t, svc.Delete(ctx, other, res.Availability.ID), ErrPermissionDenied)
	require.NoError(t, svc.Delete(ctx, mentor, res.Availability.ID))

	left, total, err := svc.ListSlots(ctx, SlotFilter{MentorID: "mentor"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, left)
}

func TestAdHocSlots(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	req := mondayRequest()
	req.SessionMinutes = 60
	req.BufferMinutes = 60 // 09:00 and 11:00 only, leaving 10:00-11:00 free
	_, err := svc.Create(ctx, mentor, req)
	require.NoError(t, err)

	gap := Interval{Start: utc(2024, time.June, 3, 10, 0), End: utc(2024, time.June, 3, 11, 0)}

	t.Run("Fits the gap", func(t *testing.T) {
		s, err := svc.AddSlot(ctx, mentor, gap)
		require.NoError(t, err)
		assert.Equal(t, SlotOpen, s.Status)
		assert.Nil(t, s.AvailabilityID)
	})

	t.Run("Overlap is rejected", func(t *testing.T) {
		_, err := svc.AddSlot(ctx, mentor, Interval{Start: utc(2024, time.June, 3, 10, 30), End: utc(2024, time.June, 3, 11, 0)})
		assert.ErrorIs(t, err, ErrSlotOverlap)
	})

	t.Run("Outside working hours", func(t *testing.T) {
		_, err := svc.AddSlot(ctx, mentor, Interval{Start: utc(2024, time.June, 3, 12, 0), End: utc(2024, time.June, 3, 13, 0)})
		assert.ErrorIs(t, err, ErrSlotOutsideWindow)

		_, err = svc.AddSlot(ctx, mentor, Interval{Start: utc(2024, time.June, 4, 10, 0), End: utc(2024, time.June, 4, 11, 0)})
		assert.ErrorIs(t, err, ErrSlotOutsideWindow)
	})

	t.Run("In the past", func(t *testing.T) {
		_, err := svc.AddSlot(ctx, mentor, Interval{Start: fixedNow.Add(-time.Hour), End: fixedNow})
		assert.ErrorIs(t, err, ErrSlotInPast)
	})

	t.Run("Backwards interval", func(t *testing.T) {
		_, err := svc.AddSlot(ctx, mentor, Interval{Start: gap.End, End: gap.Start})
		assert.ErrorIs(t, err, ErrInvalidSlotRange)
	})
}

func TestBlockAndUnblock(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	_, err := svc.Create(ctx, mentor, mondayRequest())
	require.NoError(t, err)
	slots, _, err := svc.ListSlots(ctx, SlotFilter{MentorID: "mentor"})
	require.NoError(t, err)
	id := slots[0].ID

	s, err := svc.BlockSlot(ctx, mentor, id)
	require.NoError(t, err)
	assert.Equal(t, SlotBlocked, s.Status)

	_, err = svc.BlockSlot(ctx, mentor, id)
	assert.ErrorIs(t, err, ErrSlotStateConflict)

	_, err = svc.UnblockSlot(ctx, other, id)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	s, err = svc.UnblockSlot(ctx, mentor, id)
	require.NoError(t, err)
	assert.Equal(t, SlotOpen, s.Status)

	s, err = svc.BlockSlot(ctx, admin, slots[1].ID)
	require.NoError(t, err)
	assert.Equal(t, SlotBlocked, s.Status)

	_, err = svc.BlockSlot(ctx, mentor, "missing")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestSweepPastSlots(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	_, err := svc.Create(ctx, mentor, mondayRequest())
	require.NoError(t, err)

	// A week later the first Monday's slots are in the past.
	svc.now = func() time.Time { return fixedNow.AddDate(0, 0, 7) }
	n, err := svc.SweepPastSlots(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, total, err := svc.ListSlots(ctx, SlotFilter{MentorID: "mentor"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
