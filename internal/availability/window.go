package availability

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
)

const (
	MinSessionMinutes = 15
	MaxSessionMinutes = 240
	MaxBufferMinutes  = 120
	MaxRangeDays      = 12 * 7

	minutesPerDay = 24 * 60
)

// Clock is a wall-clock time of day in minutes after midnight.
type Clock int

// ParseClock accepts "HH:MM" or "HH:MM:SS"; seconds are dropped. "24:00"
// marks a working day that ends at midnight.
func ParseClock(s string) (Clock, error) {
	m, err := request.ParseClock(s)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return Clock(m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two half-open intervals intersect.
// Touching intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Window is the configuration slots are generated from.
type Window struct {
	StartDate      time.Time // calendar date, time of day ignored
	EndDate        time.Time // inclusive
	Weekdays       []time.Weekday
	DayStart       Clock
	DayEnd         Clock
	SessionMinutes int
	BufferMinutes  int
	Timezone       string
}

// Validate checks the window's configuration.
func (w Window) Validate() error {
	if _, err := w.location(); err != nil {
		return err
	}

	start, end := civilDate(w.StartDate), civilDate(w.EndDate)
	if start.After(end) {
		return ErrInvalidDateRange
	}
	if daysBetween(start, end)+1 > MaxRangeDays {
		return ErrRangeTooLong
	}

	if len(w.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	for _, d := range w.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return ErrInvalidWeekday
		}
	}

	if w.DayStart < 0 || w.DayEnd > minutesPerDay || w.DayStart >= w.DayEnd {
		return ErrInvalidDailyHours
	}
	if w.SessionMinutes < MinSessionMinutes || w.SessionMinutes > MaxSessionMinutes {
		return ErrInvalidDuration
	}
	if w.BufferMinutes < 0 || w.BufferMinutes > MaxBufferMinutes {
		return ErrInvalidBuffer
	}
	if Clock(w.SessionMinutes) > w.DayEnd-w.DayStart {
		return ErrDurationExceedsDay
	}
	return nil
}

func (w Window) location() (*time.Location, error) {
	if w.Timezone == "" {
		return nil, ErrInvalidTimezone
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

// worksOn reports whether day (a civil date) is a working day of the window.
func (w Window) worksOn(day time.Time) bool {
	if day.Before(civilDate(w.StartDate)) || day.After(civilDate(w.EndDate)) {
		return false
	}
	return slices.Contains(w.Weekdays, day.Weekday())
}

// Overlaps reports whether the two windows share at least one working day.
func (w Window) Overlaps(o Window) bool {
	from := latest(civilDate(w.StartDate), civilDate(o.StartDate))
	to := earliest(civilDate(w.EndDate), civilDate(o.EndDate))
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if w.worksOn(d) && o.worksOn(d) {
			return true
		}
	}
	return false
}

// workingHours returns the absolute working interval on the given civil date.
func (w Window) workingHours(day time.Time, loc *time.Location) Interval {
	return Interval{
		Start: wallTime(day, w.DayStart, loc),
		End:   wallTime(day, w.DayEnd, loc),
	}
}

// GenerateSlots expands a window into its bookable slots, sorted by start and
// expressed in UTC. Each working day yields [t, t+session) for t starting at
// the day's start and advancing by session+buffer while the slot still ends
// by the day's end. Wall times a DST change skips are normalised by time.Date.
func GenerateSlots(w Window) ([]Interval, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	loc, _ := w.location()

	step := Clock(w.SessionMinutes + w.BufferMinutes)
	length := Clock(w.SessionMinutes)

	var slots []Interval
	for day := civilDate(w.StartDate); !day.After(civilDate(w.EndDate)); day = day.AddDate(0, 0, 1) {
		if !w.worksOn(day) {
			continue
		}
		for t := w.DayStart; t+length <= w.DayEnd; t += step {
			slot := Interval{
				Start: wallTime(day, t, loc).UTC(),
				End:   wallTime(day, t+length, loc).UTC(),
			}
			if !slot.Start.Before(slot.End) {
				continue
			}
			// Ambiguous wall times around a DST fall-back may collide.
			if n := len(slots); n > 0 && slots[n-1].Overlaps(slot) {
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// ValidateSlots checks that every slot is a proper interval inside the
// working hours of one of the window's working days, and that no two slots
// overlap.
func ValidateSlots(w Window, slots []Interval) error {
	if err := w.Validate(); err != nil {
		return err
	}
	loc, _ := w.location()

	for i, s := range slots {
		if !s.Start.Before(s.End) {
			return fmt.Errorf("slot %d: %w", i, ErrInvalidSlotRange)
		}
		if !w.contains(s, loc) {
			return fmt.Errorf("slot %d: %w", i, ErrSlotOutsideWindow)
		}
	}

	sorted := slices.Clone(slots)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Start.Before(sorted[b].Start) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Overlaps(sorted[i]) {
			return fmt.Errorf("slot at %s: %w", sorted[i].Start.Format(time.RFC3339), ErrSlotOverlap)
		}
	}
	return nil
}

func (w Window) contains(s Interval, loc *time.Location) bool {
	day := civilDate(s.Start.In(loc))
	if !w.worksOn(day) {
		return false
	}
	hours := w.workingHours(day, loc)
	return !s.Start.Before(hours.Start) && !s.End.After(hours.End)
}

// Contains reports whether the interval fits inside the window's working hours.
func (w Window) Contains(s Interval) bool {
	loc, err := w.location()
	if err != nil {
		return false
	}
	return s.Start.Before(s.End) && w.contains(s, loc)
}

// civilDate strips the time of day, keeping the calendar date as seen in t's location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func wallTime(day time.Time, c Clock, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, int(c), 0, 0, loc)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
