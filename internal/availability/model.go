package availability

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("availability not found")
	ErrSlotNotFound     = apperror.NotFound("time slot not found")
	ErrPermissionDenied = apperror.Forbidden("permission denied")
	ErrOnlyMentors      = apperror.Forbidden("only mentors can publish availability")

	ErrInvalidDateRange   = apperror.BadRequest("start_date must not be after end_date")
	ErrRangeTooLong       = apperror.BadRequest("availability may span at most 12 weeks")
	ErrNoWeekdays         = apperror.BadRequest("at least one weekday is required")
	ErrInvalidWeekday     = apperror.BadRequest("weekdays must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidClock       = apperror.BadRequest("daily times must be HH:MM")
	ErrInvalidDailyHours  = apperror.BadRequest("day_start must be before day_end")
	ErrInvalidDuration    = apperror.BadRequest("session length must be between 15 and 240 minutes")
	ErrInvalidBuffer      = apperror.BadRequest("buffer must be between 0 and 120 minutes")
	ErrDurationExceedsDay = apperror.BadRequest("session length exceeds the daily working hours")
	ErrInvalidTimezone    = apperror.BadRequest("unknown time zone")

	ErrInvalidSlotRange  = apperror.BadRequest("slot start must be before its end")
	ErrSlotOutsideWindow = apperror.BadRequest("slot lies outside the mentor's working hours")
	ErrSlotInPast        = apperror.BadRequest("slot must start in the future")

	ErrWindowOverlap     = apperror.Conflict("availability overlaps another availability on a shared weekday")
	ErrSlotOverlap       = apperror.Conflict("slot overlaps another slot")
	ErrBookedSlotsRemain = apperror.Conflict("availability still has upcoming booked slots")
	ErrSlotStateConflict = apperror.New(http.StatusConflict, "slot is not in the expected state")
)

// Availability is a mentor's persisted availability window.
type Availability struct {
	ID       string
	MentorID string
	Window
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SlotStatus string

const (
	SlotOpen    SlotStatus = "open"
	SlotBooked  SlotStatus = "booked"
	SlotBlocked SlotStatus = "blocked"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotOpen, SlotBooked, SlotBlocked:
		return true
	}
	return false
}

// Slot is a bookable interval of a mentor's time.
type Slot struct {
	ID             string
	MentorID       string
	AvailabilityID *string // nil for ad-hoc slots
	Start          time.Time
	End            time.Time
	Status         SlotStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Interval returns the slot's time range.
func (s *Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// SlotFilter defines parameters for listing slots.
type SlotFilter struct {
	MentorID string
	From     *time.Time // slots starting at or after
	To       *time.Time // slots starting before
	Status   SlotStatus
	Page     int
	PageSize int
}
