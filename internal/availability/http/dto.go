package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/availability"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
)

const dateLayout = "2006-01-02"

// WindowBody is the payload for creating or replacing an availability window.
type WindowBody struct {
	StartDate      string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate        string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Weekdays       []int  `json:"weekdays" binding:"required,min=1,max=7,dive,weekday"`
	DayStart       string `json:"day_start" binding:"required,clock"`
	DayEnd         string `json:"day_end" binding:"required,clock"`
	SessionMinutes int    `json:"session_minutes" binding:"required,min=15,max=240"`
	BufferMinutes  int    `json:"buffer_minutes" binding:"min=0,max=120"`
	Timezone       string `json:"timezone" binding:"required,timezone"`
}

func (b WindowBody) toRequest() (availability.WindowRequest, error) {
	start, err := time.Parse(dateLayout, b.StartDate)
	if err != nil {
		return availability.WindowRequest{}, err
	}
	end, err := time.Parse(dateLayout, b.EndDate)
	if err != nil {
		return availability.WindowRequest{}, err
	}
	days := make([]time.Weekday, len(b.Weekdays))
	for i, d := range b.Weekdays {
		days[i] = time.Weekday(d)
	}
	return availability.WindowRequest{
		StartDate:      start,
		EndDate:        end,
		Weekdays:       days,
		DayStart:       b.DayStart,
		DayEnd:         b.DayEnd,
		SessionMinutes: b.SessionMinutes,
		BufferMinutes:  b.BufferMinutes,
		Timezone:       b.Timezone,
	}, nil
}

type AvailabilityResponse struct {
	ID             string    `json:"id"`
	MentorID       string    `json:"mentor_id"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Weekdays       []int     `json:"weekdays"`
	DayStart       string    `json:"day_start"`
	DayEnd         string    `json:"day_end"`
	SessionMinutes int       `json:"session_minutes"`
	BufferMinutes  int       `json:"buffer_minutes"`
	Timezone       string    `json:"timezone"`
	SlotsCreated   *int      `json:"slots_created,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewAvailabilityResponse(a *availability.Availability) AvailabilityResponse {
	days := make([]int, len(a.Weekdays))
	for i, d := range a.Weekdays {
		days[i] = int(d)
	}
	return AvailabilityResponse{
		ID:             a.ID,
		MentorID:       a.MentorID,
		StartDate:      a.StartDate.Format(dateLayout),
		EndDate:        a.EndDate.Format(dateLayout),
		Weekdays:       days,
		DayStart:       a.DayStart.String(),
		DayEnd:         a.DayEnd.String(),
		SessionMinutes: a.SessionMinutes,
		BufferMinutes:  a.BufferMinutes,
		Timezone:       a.Timezone,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func newResultResponse(r *availability.Result) AvailabilityResponse {
	resp := NewAvailabilityResponse(r.Availability)
	n := r.SlotsCreated
	resp.SlotsCreated = &n
	return resp
}

type SlotResponse struct {
	ID             string    `json:"id"`
	MentorID       string    `json:"mentor_id"`
	AvailabilityID *string   `json:"availability_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         string    `json:"status"`
}

func NewSlotResponse(s *availability.Slot) SlotResponse {
	return SlotResponse{
		ID:             s.ID,
		MentorID:       s.MentorID,
		AvailabilityID: s.AvailabilityID,
		StartTime:      s.Start.UTC(),
		EndTime:        s.End.UTC(),
		Status:         string(s.Status),
	}
}

// ListSlotsRequest filters a mentor's slots. Without from, only upcoming slots are listed.
type ListSlotsRequest struct {
	request.ListParams
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Status string     `form:"status" binding:"omitempty,oneof=open booked blocked"`
}

type AddSlotBody struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
}
