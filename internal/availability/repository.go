package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/mentorship-backend/internal/db"
)

// slotInsertChunk keeps multi-row inserts well below PostgreSQL's parameter limit.
const slotInsertChunk = 500

type Repository interface {
	GetByID(ctx context.Context, id string) (*Availability, error)
	ListByMentor(ctx context.Context, mentorID string) ([]*Availability, error)
	// Create stores the window and its slots, skipping slots that collide
	// with the mentor's existing slots. It returns the number of slots stored.
	Create(ctx context.Context, a *Availability, slots []Interval) (int, error)
	// Update stores the new configuration, drops the window's open slots
	// starting after now and inserts the regenerated slots that do not
	// collide with the slots that remain.
	Update(ctx context.Context, a *Availability, slots []Interval, now time.Time) (int, error)
	// Delete removes the window unless it has booked slots starting after now.
	Delete(ctx context.Context, id string, now time.Time) error

	GetSlot(ctx context.Context, id string) (*Slot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]*Slot, int, error)
	InsertSlot(ctx context.Context, s *Slot) error
	// SetSlotStatus moves a future slot from one status to another, failing
	// with ErrSlotStateConflict when the slot is no longer in status from.
	SetSlotStatus(ctx context.Context, id string, from, to SlotStatus, now time.Time) error
	// DeleteOpenSlotsBefore removes open slots starting at or before t.
	DeleteOpenSlotsBefore(ctx context.Context, t time.Time) (int64, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const selectAvailability = `
	SELECT id, mentor_id, start_date, end_date, weekdays, day_start, day_end,
	       session_minutes, buffer_minutes, timezone, created_at, updated_at
	FROM public.availabilities
`

func scanAvailability(row pgx.Row) (*Availability, error) {
	var (
		a          Availability
		weekdays   []int32
		start, end string
	)
	if err := row.Scan(
		&a.ID, &a.MentorID, &a.StartDate, &a.EndDate, &weekdays, &start, &end,
		&a.SessionMinutes, &a.BufferMinutes, &a.Timezone, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if a.DayStart, err = ParseClock(start); err != nil {
		return nil, fmt.Errorf("stored day_start %q: %w", start, err)
	}
	if a.DayEnd, err = ParseClock(end); err != nil {
		return nil, fmt.Errorf("stored day_end %q: %w", end, err)
	}
	a.Weekdays = make([]time.Weekday, len(weekdays))
	for i, d := range weekdays {
		a.Weekdays[i] = time.Weekday(d)
	}
	return &a, nil
}

func weekdayInts(days []time.Weekday) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func isExclusionViolation(err error) bool {
	var e *pgconn.PgError
	return errors.As(err, &e) && e.Code == pgerrcode.ExclusionViolation
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Availability, error) {
	a, err := scanAvailability(r.pool.QueryRow(ctx, selectAvailability+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get availability failed: %w", err)
	}
	return a, nil
}

func (r *pgxRepository) ListByMentor(ctx context.Context, mentorID string) ([]*Availability, error) {
	return listByMentor(ctx, r.pool, mentorID)
}

func listByMentor(ctx context.Context, q db.DBTX, mentorID string) ([]*Availability, error) {
	rows, err := q.Query(ctx, selectAvailability+" WHERE mentor_id = $1 ORDER BY start_date, day_start", mentorID)
	if err != nil {
		return nil, fmt.Errorf("list availabilities failed: %w", err)
	}
	defer rows.Close()

	var result []*Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability failed: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availabilities failed: %w", err)
	}
	return result, nil
}

// lockMentor serialises schedule changes of one mentor until the transaction ends.
func lockMentor(ctx context.Context, tx pgx.Tx, mentorID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, mentorID); err != nil {
		return fmt.Errorf("lock mentor schedule failed: %w", err)
	}
	return nil
}

// checkNoOverlap rejects a when another window of the mentor shares a working day.
func checkNoOverlap(ctx context.Context, tx pgx.Tx, a *Availability) error {
	others, err := listByMentor(ctx, tx, a.MentorID)
	if err != nil {
		return err
	}
	for _, o := range others {
		if o.ID != a.ID && o.Window.Overlaps(a.Window) {
			return ErrWindowOverlap
		}
	}
	return nil
}

func (r *pgxRepository) Create(ctx context.Context, a *Availability, slots []Interval) (int, error) {
	var inserted int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockMentor(ctx, tx, a.MentorID); err != nil {
			return err
		}
		if err := checkNoOverlap(ctx, tx, a); err != nil {
			return err
		}

		const query = `
			INSERT INTO public.availabilities
				(mentor_id, start_date, end_date, weekdays, day_start, day_end, session_minutes, buffer_minutes, timezone)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRow(ctx, query,
			a.MentorID, a.StartDate, a.EndDate, weekdayInts(a.Weekdays), a.DayStart.String(), a.DayEnd.String(),
			a.SessionMinutes, a.BufferMinutes, a.Timezone,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return fmt.Errorf("create availability failed: %w", err)
		}

		var err error
		inserted, err = insertFreeSlots(ctx, tx, a.MentorID, a.ID, slots)
		return err
	})
	return inserted, err
}

func (r *pgxRepository) Update(ctx context.Context, a *Availability, slots []Interval, now time.Time) (int, error) {
	var inserted int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockMentor(ctx, tx, a.MentorID); err != nil {
			return err
		}
		if err := checkNoOverlap(ctx, tx, a); err != nil {
			return err
		}

		const query = `
			UPDATE public.availabilities
			SET start_date = $1, end_date = $2, weekdays = $3, day_start = $4, day_end = $5,
			    session_minutes = $6, buffer_minutes = $7, timezone = $8, updated_at = now()
			WHERE id = $9
			RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, query,
			a.StartDate, a.EndDate, weekdayInts(a.Weekdays), a.DayStart.String(), a.DayEnd.String(),
			a.SessionMinutes, a.BufferMinutes, a.Timezone, a.ID,
		).Scan(&a.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("update availability failed: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM public.time_slots
			WHERE availability_id = $1 AND status = 'open' AND start_time > $2
		`, a.ID, now); err != nil {
			return fmt.Errorf("clear open slots failed: %w", err)
		}

		var err error
		inserted, err = insertFreeSlots(ctx, tx, a.MentorID, a.ID, slots)
		return err
	})
	return inserted, err
}

// insertFreeSlots inserts the slots (sorted by start) that do not overlap
// any slot the mentor already has.
func insertFreeSlots(ctx context.Context, tx pgx.Tx, mentorID, availabilityID string, slots []Interval) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT start_time, end_time FROM public.time_slots
		WHERE mentor_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`, mentorID, slots[0].Start, slots[len(slots)-1].End)
	if err != nil {
		return 0, fmt.Errorf("load existing slots failed: %w", err)
	}
	existing, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Interval, error) {
		var i Interval
		err := row.Scan(&i.Start, &i.End)
		return i, err
	})
	if err != nil {
		return 0, fmt.Errorf("scan existing slots failed: %w", err)
	}

	free := make([]Interval, 0, len(slots))
	for _, s := range slots {
		if !overlapsAny(s, existing) {
			free = append(free, s)
		}
	}

	for start := 0; start < len(free); start += slotInsertChunk {
		end := min(start+slotInsertChunk, len(free))
		insert := db.PSQL.Insert("public.time_slots").
			Columns("mentor_id", "availability_id", "start_time", "end_time")
		for _, s := range free[start:end] {
			insert = insert.Values(mentorID, availabilityID, s.Start, s.End)
		}

		sql, args, err := insert.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert slots query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if isExclusionViolation(err) {
				return 0, ErrSlotOverlap
			}
			return 0, fmt.Errorf("insert slots failed: %w", err)
		}
	}
	return len(free), nil
}

func overlapsAny(s Interval, existing []Interval) bool {
	for _, e := range existing {
		if e.Overlaps(s) {
			return true
		}
	}
	return false
}

func (r *pgxRepository) Delete(ctx context.Context, id string, now time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Locking the upcoming slots makes concurrent bookings wait for this
		// transaction and then find the slot gone.
		rows, err := tx.Query(ctx, `
			SELECT status FROM public.time_slots
			WHERE availability_id = $1 AND start_time > $2
			FOR UPDATE
		`, id, now)
		if err != nil {
			return fmt.Errorf("lock availability slots failed: %w", err)
		}
		statuses, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("scan slot status failed: %w", err)
		}
		for _, st := range statuses {
			if SlotStatus(st) == SlotBooked {
				return ErrBookedSlotsRemain
			}
		}

		ct, err := tx.Exec(ctx, `DELETE FROM public.availabilities WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete availability failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

const selectSlot = `
	SELECT id, mentor_id, availability_id, start_time, end_time, status, created_at, updated_at
	FROM public.time_slots
`

func scanSlot(row pgx.Row, extra ...any) (*Slot, error) {
	var s Slot
	dest := []any{&s.ID, &s.MentorID, &s.AvailabilityID, &s.Start, &s.End, &s.Status, &s.CreatedAt, &s.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgxRepository) GetSlot(ctx context.Context, id string) (*Slot, error) {
	s, err := scanSlot(r.pool.QueryRow(ctx, selectSlot+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) ListSlots(ctx context.Context, filter SlotFilter) ([]*Slot, int, error) {
	query := db.PSQL.Select(
		"id", "mentor_id", "availability_id", "start_time", "end_time", "status", "created_at", "updated_at",
		"count(*) OVER() AS total_count",
	).From("public.time_slots")

	if filter.MentorID != "" {
		query = query.Where(squirrel.Eq{"mentor_id": filter.MentorID})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"start_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"start_time": *filter.To})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	limit, offset := db.Paginate(filter.Page, filter.PageSize)
	query = query.OrderBy("start_time ASC").Limit(limit).Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list slots query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list slots failed: %w", err)
	}
	defer rows.Close()

	var result []*Slot
	var total int
	for rows.Next() {
		s, err := scanSlot(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan slot failed: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate slots failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) InsertSlot(ctx context.Context, s *Slot) error {
	const query = `
		INSERT INTO public.time_slots (mentor_id, availability_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query, s.MentorID, s.AvailabilityID, s.Start, s.End, s.Status).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if isExclusionViolation(err) {
			return ErrSlotOverlap
		}
		return fmt.Errorf("insert slot failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) SetSlotStatus(ctx context.Context, id string, from, to SlotStatus, now time.Time) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE public.time_slots SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND start_time > $4
	`, to, id, from, now)
	if err != nil {
		return fmt.Errorf("update slot status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSlotStateConflict
	}
	return nil
}

func (r *pgxRepository) DeleteOpenSlotsBefore(ctx context.Context, t time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM public.time_slots WHERE status = 'open' AND start_time <= $1`, t)
	if err != nil {
		return 0, fmt.Errorf("delete past open slots failed: %w", err)
	}
	return ct.RowsAffected(), nil
}
