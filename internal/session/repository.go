package session

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

type Repository interface {
	// Book moves the slot from open to booked and stores s as a pending
	// session in one transaction. MentorID, StartTime and EndTime are taken
	// from the slot.
	Book(ctx context.Context, s *Session, now time.Time) error
	GetByID(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, filter Filter) ([]*Session, int, error)
	// UpdateStatus moves the session from one status to another. With
	// releaseSlot the booked slot is reopened when it starts after now.
	UpdateStatus(ctx context.Context, id string, from, to Status, reason string, releaseSlot bool, now time.Time) error
	// Reschedule books next.SlotID, marks old as rescheduled, reopens the old
	// slot and stores next as a pending session in one transaction.
	Reschedule(ctx context.Context, old *Session, next *Session, now time.Time) error

	// CompleteEnded completes approved sessions that ended at or before now.
	CompleteEnded(ctx context.Context, now time.Time) (int64, error)
	// ExpirePending cancels pending sessions that started at or before now.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	// ClaimReminders marks up to limit approved sessions starting in
	// (now, until] as reminded and returns them. Rows locked by a concurrent
	// claim are skipped.
	ClaimReminders(ctx context.Context, now, until time.Time, limit int) ([]*Session, error)
	// ReleaseReminder clears the reminder mark so a later run retries.
	ReleaseReminder(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var sortColumns = map[string]string{
	"start_time": "s.start_time",
	"created_at": "s.created_at",
	"status":     "s.status",
}

var sessionColumns = []string{
	"s.id", "s.slot_id",
	"s.mentor_id", "COALESCE(m.display_name, m.email)", "m.email",
	"s.learner_id", "COALESCE(l.display_name, l.email)", "l.email",
	"s.course_id", "c.title",
	"s.start_time", "s.end_time", "s.topic", "s.notes", "s.status",
	"s.rescheduled_from_id", "s.cancel_reason", "s.reminder_sent_at",
	"s.created_at", "s.updated_at",
}

func selectSessions(from string) squirrel.SelectBuilder {
	return db.PSQL.Select(sessionColumns...).
		From(from).
		Join("public.users m ON m.id = s.mentor_id").
		Join("public.users l ON l.id = s.learner_id").
		LeftJoin("public.courses c ON c.id = s.course_id")
}

func scanSession(row pgx.Row, extra ...any) (*Session, error) {
	var s Session
	dest := []any{
		&s.ID, &s.SlotID,
		&s.MentorID, &s.MentorName, &s.MentorEmail,
		&s.LearnerID, &s.LearnerName, &s.LearnerEmail,
		&s.CourseID, &s.CourseTitle,
		&s.StartTime, &s.EndTime, &s.Topic, &s.Notes, &s.Status,
		&s.RescheduledFromID, &s.CancelReason, &s.ReminderSentAt,
		&s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &s, nil
}

func pgErrorCode(err error) string {
	var e *pgconn.PgError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// bookSlot flips an open future slot to booked and returns its owner and times.
func bookSlot(ctx context.Context, tx pgx.Tx, s *Session, now time.Time) error {
	err := tx.QueryRow(ctx, `
		UPDATE public.time_slots SET status = 'booked', updated_at = now()
		WHERE id = $1 AND status = 'open' AND start_time > $2
		RETURNING mentor_id, start_time, end_time
	`, *s.SlotID, now).Scan(&s.MentorID, &s.StartTime, &s.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("book slot failed: %w", err)
	}
	return nil
}

func insertSession(ctx context.Context, tx pgx.Tx, s *Session) error {
	query, args, err := db.PSQL.Insert("public.sessions").
		Columns("slot_id", "mentor_id", "learner_id", "course_id", "start_time", "end_time",
			"topic", "notes", "status", "rescheduled_from_id").
		Values(s.SlotID, s.MentorID, s.LearnerID, s.CourseID, s.StartTime, s.EndTime,
			s.Topic, s.Notes, s.Status, s.RescheduledFromID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		switch pgErrorCode(err) {
		case pgerrcode.UniqueViolation:
			return ErrSlotUnavailable
		case pgerrcode.ForeignKeyViolation:
			return ErrCourseNotFound
		}
		return fmt.Errorf("insert session failed: %w", err)
	}
	return nil
}

func releaseSlot(ctx context.Context, tx pgx.Tx, slotID *string, now time.Time) error {
	if slotID == nil {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		UPDATE public.time_slots SET status = 'open', updated_at = now()
		WHERE id = $1 AND status = 'booked' AND start_time > $2
	`, *slotID, now); err != nil {
		return fmt.Errorf("release slot failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Book(ctx context.Context, s *Session, now time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := bookSlot(ctx, tx, s, now); err != nil {
			return err
		}
		if s.MentorID == s.LearnerID {
			return ErrSelfBooking
		}
		return insertSession(ctx, tx, s)
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	query, args, err := selectSessions("public.sessions s").Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get session query failed: %w", err)
	}

	s, err := scanSession(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Session, int, error) {
	query := selectSessions("public.sessions s").Column("count(*) OVER() AS total_count")

	if filter.MentorID != "" {
		query = query.Where(squirrel.Eq{"s.mentor_id": filter.MentorID})
	}
	if filter.LearnerID != "" {
		query = query.Where(squirrel.Eq{"s.learner_id": filter.LearnerID})
	}
	if filter.ParticipantID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"s.mentor_id": filter.ParticipantID},
			squirrel.Eq{"s.learner_id": filter.ParticipantID},
		})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"s.status": filter.Status})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"s.start_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"s.start_time": *filter.To})
	}

	limit, offset := db.Paginate(filter.Page, filter.PageSize)
	query = query.
		OrderBy(db.OrderBy(sortColumns, filter.SortBy, "s.start_time", filter.SortOrder)).
		Limit(limit).Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list sessions query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions failed: %w", err)
	}
	defer rows.Close()

	var result []*Session
	var total int
	for rows.Next() {
		s, err := scanSession(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan session failed: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate sessions failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status, reason string, release bool, now time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var slotID *string
		err := tx.QueryRow(ctx, `
			UPDATE public.sessions SET status = $1, cancel_reason = $2, updated_at = now()
			WHERE id = $3 AND status = $4
			RETURNING slot_id
		`, to, reason, id, from).Scan(&slotID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStatusConflict
			}
			return fmt.Errorf("update session status failed: %w", err)
		}
		if !release {
			return nil
		}
		return releaseSlot(ctx, tx, slotID, now)
	})
}

func (r *pgxRepository) Reschedule(ctx context.Context, old *Session, next *Session, now time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := bookSlot(ctx, tx, next, now); err != nil {
			return err
		}
		if next.MentorID != old.MentorID {
			return ErrDifferentMentor
		}

		ct, err := tx.Exec(ctx, `
			UPDATE public.sessions SET status = 'rescheduled', updated_at = now()
			WHERE id = $1 AND status = $2
		`, old.ID, old.Status)
		if err != nil {
			return fmt.Errorf("mark session rescheduled failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrStatusConflict
		}

		if err := releaseSlot(ctx, tx, old.SlotID, now); err != nil {
			return err
		}
		return insertSession(ctx, tx, next)
	})
}

func (r *pgxRepository) CompleteEnded(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE public.sessions SET status = 'completed', updated_at = now()
		WHERE status = 'approved' AND end_time <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("complete ended sessions failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE public.sessions SET status = 'cancelled', cancel_reason = $1, updated_at = now()
		WHERE status = 'pending' AND start_time <= $2
	`, ReasonExpired, now)
	if err != nil {
		return 0, fmt.Errorf("expire pending sessions failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) ClaimReminders(ctx context.Context, now, until time.Time, limit int) ([]*Session, error) {
	query, args, err := selectSessions("claimed s").
		Prefix(`
			WITH claimed AS (
				UPDATE public.sessions SET reminder_sent_at = ?
				WHERE id IN (
					SELECT id FROM public.sessions
					WHERE status = 'approved' AND reminder_sent_at IS NULL
					  AND start_time > ? AND start_time <= ?
					ORDER BY start_time
					LIMIT ?
					FOR UPDATE SKIP LOCKED
				)
				RETURNING *
			)`, now, now, until, limit).
		OrderBy("s.start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build claim reminders query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("claim reminders failed: %w", err)
	}
	claimed, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Session, error) {
		return scanSession(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan claimed session failed: %w", err)
	}
	return claimed, nil
}

func (r *pgxRepository) ReleaseReminder(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE public.sessions SET reminder_sent_at = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("release reminder failed: %w", err)
	}
	return nil
}
