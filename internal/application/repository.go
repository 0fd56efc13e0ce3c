package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/mentorship-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context, filter Filter) ([]*Application, int, error)
	// Resubmit stores the applicant's edits and moves the application from
	// waiting_info back to submitted.
	Resubmit(ctx context.Context, a *Application) error
	// Review moves the application from one status to another. Approval also
	// promotes the applicant to mentor in the same transaction.
	Review(ctx context.Context, id string, from, to Status, reviewerID, note string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var sortColumns = map[string]string{
	"created_at": "a.created_at",
	"updated_at": "a.updated_at",
	"status":     "a.status",
}

func selectApplications() squirrel.SelectBuilder {
	return db.PSQL.Select(
		"a.id", "a.applicant_id", "COALESCE(u.display_name, u.email)", "u.email",
		"a.motivation", "a.expertise", "a.years_experience", "a.profile_url",
		"a.reviewer_note", "a.status", "a.reviewer_id", "a.created_at", "a.updated_at",
	).
		From("public.mentor_applications a").
		Join("public.users u ON u.id = a.applicant_id")
}

func scanApplication(row pgx.Row, extra ...any) (*Application, error) {
	var a Application
	dest := []any{
		&a.ID, &a.ApplicantID, &a.ApplicantName, &a.ApplicantEmail,
		&a.Motivation, &a.Expertise, &a.YearsExperience, &a.ProfileURL,
		&a.ReviewerNote, &a.Status, &a.ReviewerID, &a.CreatedAt, &a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *pgxRepository) Create(ctx context.Context, a *Application) error {
	query, args, err := db.PSQL.Insert("public.mentor_applications").
		Columns("applicant_id", "motivation", "expertise", "years_experience", "profile_url", "status").
		Values(a.ApplicantID, a.Motivation, a.Expertise, a.YearsExperience, a.ProfileURL, a.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create application query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrOpenApplication
		}
		return fmt.Errorf("create application failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Application, error) {
	query, args, err := selectApplications().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get application query failed: %w", err)
	}

	a, err := scanApplication(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get application failed: %w", err)
	}
	return a, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Application, int, error) {
	query := selectApplications().Column("count(*) OVER() AS total_count")

	if filter.ApplicantID != "" {
		query = query.Where(squirrel.Eq{"a.applicant_id": filter.ApplicantID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"a.status": filter.Status})
	}

	limit, offset := db.Paginate(filter.Page, filter.PageSize)
	query = query.
		OrderBy(db.OrderBy(sortColumns, filter.SortBy, "a.created_at", filter.SortOrder)).
		Limit(limit).Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list applications query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications failed: %w", err)
	}
	defer rows.Close()

	var result []*Application
	var total int
	for rows.Next() {
		a, err := scanApplication(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan application failed: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate applications failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) Resubmit(ctx context.Context, a *Application) error {
	query, args, err := db.PSQL.Update("public.mentor_applications").
		Set("motivation", a.Motivation).
		Set("expertise", a.Expertise).
		Set("years_experience", a.YearsExperience).
		Set("profile_url", a.ProfileURL).
		Set("status", StatusSubmitted).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID, "status": StatusWaitingInfo}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build resubmit application query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusConflict
		}
		return fmt.Errorf("resubmit application failed: %w", err)
	}
	a.Status = StatusSubmitted
	return nil
}

func (r *pgxRepository) Review(ctx context.Context, id string, from, to Status, reviewerID, note string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var applicantID string
		err := tx.QueryRow(ctx, `
			UPDATE public.mentor_applications
			SET status = $1, reviewer_id = $2, reviewer_note = $3, updated_at = now()
			WHERE id = $4 AND status = $5
			RETURNING applicant_id
		`, to, reviewerID, note, id, from).Scan(&applicantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStatusConflict
			}
			return fmt.Errorf("review application failed: %w", err)
		}

		if to != StatusApproved {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			UPDATE public.users SET role = 'mentor' WHERE id = $1 AND role = 'learner'
		`, applicantID); err != nil {
			return fmt.Errorf("promote applicant failed: %w", err)
		}
		return nil
	})
}
