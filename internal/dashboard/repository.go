package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/mentorship-backend/internal/db"
)

type Repository interface {
	CountUsersByRole(ctx context.Context) (map[string]int, error)
	// CountSessionsByStatus counts every session, or only the mentor's when
	// mentorID is set.
	CountSessionsByStatus(ctx context.Context, mentorID string) (map[string]int, error)
	CountOpenApplications(ctx context.Context) (int, error)
	CountCourses(ctx context.Context) (int, error)
	CountOpenSlots(ctx context.Context, mentorID string, after time.Time) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, db.PSQL.Select("role", "count(*)").
		From("public.users").
		Where(squirrel.Eq{"is_active": true}).
		GroupBy("role"))
}

func (r *pgxRepository) CountSessionsByStatus(ctx context.Context, mentorID string) (map[string]int, error) {
	builder := db.PSQL.Select("status", "count(*)").
		From("public.sessions").
		GroupBy("status")
	if mentorID != "" {
		builder = builder.Where(squirrel.Eq{"mentor_id": mentorID})
	}
	return r.countBy(ctx, builder)
}

func (r *pgxRepository) CountOpenApplications(ctx context.Context) (int, error) {
	return r.count(ctx, db.PSQL.Select("count(*)").
		From("public.mentor_applications").
		Where(squirrel.Eq{"status": []string{"submitted", "waiting_info"}}))
}

func (r *pgxRepository) CountCourses(ctx context.Context) (int, error) {
	return r.count(ctx, db.PSQL.Select("count(*)").From("public.courses"))
}

func (r *pgxRepository) CountOpenSlots(ctx context.Context, mentorID string, after time.Time) (int, error) {
	return r.count(ctx, db.PSQL.Select("count(*)").
		From("public.time_slots").
		Where(squirrel.Eq{"mentor_id": mentorID, "status": "open"}).
		Where(squirrel.Gt{"start_time": after}))
}

func (r *pgxRepository) count(ctx context.Context, builder squirrel.SelectBuilder) (int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) countBy(ctx context.Context, builder squirrel.SelectBuilder) (map[string]int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build grouped count query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("grouped count failed: %w", err)
	}

	type bucket struct {
		Key   string
		Count int
	}
	buckets, err := pgx.CollectRows(rows, pgx.RowToStructByPos[bucket])
	if err != nil {
		return nil, fmt.Errorf("scan grouped count failed: %w", err)
	}

	counts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		counts[b.Key] = b.Count
	}
	return counts, nil
}
