package course

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
	Create(ctx context.Context, c *Course) error
	GetByID(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context, filter Filter) ([]*Course, int, error)
	Update(ctx context.Context, c *Course) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var sortColumns = map[string]string{
	"title":      "c.title",
	"level":      "c.level",
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
}

func selectCourses() squirrel.SelectBuilder {
	return db.PSQL.Select(
		"c.id", "c.mentor_id", "COALESCE(u.display_name, u.email)", "c.category_id", "cat.name",
		"c.title", "c.description", "c.level", "c.is_published", "c.created_at", "c.updated_at",
	).
		From("public.courses c").
		Join("public.users u ON u.id = c.mentor_id").
		Join("public.categories cat ON cat.id = c.category_id")
}

func scanCourse(row pgx.Row, extra ...any) (*Course, error) {
	var c Course
	dest := []any{
		&c.ID, &c.MentorID, &c.MentorName, &c.CategoryID, &c.CategoryName,
		&c.Title, &c.Description, &c.Level, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

func isForeignKeyViolation(err error) bool {
	var e *pgconn.PgError
	return errors.As(err, &e) && e.Code == pgerrcode.ForeignKeyViolation
}

func (r *pgxRepository) Create(ctx context.Context, c *Course) error {
	query, args, err := db.PSQL.Insert("public.courses").
		Columns("mentor_id", "category_id", "title", "description", "level", "is_published").
		Values(c.MentorID, c.CategoryID, c.Title, c.Description, c.Level, c.IsPublished).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create course query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("create course failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Course, error) {
	query, args, err := selectCourses().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get course query failed: %w", err)
	}

	c, err := scanCourse(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course failed: %w", err)
	}
	return c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Course, int, error) {
	query := selectCourses().Column("count(*) OVER() AS total_count")

	if filter.CategoryID != "" {
		query = query.Where(squirrel.Eq{"c.category_id": filter.CategoryID})
	}
	if filter.MentorID != "" {
		query = query.Where(squirrel.Eq{"c.mentor_id": filter.MentorID})
	}
	if filter.Level != "" {
		query = query.Where(squirrel.Eq{"c.level": filter.Level})
	}
	if filter.Keyword != "" {
		query = query.Where(squirrel.Or{
			squirrel.ILike{"c.title": "%" + filter.Keyword + "%"},
			squirrel.ILike{"c.description": "%" + filter.Keyword + "%"},
		})
	}
	if filter.Published != nil {
		query = query.Where(squirrel.Eq{"c.is_published": *filter.Published})
	}
	if filter.VisibleTo != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"c.is_published": true},
			squirrel.Eq{"c.mentor_id": filter.VisibleTo},
		})
	}

	limit, offset := db.Paginate(filter.Page, filter.PageSize)
	query = query.
		OrderBy(db.OrderBy(sortColumns, filter.SortBy, "c.created_at", filter.SortOrder)).
		Limit(limit).Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list courses query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list courses failed: %w", err)
	}
	defer rows.Close()

	var result []*Course
	var total int
	for rows.Next() {
		c, err := scanCourse(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan course failed: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate courses failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, c *Course) error {
	query, args, err := db.PSQL.Update("public.courses").
		Set("category_id", c.CategoryID).
		Set("title", c.Title).
		Set("description", c.Description).
		Set("level", c.Level).
		Set("is_published", c.IsPublished).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update course query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("update course failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM public.courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
