package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/mentorship-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, res *Resource) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var sortColumns = map[string]string{
	"title":      "r.title",
	"kind":       "r.kind",
	"created_at": "r.created_at",
}

func selectResources() squirrel.SelectBuilder {
	return db.PSQL.Select(
		"r.id", "r.owner_id", "COALESCE(u.display_name, u.email)", "r.course_id",
		"r.title", "r.description", "r.kind", "r.url", "r.file_id", "r.created_at", "r.updated_at",
	).
		From("public.resources r").
		Join("public.users u ON u.id = r.owner_id")
}

func scanResource(row pgx.Row, extra ...any) (*Resource, error) {
	var res Resource
	dest := []any{
		&res.ID, &res.OwnerID, &res.OwnerName, &res.CourseID,
		&res.Title, &res.Description, &res.Kind, &res.URL, &res.FileID, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	query, args, err := db.PSQL.Insert("public.resources").
		Columns("owner_id", "course_id", "title", "description", "kind", "url").
		Values(res.OwnerID, res.CourseID, res.Title, res.Description, res.Kind, res.URL).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create resource query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	query, args, err := selectResources().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get resource query failed: %w", err)
	}

	res, err := scanResource(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	query := selectResources().Column("count(*) OVER() AS total_count")

	if filter.CourseID != "" {
		query = query.Where(squirrel.Eq{"r.course_id": filter.CourseID})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"r.owner_id": filter.OwnerID})
	}
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"r.kind": filter.Kind})
	}
	if filter.Keyword != "" {
		query = query.Where(squirrel.Or{
			squirrel.ILike{"r.title": "%" + filter.Keyword + "%"},
			squirrel.ILike{"r.description": "%" + filter.Keyword + "%"},
		})
	}

	limit, offset := db.Paginate(filter.Page, filter.PageSize)
	query = query.
		OrderBy(db.OrderBy(sortColumns, filter.SortBy, "r.created_at", filter.SortOrder)).
		Limit(limit).Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	var total int
	for rows.Next() {
		res, err := scanResource(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resources failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	query, args, err := db.PSQL.Update("public.resources").
		Set("course_id", res.CourseID).
		Set("title", res.Title).
		Set("description", res.Description).
		Set("url", res.URL).
		Set("file_id", res.FileID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update resource query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM public.resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
