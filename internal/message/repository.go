package message

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/mentorship-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// ListConversation returns the messages exchanged by two users, newest first.
	ListConversation(ctx context.Context, userID, peerID string, page, pageSize int) ([]*Message, int, error)
	// ListConversations returns one entry per peer, most recent first.
	ListConversations(ctx context.Context, userID string, page, pageSize int) ([]*Conversation, int, error)
	// MarkRead marks unread messages from peerID to userID as read.
	MarkRead(ctx context.Context, userID, peerID string, at time.Time) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, m *Message) error {
	query, args, err := db.PSQL.Insert("public.messages").
		Columns("sender_id", "recipient_id", "body").
		Values(m.SenderID, m.RecipientID, m.Body).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create message query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ListConversation(ctx context.Context, userID, peerID string, page, pageSize int) ([]*Message, int, error) {
	limit, offset := db.Paginate(page, pageSize)
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, body, created_at, read_at, count(*) OVER()
		FROM public.messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, userID, peerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversation failed: %w", err)
	}
	defer rows.Close()

	var result []*Message
	var total int
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt, &m.ReadAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan message failed: %w", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) ListConversations(ctx context.Context, userID string, page, pageSize int) ([]*Conversation, int, error) {
	limit, offset := db.Paginate(page, pageSize)
	rows, err := r.pool.Query(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (peer_id) m.*, peer_id
			FROM public.messages m,
			     LATERAL (SELECT CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END AS peer_id) p
			WHERE m.sender_id = $1 OR m.recipient_id = $1
			ORDER BY peer_id, m.created_at DESC, m.id DESC
		)
		SELECT l.peer_id, COALESCE(u.display_name, u.email),
		       l.id, l.sender_id, l.recipient_id, l.body, l.created_at, l.read_at,
		       (SELECT count(*) FROM public.messages x
		        WHERE x.sender_id = l.peer_id AND x.recipient_id = $1 AND x.read_at IS NULL),
		       count(*) OVER()
		FROM latest l
		JOIN public.users u ON u.id = l.peer_id
		ORDER BY l.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations failed: %w", err)
	}
	defer rows.Close()

	var result []*Conversation
	var total int
	for rows.Next() {
		var c Conversation
		m := &c.LastMessage
		if err := rows.Scan(
			&c.PeerID, &c.PeerName,
			&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt, &m.ReadAt,
			&c.UnreadCount, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan conversation failed: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate conversations failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) MarkRead(ctx context.Context, userID, peerID string, at time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE public.messages SET read_at = $1
		WHERE recipient_id = $2 AND sender_id = $3 AND read_at IS NULL
	`, at, userID, peerID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT count(*) FROM public.messages WHERE recipient_id = $1 AND read_at IS NULL
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread messages failed: %w", err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("scan unread count failed: %w", err)
	}
	return n, nil
}
