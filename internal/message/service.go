package message

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/user"
)

type Service interface {
	Send(ctx context.Context, actor auth.Actor, recipientID, body string) (*Message, error)
	ListConversation(ctx context.Context, actor auth.Actor, peerID string, page, pageSize int) ([]*Message, int, error)
	ListConversations(ctx context.Context, actor auth.Actor, page, pageSize int) ([]*Conversation, int, error)
	MarkRead(ctx context.Context, actor auth.Actor, peerID string) (int64, error)
	UnreadCount(ctx context.Context, actor auth.Actor) (int, error)
	// Subscribe streams messages sent to the actor from now on.
	Subscribe(actor auth.Actor) (<-chan *Message, func())
}

// UserLookup is the part of user.Service messaging depends on.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type service struct {
	repo   Repository
	users  UserLookup
	hub    *Hub
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, users UserLookup, hub *Hub, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		users:  users,
		hub:    hub,
		logger: logger,
		now:    time.Now,
	}
}

func (s *service) Send(ctx context.Context, actor auth.Actor, recipientID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return nil, ErrBodyTooLong
	}
	if recipientID == actor.ID {
		return nil, ErrSelfMessage
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	if !recipient.IsActive {
		return nil, ErrRecipientNotFound
	}

	m := &Message{SenderID: actor.ID, RecipientID: recipientID, Body: body}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.hub.Publish(m)

	s.logger.Debug("message sent",
		zap.String("message_id", m.ID),
		zap.String("sender_id", m.SenderID),
		zap.String("recipient_id", m.RecipientID),
	)
	return m, nil
}

func (s *service) ListConversation(ctx context.Context, actor auth.Actor, peerID string, page, pageSize int) ([]*Message, int, error) {
	if _, err := s.users.GetByID(ctx, peerID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, 0, ErrPeerNotFound
		}
		return nil, 0, err
	}
	return s.repo.ListConversation(ctx, actor.ID, peerID, page, pageSize)
}

func (s *service) ListConversations(ctx context.Context, actor auth.Actor, page, pageSize int) ([]*Conversation, int, error) {
	return s.repo.ListConversations(ctx, actor.ID, page, pageSize)
}

func (s *service) MarkRead(ctx context.Context, actor auth.Actor, peerID string) (int64, error) {
	return s.repo.MarkRead(ctx, actor.ID, peerID, s.now())
}

func (s *service) UnreadCount(ctx context.Context, actor auth.Actor) (int, error) {
	return s.repo.UnreadCount(ctx, actor.ID)
}

func (s *service) Subscribe(actor auth.Actor) (<-chan *Message, func()) {
	return s.hub.Subscribe(actor.ID)
}
