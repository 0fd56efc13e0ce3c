package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/message"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	userHttp "github.com/nekogravitycat/mentorship-backend/internal/user/http"
)

type SendMessageBody struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Body        string `json:"body" binding:"required"`
}

type PageRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

type PeerRequest = request.ByIDRequest

type MessageResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at"`
}

func NewMessageResponse(m *message.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
		ReadAt:      m.ReadAt,
	}
}

type ConversationResponse struct {
	Peer        userHttp.UserTag `json:"peer"`
	LastMessage MessageResponse  `json:"last_message"`
	UnreadCount int              `json:"unread_count"`
}

func NewConversationResponse(c *message.Conversation) ConversationResponse {
	return ConversationResponse{
		Peer:        userHttp.UserTag{ID: c.PeerID, Name: c.PeerName},
		LastMessage: NewMessageResponse(&c.LastMessage),
		UnreadCount: c.UnreadCount,
	}
}
