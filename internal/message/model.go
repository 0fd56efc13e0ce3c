package message

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/apperror"
)

// MaxBodyLength is the longest message body in characters.
const MaxBodyLength = 4000

var (
	ErrEmptyBody         = apperror.BadRequest("message body is required")
	ErrBodyTooLong       = apperror.BadRequest("message body exceeds 4000 characters")
	ErrSelfMessage       = apperror.BadRequest("cannot send a message to yourself")
	ErrRecipientNotFound = apperror.NotFound("recipient not found")
	ErrPeerNotFound      = apperror.NotFound("user not found")
)

type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	Body        string
	CreatedAt   time.Time
	ReadAt      *time.Time
}

// Conversation summarises the exchange between a user and one peer.
type Conversation struct {
	PeerID      string
	PeerName    string
	LastMessage Message
	UnreadCount int
}
