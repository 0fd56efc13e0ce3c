package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/message"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
)

const defaultKeepAlive = 25 * time.Second

type Handler struct {
	service   message.Service
	keepAlive time.Duration
}

func NewHandler(service message.Service) *Handler {
	return &Handler{service: service, keepAlive: defaultKeepAlive}
}

func (h *Handler) Send(c *gin.Context) {
	var body SendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	m, err := h.service.Send(c.Request.Context(), auth.CurrentActor(c), body.RecipientID, body.Body)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewMessageResponse(m))
}

func (h *Handler) ListConversations(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	list, total, err := h.service.ListConversations(c.Request.Context(), auth.CurrentActor(c), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(list, NewConversationResponse, req.Page, req.PageSize, total))
}

func (h *Handler) ListConversation(c *gin.Context) {
	var uri PeerRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	list, total, err := h.service.ListConversation(c.Request.Context(), auth.CurrentActor(c), uri.ID, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(list, NewMessageResponse, req.Page, req.PageSize, total))
}

func (h *Handler) MarkRead(c *gin.Context) {
	var uri PeerRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), auth.CurrentActor(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": n})
}

func (h *Handler) Unread(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), auth.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// Stream pushes incoming messages as server-sent events until the client
// disconnects. A ping event keeps idle connections open through proxies.
func (h *Handler) Stream(c *gin.Context) {
	ch, unsubscribe := h.service.Subscribe(auth.CurrentActor(c))
	defer unsubscribe()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"user_id": auth.GetUserID(c)})

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case m, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("message", NewMessageResponse(m))
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
