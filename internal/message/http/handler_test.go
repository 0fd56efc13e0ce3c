package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/message"
)

const (
	currentUser = "4b7e2f0c-1d2e-4f5a-9b8c-7d6e5f4a3b2c"
	peerID      = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeService struct {
	message.Service
	hub *message.Hub
}

func (f *fakeService) Send(_ context.Context, actor auth.Actor, recipientID, body string) (*message.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, message.ErrEmptyBody
	}
	return &message.Message{ID: "m1", SenderID: actor.ID, RecipientID: recipientID, Body: body, CreatedAt: time.Now()}, nil
}

func (f *fakeService) Subscribe(actor auth.Actor) (<-chan *message.Message, func()) {
	return f.hub.Subscribe(actor.ID)
}

func newTestRouter(svc message.Service, keepAlive time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	fakeAuth := func(c *gin.Context) {
		c.Set("userID", currentUser)
		c.Next()
	}
	h := NewHandler(svc)
	h.keepAlive = keepAlive
	RegisterRoutes(r.Group("/v1"), h, fakeAuth)
	return r
}

// streamRecorder is a ResponseRecorder that can be read while a handler
// is still streaming into it.
type streamRecorder struct {
	*httptest.ResponseRecorder
	mu     sync.Mutex
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *streamRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *streamRecorder) WriteString(s string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.WriteString(s)
}

func (r *streamRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func (r *streamRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func TestSendHandler(t *testing.T) {
	r := newTestRouter(&fakeService{hub: message.NewHub(1)}, time.Minute)

	send := func(body any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Success", func(t *testing.T) {
		w := send(map[string]string{"recipient_id": peerID, "body": "hi"})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp MessageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, currentUser, resp.SenderID)
		assert.Equal(t, peerID, resp.RecipientID)
	})

	t.Run("Blank body", func(t *testing.T) {
		w := send(map[string]string{"recipient_id": peerID, "body": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid recipient", func(t *testing.T) {
		w := send(map[string]string{"recipient_id": "bob", "body": "hi"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStreamHandler(t *testing.T) {
	hub := message.NewHub(4)
	r := newTestRouter(&fakeService{hub: hub}, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/v1/messages/stream", nil)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers(currentUser) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(&message.Message{ID: "m42", SenderID: peerID, RecipientID: currentUser, Body: "hello there"})
	require.Eventually(t, func() bool { return strings.Contains(rec.body(), "hello there") }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return strings.Contains(rec.body(), "event:ping") }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	body := rec.body()
	assert.Contains(t, body, "event:ready")
	assert.Contains(t, body, "event:message")
	assert.Contains(t, body, `"id":"m42"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 0, hub.Subscribers(currentUser))
}
