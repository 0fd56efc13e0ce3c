package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityHttp "github.com/nekogravitycat/mentorship-backend/internal/availability/http"
	dashboardHttp "github.com/nekogravitycat/mentorship-backend/internal/dashboard/http"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
	sessionHttp "github.com/nekogravitycat/mentorship-backend/internal/session/http"
	"github.com/nekogravitycat/mentorship-backend/internal/user"
)

func TestBookingFlow(t *testing.T) {
	requireDB(t)
	clearTables(t)

	mentor, mentorToken := createTestUser(t, "mentor@flow.test", user.RoleMentor)
	_, learnerToken := createTestUser(t, "learner@flow.test", user.RoleLearner)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	var slotID, sessionID string

	t.Run("Mentor publishes availability", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/availabilities", availabilityHttp.WindowBody{
			StartDate:      tomorrow.Format("2006-01-02"),
			EndDate:        tomorrow.AddDate(0, 0, 6).Format("2006-01-02"),
			Weekdays:       []int{0, 1, 2, 3, 4, 5, 6},
			DayStart:       "09:00",
			DayEnd:         "11:00",
			SessionMinutes: 60,
			Timezone:       "UTC",
		}, mentorToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp availabilityHttp.AvailabilityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.SlotsCreated)
		assert.Equal(t, 14, *resp.SlotsCreated)
	})

	t.Run("Learner lists open slots", func(t *testing.T) {
		w := executeRequest(http.MethodGet, fmt.Sprintf("/v1/mentors/%s/slots?status=open", mentor.ID), nil, learnerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var page response.PageResponse[availabilityHttp.SlotResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.NotEmpty(t, page.Items)
		slotID = page.Items[0].ID
	})

	t.Run("Learner books and mentor approves", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/sessions", sessionHttp.BookSessionBody{SlotID: slotID, Topic: "Intro"}, learnerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created sessionHttp.SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, "pending", created.Status)
		sessionID = created.ID

		w = executeRequest(http.MethodPost, "/v1/sessions", sessionHttp.BookSessionBody{SlotID: slotID}, learnerToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = executeRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/approve", nil, learnerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = executeRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/approve", nil, mentorToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("Mentor dashboard reflects the session", func(t *testing.T) {
		w := executeRequest(http.MethodGet, "/v1/dashboard/mentor", nil, mentorToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var stats dashboardHttp.MentorStatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 1, stats.SessionsByStatus["approved"])
		assert.Equal(t, 13, stats.OpenSlots)
		require.Len(t, stats.Upcoming, 1)
		assert.Equal(t, sessionID, stats.Upcoming[0].ID)
	})

	t.Run("Jobs run cleanly", func(t *testing.T) {
		require.NoError(t, testContainer.Jobs.RunOnce(context.Background()))
	})
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	requireDB(t)
	clearTables(t)

	mentor, mentorToken := createTestUser(t, "mentor@race.test", user.RoleMentor)
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	w := executeRequest(http.MethodPost, "/v1/slots", availabilityHttp.AddSlotBody{
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}, mentorToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var slot availabilityHttp.SlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slot))
	require.Equal(t, mentor.ID, slot.MentorID)

	const learners = 8
	tokens := make([]string, learners)
	for i := range tokens {
		_, tokens[i] = createTestUser(t, fmt.Sprintf("learner%d@race.test", i), user.RoleLearner)
	}

	codes := make([]int, learners)
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = executeRequest(http.MethodPost, "/v1/sessions", sessionHttp.BookSessionBody{SlotID: slot.ID}, token).Code
		}()
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		default:
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created)
}
