package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/mail"
)

type memRepo struct {
	mu    sync.Mutex
	apps  map[string]*Application
	roles map[string]string
	seq   int
}

func newMemRepo() *memRepo {
	return &memRepo{apps: map[string]*Application{}, roles: map[string]string{}}
}

func (r *memRepo) Create(_ context.Context, a *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.apps {
		if o.ApplicantID == a.ApplicantID && o.Status.IsOpen() {
			return ErrOpenApplication
		}
	}
	r.seq++
	a.ID = fmt.Sprintf("app-%d", r.seq)
	a.ApplicantName = "user " + a.ApplicantID
	a.ApplicantEmail = a.ApplicantID + "@example.com"
	cp := *a
	r.apps[a.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Application, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Application
	for _, a := range r.apps {
		if filter.ApplicantID != "" && a.ApplicantID != filter.ApplicantID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *memRepo) Resubmit(_ context.Context, a *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.apps[a.ID]
	if cur.Status != StatusWaitingInfo {
		return ErrStatusConflict
	}
	a.Status = StatusSubmitted
	cp := *a
	r.apps[a.ID] = &cp
	return nil
}

func (r *memRepo) Review(_ context.Context, id string, from, to Status, reviewerID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.apps[id]
	if cur.Status != from {
		return ErrStatusConflict
	}
	cur.Status = to
	cur.ReviewerID = &reviewerID
	cur.ReviewerNote = note
	if to == StatusApproved && r.roles[cur.ApplicantID] == auth.RoleLearner {
		r.roles[cur.ApplicantID] = auth.RoleMentor
	}
	return nil
}

type fakeNotifier struct {
	sent []mail.ApplicationStatus
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, _ []mail.Address, name string, data any) error {
	if name == mail.TemplateApplicationStatus {
		f.sent = append(f.sent, data.(mail.ApplicationStatus))
	}
	return f.err
}

var (
	learner = auth.Actor{ID: "learner-1", Role: auth.RoleLearner}
	other   = auth.Actor{ID: "learner-2", Role: auth.RoleLearner}
	mentor  = auth.Actor{ID: "mentor-1", Role: auth.RoleMentor}
	admin   = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin}
)

func validRequest() SubmitRequest {
	return SubmitRequest{
		Motivation:      " I enjoy teaching ",
		Expertise:       "Distributed systems",
		YearsExperience: 7,
		ProfileURL:      "https://example.com/me",
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusSubmitted, StatusWaitingInfo))
	assert.True(t, CanTransition(StatusWaitingInfo, StatusSubmitted))
	assert.True(t, CanTransition(StatusWaitingInfo, StatusApproved))
	assert.True(t, CanTransition(StatusSubmitted, StatusRejected))
	assert.False(t, CanTransition(StatusSubmitted, StatusSubmitted))
	assert.False(t, CanTransition(StatusApproved, StatusRejected))
	assert.False(t, CanTransition(StatusRejected, StatusSubmitted))
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(), &fakeNotifier{}, zap.NewNop())

	a, err := svc.Submit(ctx, learner, validRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, a.Status)
	assert.Equal(t, "I enjoy teaching", a.Motivation)

	_, err = svc.Submit(ctx, learner, validRequest())
	assert.ErrorIs(t, err, ErrOpenApplication)

	_, err = svc.Submit(ctx, mentor, validRequest())
	assert.ErrorIs(t, err, ErrCannotApply)
	_, err = svc.Submit(ctx, admin, validRequest())
	assert.ErrorIs(t, err, ErrCannotApply)

	invalid := []struct {
		name   string
		mutate func(r *SubmitRequest)
		want   error
	}{
		{"empty motivation", func(r *SubmitRequest) { r.Motivation = "  " }, ErrMotivationEmpty},
		{"empty expertise", func(r *SubmitRequest) { r.Expertise = "" }, ErrExpertiseEmpty},
		{"negative experience", func(r *SubmitRequest) { r.YearsExperience = -1 }, ErrInvalidExperience},
		{"ftp profile", func(r *SubmitRequest) { r.ProfileURL = "ftp://example.com" }, ErrInvalidProfileURL},
		{"relative profile", func(r *SubmitRequest) { r.ProfileURL = "/me" }, ErrInvalidProfileURL},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Submit(ctx, other, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReviewWorkflow(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	repo.roles[learner.ID] = auth.RoleLearner
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier, zap.NewNop())

	a, err := svc.Submit(ctx, learner, validRequest())
	require.NoError(t, err)

	_, err = svc.RequestInfo(ctx, learner, a.ID, "more please")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.RequestInfo(ctx, admin, a.ID, " ")
	assert.ErrorIs(t, err, ErrNoteRequired)

	waiting, err := svc.RequestInfo(ctx, admin, a.ID, "Add a portfolio link")
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingInfo, waiting.Status)
	assert.Equal(t, "Add a portfolio link", waiting.ReviewerNote)

	_, err = svc.Resubmit(ctx, other, a.ID, validRequest())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	req := validRequest()
	req.ProfileURL = "https://example.com/portfolio"
	resubmitted, err := svc.Resubmit(ctx, learner, a.ID, req)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, resubmitted.Status)
	assert.Equal(t, "https://example.com/portfolio", resubmitted.ProfileURL)

	_, err = svc.Resubmit(ctx, learner, a.ID, req)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	approved, err := svc.Approve(ctx, admin, a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewerID)
	assert.Equal(t, admin.ID, *approved.ReviewerID)
	assert.Equal(t, auth.RoleMentor, repo.roles[learner.ID])

	_, err = svc.Reject(ctx, admin, a.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "waiting_info", notifier.sent[0].Status)
	assert.Equal(t, "approved", notifier.sent[1].Status)
}

func TestRejectAllowsNewApplication(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(), &fakeNotifier{err: errors.New("smtp down")}, zap.NewNop())

	a, err := svc.Submit(ctx, learner, validRequest())
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, admin, a.ID, "Not enough experience yet")
	require.NoError(t, err, "notification failures must not fail the review")
	assert.Equal(t, StatusRejected, rejected.Status)

	_, err = svc.Submit(ctx, learner, validRequest())
	assert.NoError(t, err)
}

func TestApplicationVisibility(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(), &fakeNotifier{}, zap.NewNop())

	a, err := svc.Submit(ctx, learner, validRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, other, validRequest())
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, other, a.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.GetByID(ctx, admin, a.ID)
	assert.NoError(t, err)

	_, total, err := svc.List(ctx, learner, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = svc.List(ctx, admin, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
