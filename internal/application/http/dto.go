package http

import (
	"time"

	"github.com/nekogravitycat/mentorship-backend/internal/application"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	userHttp "github.com/nekogravitycat/mentorship-backend/internal/user/http"
)

type ListApplicationsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=submitted waiting_info approved rejected"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at status"`
}

type ApplicationBody struct {
	Motivation      string `json:"motivation" binding:"required,max=4000"`
	Expertise       string `json:"expertise" binding:"required,max=1000"`
	YearsExperience int    `json:"years_experience" binding:"min=0,max=80"`
	ProfileURL      string `json:"profile_url" binding:"omitempty,url,max=500"`
}

func (b ApplicationBody) toRequest() application.SubmitRequest {
	return application.SubmitRequest{
		Motivation:      b.Motivation,
		Expertise:       b.Expertise,
		YearsExperience: b.YearsExperience,
		ProfileURL:      b.ProfileURL,
	}
}

type ReviewBody struct {
	Note string `json:"note" binding:"max=2000"`
}

type ApplicationResponse struct {
	ID              string           `json:"id"`
	Applicant       userHttp.UserTag `json:"applicant"`
	Motivation      string           `json:"motivation"`
	Expertise       string           `json:"expertise"`
	YearsExperience int              `json:"years_experience"`
	ProfileURL      string           `json:"profile_url"`
	ReviewerNote    string           `json:"reviewer_note"`
	ReviewerID      *string          `json:"reviewer_id"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func NewApplicationResponse(a *application.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:              a.ID,
		Applicant:       userHttp.UserTag{ID: a.ApplicantID, Name: a.ApplicantName},
		Motivation:      a.Motivation,
		Expertise:       a.Expertise,
		YearsExperience: a.YearsExperience,
		ProfileURL:      a.ProfileURL,
		ReviewerNote:    a.ReviewerNote,
		ReviewerID:      a.ReviewerID,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
