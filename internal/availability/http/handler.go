package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/availability"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/response"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body WindowBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), auth.CurrentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, newResultResponse(res))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(a))
}

// Update replaces the window configuration and regenerates its open slots.
func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body WindowBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	res, err := h.service.Update(c.Request.Context(), auth.CurrentActor(c), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, newResultResponse(res))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.CurrentActor(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListByMentor(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	list, err := h.service.ListByMentor(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]AvailabilityResponse, len(list))
	for i, a := range list {
		items[i] = NewAvailabilityResponse(a)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) ListSlots(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var req ListSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if req.From == nil {
		now := time.Now().UTC()
		req.From = &now
	}

	slots, total, err := h.service.ListSlots(c.Request.Context(), availability.SlotFilter{
		MentorID: uri.ID,
		From:     req.From,
		To:       req.To,
		Status:   availability.SlotStatus(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MapPage(slots, NewSlotResponse, req.Page, req.PageSize, total))
}

func (h *Handler) AddSlot(c *gin.Context) {
	var body AddSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	slot, err := h.service.AddSlot(c.Request.Context(), auth.CurrentActor(c), availability.Interval{
		Start: body.StartTime,
		End:   body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewSlotResponse(slot))
}

func (h *Handler) GetSlot(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	slot, err := h.service.GetSlot(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSlotResponse(slot))
}

func (h *Handler) BlockSlot(c *gin.Context) {
	h.toggle(c, h.service.BlockSlot)
}

func (h *Handler) UnblockSlot(c *gin.Context) {
	h.toggle(c, h.service.UnblockSlot)
}

type slotToggle func(ctx context.Context, actor auth.Actor, id string) (*availability.Slot, error)

func (h *Handler) toggle(c *gin.Context, fn slotToggle) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	slot, err := fn(c.Request.Context(), auth.CurrentActor(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSlotResponse(slot))
}
