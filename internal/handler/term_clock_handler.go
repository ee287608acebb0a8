package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
	"github.com/Rabea25/SISAPI/pkg/response"
)

type termClockService interface {
	Current(ctx context.Context) (models.TermClock, error)
	Create(ctx context.Context, input models.TermClockInput) (*models.TermClock, error)
	Update(ctx context.Context, input models.TermClockInput) (*models.TermClock, error)
}

// TermClockHandler exposes the term clock.
type TermClockHandler struct {
	service termClockService
}

// NewTermClockHandler constructs a term clock handler.
func NewTermClockHandler(svc termClockService) *TermClockHandler {
	return &TermClockHandler{service: svc}
}

// Get godoc
// @Summary Get the current term clock
// @Tags Term Clock
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /term-clock [get]
func (h *TermClockHandler) Get(c *gin.Context) {
	clock, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, clock)
}

// Create godoc
// @Summary Create the term clock
// @Tags Term Clock
// @Accept json
// @Produce json
// @Param payload body models.TermClockInput true "Term clock"
// @Success 201 {object} response.Envelope
// @Router /term-clock [post]
func (h *TermClockHandler) Create(c *gin.Context) {
	var input models.TermClockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	clock, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, clock)
}

// Update godoc
// @Summary Update the term clock
// @Tags Term Clock
// @Accept json
// @Produce json
// @Param payload body models.TermClockInput true "Term clock"
// @Success 200 {object} response.Envelope
// @Router /term-clock [put]
func (h *TermClockHandler) Update(c *gin.Context) {
	var input models.TermClockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	clock, err := h.service.Update(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, clock)
}
