package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rabea25/SISAPI/internal/dto"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
	"github.com/Rabea25/SISAPI/pkg/response"
)

type sectionCreator interface {
	Create(ctx context.Context, offeringID string, req dto.CreateSectionRequest) (*dto.SectionResponse, error)
}

// SectionHandler exposes section administration.
type SectionHandler struct {
	service sectionCreator
}

// NewSectionHandler constructs a section handler.
func NewSectionHandler(svc sectionCreator) *SectionHandler {
	return &SectionHandler{service: svc}
}

// Create godoc
// @Summary Add a section to an offering
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body dto.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /offerings/{id}/sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.service.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}
