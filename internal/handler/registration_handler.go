package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
	"github.com/Rabea25/SISAPI/pkg/response"
)

type eligibilityLister interface {
	EligibleOfferings(ctx context.Context, studentID string) ([]models.OfferingView, error)
}

type batchSubmitter interface {
	SubmitBatch(ctx context.Context, studentID string, batch models.RegistrationBatch) (*models.BatchResult, error)
}

// RegistrationHandler exposes eligibility and registration endpoints.
type RegistrationHandler struct {
	eligibility  eligibilityLister
	registration batchSubmitter
}

// NewRegistrationHandler constructs a registration handler.
func NewRegistrationHandler(eligibility eligibilityLister, registration batchSubmitter) *RegistrationHandler {
	return &RegistrationHandler{eligibility: eligibility, registration: registration}
}

// EligibleOfferings godoc
// @Summary List offerings a student may register for
// @Tags Registration
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/eligible-offerings [get]
func (h *RegistrationHandler) EligibleOfferings(c *gin.Context) {
	views, err := h.eligibility.EligibleOfferings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views, map[string]interface{}{"count": len(views)})
}

// Submit godoc
// @Summary Submit a registration batch
// @Description Items are applied independently; per-item failures are returned in the body.
// @Tags Registration
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.RegistrationBatch true "Registration items"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/registrations [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var batch models.RegistrationBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.registration.SubmitBatch(c.Request.Context(), c.Param("id"), batch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, map[string]interface{}{
		"successful": len(result.Successful),
		"failed":     len(result.Failed),
	})
}
