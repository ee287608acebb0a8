package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rabea25/SISAPI/internal/dto"
	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
	"github.com/Rabea25/SISAPI/pkg/response"
)

type gradeService interface {
	RecordScores(ctx context.Context, enrollmentID string, input models.ScoreInput) (*models.EnrollmentView, error)
	FinalizeStudentTerm(ctx context.Context, termID string) (*models.TermView, error)
	FinalizeTerm(ctx context.Context, academicYear string, name models.TermName) (*models.TermFinalization, error)
}

// GradeHandler exposes score entry and term finalization.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler constructs a grade handler.
func NewGradeHandler(svc gradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// RecordScores godoc
// @Summary Record coursework and exam scores
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body models.ScoreInput true "Scores"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/scores [put]
func (h *GradeHandler) RecordScores(c *gin.Context) {
	var input models.ScoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.service.RecordScores(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view, actorMeta(c))
}

// FinalizeStudentTerm godoc
// @Summary Recompute GPA, CGPA and earned hours of one student term
// @Tags Grades
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/finalize [post]
func (h *GradeHandler) FinalizeStudentTerm(c *gin.Context) {
	view, err := h.service.FinalizeStudentTerm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// FinalizeTerm godoc
// @Summary Finalize every student term of an academic year and term
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.FinalizeTermRequest false "Defaults to the current term clock"
// @Success 200 {object} response.Envelope
// @Router /terms/finalize [post]
func (h *GradeHandler) FinalizeTerm(c *gin.Context) {
	var req dto.FinalizeTermRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.FinalizeTerm(c.Request.Context(), req.AcademicYear, req.Term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, map[string]interface{}{"finalized": len(result.Finalized)})
}
