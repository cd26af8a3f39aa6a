package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumark/smis-api/internal/service"
	appErrors "github.com/edumark/smis-api/pkg/errors"
	"github.com/edumark/smis-api/pkg/response"
)

// EligibilityHandler exposes eligibility check endpoints.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
}

// NewEligibilityHandler constructs handler.
func NewEligibilityHandler(eligibility *service.EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility}
}

// Check godoc
// @Summary Check whether a student may receive marks for a subject
// @Tags Eligibility
// @Produce json
// @Security BearerAuth
// @Param studentId query string true "Student ID"
// @Param subjectId query string true "Subject ID"
// @Param academicYearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /eligibility [get]
func (h *EligibilityHandler) Check(c *gin.Context) {
	studentID := c.Query("studentId")
	subjectID := c.Query("subjectId")
	academicYearID := c.Query("academicYearId")
	if studentID == "" || subjectID == "" || academicYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId, subjectId and academicYearId are required"))
		return
	}
	outcome, err := h.eligibility.Check(c.Request.Context(), studentID, subjectID, academicYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

// CheckClass godoc
// @Summary Check a whole class against a subject
// @Tags Eligibility
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param subjectId query string true "Subject ID"
// @Param academicYearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /eligibility/classes/{classId} [get]
func (h *EligibilityHandler) CheckClass(c *gin.Context) {
	classID := c.Param("classId")
	subjectID := c.Query("subjectId")
	academicYearID := c.Query("academicYearId")
	if subjectID == "" || academicYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId and academicYearId are required"))
		return
	}
	outcomes, err := h.eligibility.CheckClass(c.Request.Context(), classID, subjectID, academicYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes)
}
