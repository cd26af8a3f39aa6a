package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumark/smis-api/internal/service"
	appErrors "github.com/edumark/smis-api/pkg/errors"
	"github.com/edumark/smis-api/pkg/response"
)

// SelectionHandler exposes subject selection endpoints.
type SelectionHandler struct {
	selections *service.SelectionService
}

// NewSelectionHandler constructs handler.
func NewSelectionHandler(selections *service.SelectionService) *SelectionHandler {
	return &SelectionHandler{selections: selections}
}

// Select godoc
// @Summary Record an O-Level student's optional subject selection
// @Tags Selections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SelectSubjectsRequest true "Selection payload"
// @Success 201 {object} response.Envelope
// @Router /selections [post]
func (h *SelectionHandler) Select(c *gin.Context) {
	var req service.SelectSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	approvedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		approvedBy = claims.UserID
	}
	result, err := h.selections.Select(c.Request.Context(), approvedBy, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Fetch a student's selection for an academic year
// @Tags Selections
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param academicYearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /selections/students/{studentId} [get]
func (h *SelectionHandler) Get(c *gin.Context) {
	academicYearID := c.Query("academicYearId")
	if academicYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academicYearId is required"))
		return
	}
	selection, err := h.selections.Get(c.Request.Context(), c.Param("studentId"), academicYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, selection)
}
