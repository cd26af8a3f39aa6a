package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumark/smis-api/internal/models"
	"github.com/edumark/smis-api/internal/service"
	appErrors "github.com/edumark/smis-api/pkg/errors"
	"github.com/edumark/smis-api/pkg/response"
)

// AssignmentHandler exposes teacher-subject assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Create godoc
// @Summary Assign a teacher to a subject in a class
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assignments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

type setAssignmentStatusRequest struct {
	Status models.AssignmentStatus `json:"status" binding:"required"`
}

// SetStatus godoc
// @Summary Activate or deactivate an assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param payload body setAssignmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/status [patch]
func (h *AssignmentHandler) SetStatus(c *gin.Context) {
	var req setAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assignments.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// ListByTeacher godoc
// @Summary List assignments for a teacher
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/teachers/{teacherId} [get]
func (h *AssignmentHandler) ListByTeacher(c *gin.Context) {
	assignments, err := h.assignments.ListByTeacher(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments)
}
