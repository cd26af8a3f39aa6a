package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumark/smis-api/internal/service"
	"github.com/edumark/smis-api/pkg/response"
)

// ResultsHandler exposes aggregated results endpoints.
type ResultsHandler struct {
	results *service.ResultsService
}

// NewResultsHandler constructs handler.
func NewResultsHandler(results *service.ResultsService) *ResultsHandler {
	return &ResultsHandler{results: results}
}

// Student godoc
// @Summary Aggregated results for one student in an exam
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param examId path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /results/students/{studentId}/exams/{examId} [get]
func (h *ResultsHandler) Student(c *gin.Context) {
	aggregate, err := h.results.StudentResults(c.Request.Context(), c.Param("studentId"), c.Param("examId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aggregate)
}

// Class godoc
// @Summary Ranked results for a class in an exam
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param examId path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /results/classes/{classId}/exams/{examId} [get]
func (h *ResultsHandler) Class(c *gin.Context) {
	aggregate, err := h.results.ClassResults(c.Request.Context(), c.Param("classId"), c.Param("examId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aggregate)
}
