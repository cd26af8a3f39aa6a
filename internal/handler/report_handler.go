package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumark/smis-api/internal/service"
	"github.com/edumark/smis-api/pkg/response"
)

// ReportHandler exposes report card endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Student godoc
// @Summary Student report card for an exam
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param examId path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{studentId}/exams/{examId} [get]
func (h *ReportHandler) Student(c *gin.Context) {
	report, err := h.reports.StudentReport(c.Request.Context(), c.Param("studentId"), c.Param("examId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Class godoc
// @Summary Ranked class sheet for an exam
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param examId path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /reports/classes/{classId}/exams/{examId} [get]
func (h *ReportHandler) Class(c *gin.Context) {
	report, err := h.reports.ClassReport(c.Request.Context(), c.Param("classId"), c.Param("examId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
