package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edumark/smis-api/internal/models"
	"github.com/edumark/smis-api/internal/service"
	appErrors "github.com/edumark/smis-api/pkg/errors"
	"github.com/edumark/smis-api/pkg/response"
)

// ExportHandler exposes the asynchronous class-results export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type requestExportPayload struct {
	ClassID string `json:"classId" binding:"required"`
	ExamID  string `json:"examId" binding:"required"`
}

// Request godoc
// @Summary Queue a class-results CSV export
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body requestExportPayload true "Export parameters"
// @Success 202 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Request(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	var req requestExportPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	createdBy := ""
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}
	job, err := h.exports.Request(c.Request.Context(), createdBy, models.ExportJobParams{ClassID: req.ClassID, ExamID: req.ExamID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job)
}

// Status godoc
// @Summary Poll an export job
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	job, err := h.exports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Download godoc
// @Summary Download a finished export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.exports.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	size := int64(-1)
	if info, statErr := download.File.Stat(); statErr == nil {
		size = info.Size()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, "text/csv", download.File, nil)
}
