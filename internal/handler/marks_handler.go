package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumark/smis-api/internal/service"
	appErrors "github.com/edumark/smis-api/pkg/errors"
	"github.com/edumark/smis-api/pkg/response"
)

// MarksHandler exposes marks entry endpoints.
type MarksHandler struct {
	marks   *service.MarksService
	results *service.ResultsService
}

// NewMarksHandler constructs handler.
func NewMarksHandler(marks *service.MarksService, results *service.ResultsService) *MarksHandler {
	return &MarksHandler{marks: marks, results: results}
}

// Enter godoc
// @Summary Enter marks for one student
// @Tags Marks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnterMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /marks [post]
func (h *MarksHandler) Enter(c *gin.Context) {
	var req service.EnterMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.marks.EnterMark(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateClass(c, outcome)
	var meta map[string]interface{}
	if outcome.Warning != "" {
		meta = map[string]interface{}{"warning": outcome.Warning}
	}
	response.JSON(c, http.StatusOK, outcome.Result, meta)
}

// EnterBatch godoc
// @Summary Enter marks for many students
// @Tags Marks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnterBatchMarksRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /marks/batch [post]
func (h *MarksHandler) EnterBatch(c *gin.Context) {
	var req service.EnterBatchMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.marks.EnterBatchMarks(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	seen := make(map[string]bool)
	for i := range result.Entries {
		entry := result.Entries[i].Result
		if entry == nil {
			continue
		}
		key := entry.ClassID + ":" + entry.ExamID
		if seen[key] {
			continue
		}
		seen[key] = true
		h.invalidateClass(c, &result.Entries[i])
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *MarksHandler) invalidateClass(c *gin.Context, outcome *service.EnterMarkOutcome) {
	if outcome == nil || outcome.Result == nil {
		return
	}
	_ = h.results.InvalidateClass(c.Request.Context(), outcome.Result.ClassID, outcome.Result.ExamID)
}
