package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/services"
)

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
}

func NewResultHandler(resultService services.ResultService, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
	}
}

// SubmitResult grades and stores a student's answers for an exam.
func (h *ResultHandler) SubmitResult(c *gin.Context) {
	h.LogRequest(c, "Submitting result")

	var req services.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	result, err := h.resultService.Submit(c.Request.Context(), &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *ResultHandler) GetResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	result, err := h.resultService.GetByID(c.Request.Context(), id, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMyResults lists the authenticated user's own results.
func (h *ResultHandler) GetMyResults(c *gin.Context) {
	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	resp, err := h.resultService.GetMine(c.Request.Context(), h.parseResultFilters(c), requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ResultHandler) ListResults(c *gin.Context) {
	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	resp, err := h.resultService.List(c.Request.Context(), h.parseResultFilters(c), requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ValidateResult applies per-answer mark overrides and finalizes a result.
func (h *ResultHandler) ValidateResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Validating result", "result_id", id)

	var req services.ValidateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	result, err := h.resultService.Validate(c.Request.Context(), id, &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ResultHandler) parseResultFilters(c *gin.Context) repositories.ResultFilters {
	limit, offset := h.pagination(c)
	filters := repositories.ResultFilters{
		Limit:  limit,
		Offset: offset,
	}

	if examID := h.parseIntQuery(c, "exam_id", 0); examID > 0 {
		id := uint(examID)
		filters.ExamID = &id
	}
	if studentID := h.parseIntQuery(c, "student_id", 0); studentID > 0 {
		id := uint(studentID)
		filters.StudentID = &id
	}
	if status := c.Query("status"); status != "" {
		resultStatus := models.ResultStatus(status)
		filters.Status = &resultStatus
	}

	return filters
}
