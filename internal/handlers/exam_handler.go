package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/services"
)

type ExamHandler struct {
	BaseHandler
	examService  services.ExamService
	importExport services.ImportExportService
}

func NewExamHandler(examService services.ExamService, importExport services.ImportExportService, logger *slog.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler:  NewBaseHandler(logger),
		examService:  examService,
		importExport: importExport,
	}
}

// CreateExam creates an exam together with its faculty and question
// associations in one shot.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	var req services.CreateExamRequest
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

	exam, err := h.examService.Create(c.Request.Context(), &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

func (h *ExamHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating exam", "exam_id", id)

	var req services.UpdateExamRequest
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

	exam, err := h.examService.Update(c.Request.Context(), id, &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", id)

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id, requester); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam deleted successfully",
	})
}

func (h *ExamHandler) ListExams(c *gin.Context) {
	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	resp, err := h.examService.List(c.Request.Context(), h.parseExamFilters(c), requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportResults streams all results of one exam as an xlsx workbook.
func (h *ExamHandler) ExportResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", id)

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=exam_%d_results.xlsx", id))

	if err := h.importExport.ExportResults(c.Request.Context(), id, requester, c.Writer); err != nil {
		h.handleServiceError(c, err)
		return
	}
}

func (h *ExamHandler) parseExamFilters(c *gin.Context) repositories.ExamFilters {
	limit, offset := h.pagination(c)
	filters := repositories.ExamFilters{
		Limit:  limit,
		Offset: offset,
	}

	if status := c.Query("status"); status != "" {
		examStatus := models.ExamStatus(status)
		filters.Status = &examStatus
	}
	if active := c.Query("active"); active != "" {
		isActive := active == "true"
		filters.IsActive = &isActive
	}
	if createdBy := h.parseIntQuery(c, "created_by", 0); createdBy > 0 {
		id := uint(createdBy)
		filters.CreatedBy = &id
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &t
		}
	}

	return filters
}
