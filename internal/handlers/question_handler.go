package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/services"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importExport    services.ImportExportService
}

func NewQuestionHandler(questionService services.QuestionService, importExport services.ImportExportService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importExport:    importExport,
	}
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
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

	question, err := h.questionService.Create(c.Request.Context(), &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
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

	question, err := h.questionService.Update(c.Request.Context(), id, &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, requester); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question deleted successfully",
	})
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	resp, err := h.questionService.List(c.Request.Context(), h.parseQuestionFilters(c), requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetApproval moves a question between pending, approved and rejected.
func (h *QuestionHandler) SetApproval(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Setting question approval", "question_id", id)

	var req services.QuestionApprovalRequest
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

	question, err := h.questionService.SetApproval(c.Request.Context(), id, &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ImportQuestions bulk-creates questions from an uploaded xlsx workbook.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions")

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "A multipart 'file' field with an xlsx workbook is required",
		})
		return
	}
	defer file.Close()

	report, err := h.importExport.ImportQuestions(c.Request.Context(), file, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *QuestionHandler) parseQuestionFilters(c *gin.Context) repositories.QuestionFilters {
	limit, offset := h.pagination(c)
	filters := repositories.QuestionFilters{
		Limit:  limit,
		Offset: offset,
	}

	if subject := c.Query("subject"); subject != "" {
		filters.Subject = &subject
	}
	if topic := c.Query("topic"); topic != "" {
		filters.Topic = &topic
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := models.DifficultyLevel(difficulty)
		filters.Difficulty = &d
	}
	if status := c.Query("status"); status != "" {
		s := models.ApprovalStatus(status)
		filters.Status = &s
	}
	if approved := c.Query("approved"); approved != "" {
		isApproved := approved == "true"
		filters.IsApproved = &isApproved
	}

	return filters
}
