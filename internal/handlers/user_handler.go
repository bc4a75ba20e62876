package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/services"
)

type UserHandler struct {
	BaseHandler
	userService     services.UserService
	activityService services.ActivityService
}

func NewUserHandler(userService services.UserService, activityService services.ActivityService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:     NewBaseHandler(logger),
		userService:     userService,
		activityService: activityService,
	}
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	resp, err := h.userService.List(c.Request.Context(), h.parseUserFilters(c), requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating user", "target_id", id)

	var req services.UpdateUserRequest
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

	user, err := h.userService.Update(c.Request.Context(), id, &req, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting user", "target_id", id)

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id, requester); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "User deleted successfully",
	})
}

// GetUserActivity returns the audit trail of one account.
func (h *UserHandler) GetUserActivity(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	requester := h.currentUser(c)
	if requester == nil {
		return
	}

	limit := h.parseIntQuery(c, "limit", 50)
	entries, err := h.activityService.ListByUser(c.Request.Context(), id, limit, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": entries})
}

func (h *UserHandler) parseUserFilters(c *gin.Context) repositories.UserFilters {
	limit, offset := h.pagination(c)
	filters := repositories.UserFilters{
		Limit:  limit,
		Offset: offset,
	}

	if role := c.Query("role"); role != "" {
		userRole := models.UserRole(role)
		filters.Role = &userRole
	}
	if status := c.Query("status"); status != "" {
		userStatus := models.UserStatus(status)
		filters.Status = &userStatus
	}
	if q := c.Query("q"); q != "" {
		filters.Query = &q
	}

	return filters
}
