package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/services"
)

// JWTAuthMiddleware verifies bearer tokens and loads the account behind
// them onto the request context.
type JWTAuthMiddleware struct {
	auth     services.AuthService
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewJWTAuthMiddleware(auth services.AuthService, userRepo repositories.UserRepository, logger *slog.Logger) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		auth:     auth,
		userRepo: userRepo,
		logger:   logger,
	}
}

func (m *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authorization header is required",
			})
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authorization header must be a bearer token",
			})
			return
		}

		userID, _, err := m.auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		// The role is always read from the database, not the claims, so
		// revoked or demoted accounts lose access as soon as the row changes.
		user, err := m.userRepo.GetByID(c.Request.Context(), nil, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Account no longer exists",
				})
				return
			}
			m.logger.Error("Failed to load authenticated user", "error", err, "user_id", userID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Internal server error",
			})
			return
		}

		if user.Status != models.UserActive {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Account is inactive",
			})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// RequireRoleMiddleware gates a route group to the given roles. It assumes
// AuthMiddleware already ran.
func (m *JWTAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}
		user := value.(*models.User)

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient role permissions",
		})
	}
}
