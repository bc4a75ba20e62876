package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/services"
	"github.com/Himu336/Web3-Exam-Platform/internal/utils"
)

type HandlerManager struct {
	authHandler     *AuthHandler
	userHandler     *UserHandler
	questionHandler *QuestionHandler
	examHandler     *ExamHandler
	resultHandler   *ResultHandler
	authMiddleware  *JWTAuthMiddleware

	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	userRepo repositories.UserRepository,
	logger *utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:     NewAuthHandler(serviceManager.Auth(), logger.Logger),
		userHandler:     NewUserHandler(serviceManager.User(), serviceManager.Activity(), logger.Logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger.Logger),
		examHandler:     NewExamHandler(serviceManager.Exam(), serviceManager.ImportExport(), logger.Logger),
		resultHandler:   NewResultHandler(serviceManager.Result(), logger.Logger),
		authMiddleware:  NewJWTAuthMiddleware(serviceManager.Auth(), userRepo, logger.Logger),
		serviceManager:  serviceManager,
	}
}

// SetupRoutes wires every endpoint onto the router.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	// Public auth endpoints.
	auth := api.Group("/auth")
	{
		auth.POST("/register", hm.authHandler.Register)
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/me", hm.authMiddleware.AuthMiddleware(), hm.authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(hm.authMiddleware.AuthMiddleware())
	{
		exams := protected.Group("/exams")
		{
			exams.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.examHandler.CreateExam)
			exams.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.examHandler.UpdateExam)
			exams.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.examHandler.DeleteExam)

			exams.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleFaculty, models.RoleAdmin), hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)

			exams.GET("/:id/results/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleFaculty, models.RoleAdmin), hm.examHandler.ExportResults)
		}

		questions := protected.Group("/questions")
		questions.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleFaculty, models.RoleAdmin))
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
			questions.PUT("/:id/approval", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.SetApproval)
		}

		results := protected.Group("/results")
		{
			results.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.resultHandler.SubmitResult)
			results.GET("/me", hm.resultHandler.GetMyResults)
			results.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleFaculty, models.RoleAdmin), hm.resultHandler.ListResults)
			results.GET("/:id", hm.resultHandler.GetResult)
			results.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleFaculty, models.RoleAdmin), hm.resultHandler.ValidateResult)
		}

		users := protected.Group("/users")
		{
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.DeleteUser)
			users.GET("/:id/activity", hm.userHandler.GetUserActivity)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-platform",
		})
	})
}
