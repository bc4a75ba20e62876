package services

import (
	"context"
	"io"
	"time"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type UpdateUserRequest = validator.UserUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type QuestionApprovalRequest = validator.QuestionApprovalRequest
type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type ExamQuestionRequest = validator.ExamQuestionRequest
type SubmitResultRequest = validator.SubmitResultRequest
type ValidateResultRequest = validator.ValidateResultRequest

type AuthResponse struct {
	Token string             `json:"token"`
	User  *models.PublicUser `json:"user"`
}

type UserListResponse struct {
	Users []*models.PublicUser `json:"users"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Size  int                  `json:"size"`
}

type QuestionResponse struct {
	*models.Question
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

// QuestionView is the projection handed to exam takers. The correct option
// index is a pointer so it can be withheld entirely for students.
type QuestionView struct {
	ID                 uint                    `json:"id"`
	QuestionText       string                  `json:"question_text"`
	Options            []models.QuestionOption `json:"options"`
	CorrectOptionIndex *int                    `json:"correct_option_index,omitempty"`
	Marks              int                     `json:"marks"`
	Difficulty         models.DifficultyLevel  `json:"difficulty"`
	Subject            string                  `json:"subject"`
	Topic              string                  `json:"topic"`
}

type ExamQuestionView struct {
	QuestionID uint          `json:"question_id"`
	Marks      int           `json:"marks"`
	Question   *QuestionView `json:"question,omitempty"`
}

type ExamResponse struct {
	*models.Exam
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanSubmit bool `json:"can_submit"`
}

type ExamDetailResponse struct {
	ExamResponse
	Questions []*ExamQuestionView  `json:"questions"`
	Faculties []*models.PublicUser `json:"faculties"`
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type ResultResponse struct {
	*models.Result
	CanValidate bool `json:"can_validate"`
}

type ResultListResponse struct {
	Results []*ResultResponse `json:"results"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// ImportReport summarizes a bulk question import.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)

	// VerifyToken parses and validates a JWT, returning the claims subject.
	VerifyToken(tokenString string) (userID uint, role models.UserRole, err error)
	TokenTTL() time.Duration
}

type UserService interface {
	GetByID(ctx context.Context, id uint, requester *models.User) (*models.PublicUser, error)
	List(ctx context.Context, filters repositories.UserFilters, requester *models.User) (*UserListResponse, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest, requester *models.User) (*models.PublicUser, error)
	Delete(ctx context.Context, id uint, requester *models.User) error
}

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, requester *models.User) (*QuestionResponse, error)
	GetByID(ctx context.Context, id uint, requester *models.User) (*QuestionResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, requester *models.User) (*QuestionResponse, error)
	Delete(ctx context.Context, id uint, requester *models.User) error
	List(ctx context.Context, filters repositories.QuestionFilters, requester *models.User) (*QuestionListResponse, error)

	// SetApproval flips a question's approval state (admin only).
	SetApproval(ctx context.Context, id uint, req *QuestionApprovalRequest, requester *models.User) (*QuestionResponse, error)
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, requester *models.User) (*ExamDetailResponse, error)
	GetByID(ctx context.Context, id uint, requester *models.User) (*ExamDetailResponse, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest, requester *models.User) (*ExamDetailResponse, error)
	Delete(ctx context.Context, id uint, requester *models.User) error
	List(ctx context.Context, filters repositories.ExamFilters, requester *models.User) (*ExamListResponse, error)
}

type ResultService interface {
	// Submit grades and stores a student's answers for an exam. Resubmitting
	// over a pending row replaces it; resubmitting over a final row fails.
	Submit(ctx context.Context, req *SubmitResultRequest, requester *models.User) (*ResultResponse, error)

	// Validate applies per-answer overrides and finalizes the result.
	Validate(ctx context.Context, id uint, req *ValidateResultRequest, requester *models.User) (*ResultResponse, error)

	GetByID(ctx context.Context, id uint, requester *models.User) (*ResultResponse, error)
	GetMine(ctx context.Context, filters repositories.ResultFilters, requester *models.User) (*ResultListResponse, error)
	List(ctx context.Context, filters repositories.ResultFilters, requester *models.User) (*ResultListResponse, error)
}

type ImportExportService interface {
	// ImportQuestions reads an xlsx workbook of questions owned by requester.
	ImportQuestions(ctx context.Context, r io.Reader, requester *models.User) (*ImportReport, error)

	// ExportResults writes an exam's results as an xlsx workbook.
	ExportResults(ctx context.Context, examID uint, requester *models.User, w io.Writer) error
}

type ActivityService interface {
	// Record appends one audit entry; failures are logged, never propagated
	// into the calling business operation.
	Record(ctx context.Context, userID *uint, actionType, entityType string, entityID *uint, details interface{})
	ListByUser(ctx context.Context, userID uint, limit int, requester *models.User) ([]*models.ActivityLog, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Question() QuestionService
	Exam() ExamService
	Result() ResultService
	ImportExport() ImportExportService
	Activity() ActivityService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
