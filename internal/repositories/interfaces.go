package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role      *models.UserRole   `json:"role"`
	Status    *models.UserStatus `json:"status"`
	Query     *string            `json:"query"` // matches username or email
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`
	SortOrder string             `json:"sort_order"`
}

type QuestionFilters struct {
	FacultyID  *uint                   `json:"faculty_id"`
	Subject    *string                 `json:"subject"`
	Topic      *string                 `json:"topic"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	IsApproved *bool                   `json:"is_approved"`
	Status     *models.ApprovalStatus  `json:"status"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`
	SortOrder  string                  `json:"sort_order"`
}

type ExamFilters struct {
	Status    *models.ExamStatus `json:"status"`
	IsActive  *bool              `json:"is_active"`
	CreatedBy *uint              `json:"created_by"`
	FacultyID *uint              `json:"faculty_id"` // exams the faculty is assigned to
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`
	SortOrder string             `json:"sort_order"`
}

type ResultFilters struct {
	StudentID *uint                `json:"student_id"`
	ExamID    *uint                `json:"exam_id"`
	Status    *models.ResultStatus `json:"status"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`
	SortOrder string               `json:"sort_order"`
}

// ===== ENTITY REPOSITORIES =====

// Methods take an optional tx handle; a nil tx means the repository's own
// connection (teacher convention kept so services can compose transactions).

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
}

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
}

type ExamQuestionRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, links []*models.ExamQuestion) error
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error)
	DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error
}

type ExamFacultyRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, links []*models.ExamFaculty) error
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamFaculty, error)
	DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error
}

type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.Result) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	// GetByIDForUpdate locks the result row for the duration of the
	// surrounding transaction (validation read-modify-write guard).
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	GetByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) (*models.Result, error)
	Update(ctx context.Context, tx *gorm.DB, result *models.Result) error
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.Result, int64, error)
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error
	GetByResult(ctx context.Context, tx *gorm.DB, resultID uint) ([]*models.Answer, error)
	DeleteByResult(ctx context.Context, tx *gorm.DB, resultID uint) error
	UpdateMarks(ctx context.Context, tx *gorm.DB, resultID, questionID uint, marks int, isCorrect bool) error
	SumMarks(ctx context.Context, tx *gorm.DB, resultID uint) (int, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]*models.ActivityLog, error)
}
