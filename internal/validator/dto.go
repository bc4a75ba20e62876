package validator

import (
	"time"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
)

// ===== AUTH =====

type RegisterRequest struct {
	Username   string          `json:"username" validate:"required,min=3,max=50"`
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=8,max=72"`
	Role       models.UserRole `json:"role" validate:"required,user_role"`
	Department *string         `json:"department" validate:"omitempty,max=100"`
	RollNumber *string         `json:"roll_number" validate:"omitempty,max=50"`
	Program    *string         `json:"program" validate:"omitempty,max=100"`
	Semester   *string         `json:"semester" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ===== USERS =====

type UserUpdateRequest struct {
	Username   *string            `json:"username" validate:"omitempty,min=3,max=50"`
	Email      *string            `json:"email" validate:"omitempty,email"`
	Role       *models.UserRole   `json:"role" validate:"omitempty,user_role"`
	Status     *models.UserStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Department *string            `json:"department" validate:"omitempty,max=100"`
	RollNumber *string            `json:"roll_number" validate:"omitempty,max=50"`
	Program    *string            `json:"program" validate:"omitempty,max=100"`
	Semester   *string            `json:"semester" validate:"omitempty,max=20"`
}

// ===== QUESTIONS =====

type OptionRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

type QuestionCreateRequest struct {
	QuestionText       string                 `json:"question_text" validate:"required,min=1,max=2000"`
	Options            []OptionRequest        `json:"options" validate:"required,min=2,max=6,dive"`
	CorrectOptionIndex int                    `json:"correct_option_index" validate:"min=0"`
	Subject            string                 `json:"subject" validate:"required,max=100"`
	Topic              string                 `json:"topic" validate:"required,max=100"`
	Difficulty         models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	Marks              int                    `json:"marks" validate:"required,marks_range"`
}

type QuestionUpdateRequest struct {
	QuestionText       *string                 `json:"question_text" validate:"omitempty,min=1,max=2000"`
	Options            []OptionRequest         `json:"options" validate:"omitempty,min=2,max=6,dive"`
	CorrectOptionIndex *int                    `json:"correct_option_index" validate:"omitempty,min=0"`
	Subject            *string                 `json:"subject" validate:"omitempty,max=100"`
	Topic              *string                 `json:"topic" validate:"omitempty,max=100"`
	Difficulty         *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Marks              *int                    `json:"marks" validate:"omitempty,marks_range"`
}

type QuestionApprovalRequest struct {
	Status models.ApprovalStatus `json:"status" validate:"required,approval_status"`
}

// ===== EXAMS =====

// ExamQuestionRequest attaches a question to an exam with an optional
// per-exam marks override.
type ExamQuestionRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
	Marks      int  `json:"marks" validate:"omitempty,marks_range"`
}

type ExamCreateRequest struct {
	Title       string                `json:"title" validate:"required,min=1,max=200"`
	Description *string               `json:"description" validate:"omitempty,max=1000"`
	Duration    int                   `json:"duration" validate:"required,exam_duration"`
	TotalMarks  int                   `json:"total_marks" validate:"omitempty,min=0"`
	StartTime   time.Time             `json:"start_time" validate:"required"`
	EndTime     time.Time             `json:"end_time" validate:"required,gtfield=StartTime"`
	Faculties   []uint                `json:"faculties" validate:"omitempty,dive,required"`
	Questions   []ExamQuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type ExamUpdateRequest struct {
	Title       *string               `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string               `json:"description" validate:"omitempty,max=1000"`
	Duration    *int                  `json:"duration" validate:"omitempty,exam_duration"`
	TotalMarks  *int                  `json:"total_marks" validate:"omitempty,min=0"`
	StartTime   *time.Time            `json:"start_time"`
	EndTime     *time.Time            `json:"end_time"`
	IsActive    *bool                 `json:"is_active"`
	Status      *models.ExamStatus    `json:"status" validate:"omitempty,oneof=upcoming active completed"`
	Faculties   []uint                `json:"faculties" validate:"omitempty,dive,required"`
	Questions   []ExamQuestionRequest `json:"questions" validate:"omitempty,dive"`
}

// ===== RESULTS =====

// AnswerRequest carries one selected option; a nil SelectedOption means
// the question was left unanswered.
type AnswerRequest struct {
	QuestionID     uint `json:"question_id" validate:"required"`
	SelectedOption *int `json:"selected_option" validate:"omitempty,min=0"`
}

type SubmitResultRequest struct {
	ExamID  uint            `json:"exam_id" validate:"required"`
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// AnswerOverride is a per-answer marks correction applied during validation.
type AnswerOverride struct {
	QuestionID uint `json:"question_id" validate:"required"`
	Marks      int  `json:"marks" validate:"min=0"`
}

type ValidateResultRequest struct {
	Answers    []AnswerOverride `json:"answers" validate:"omitempty,dive"`
	TotalMarks *int             `json:"total_marks" validate:"omitempty,min=0"`
}
