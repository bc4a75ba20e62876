package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// QuestionOption is one display choice. Options are stored as a JSONB array
// of these objects in the questions table.
type QuestionOption struct {
	Text string `json:"text" validate:"required"`
}

type Question struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	QuestionText string `json:"question_text" gorm:"type:text;not null" validate:"required"`

	// Options JSONB array; CorrectOptionIndex must be a valid index into it.
	Options            datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	CorrectOptionIndex int            `json:"correct_option_index,omitempty" gorm:"not null" validate:"min=0"`

	Marks      int             `json:"marks" gorm:"not null;default:1" validate:"min=1"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"not null;default:medium;size:50;index" validate:"omitempty,difficulty_level"`
	Subject    string          `json:"subject" gorm:"not null;size:255" validate:"required"`
	Topic      string          `json:"topic" gorm:"not null;size:255" validate:"required"`

	// Approval is controlled exclusively by admins.
	IsApproved bool           `json:"is_approved" gorm:"not null;default:false"`
	Status     ApprovalStatus `json:"status" gorm:"not null;default:pending;size:50;index"`

	FacultyID uint      `json:"faculty_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Faculty User `json:"faculty,omitempty" gorm:"foreignKey:FacultyID"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the JSONB options column.
func (q *Question) OptionList() ([]QuestionOption, error) {
	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// ExamQuestion links a question to an exam with a per-exam marks override.
// The (exam, question) pair is unique; rows are cascade-deleted with the exam.
type ExamQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamID     uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_question;constraint:OnDelete:CASCADE"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_exam_question;index"`
	Marks      int  `json:"marks" gorm:"not null;default:1"`

	// Relations
	Exam     Exam     `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
