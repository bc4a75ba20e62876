package models

import (
	"time"
)

type ResultStatus string

const (
	ResultPending   ResultStatus = "pending"
	ResultCompleted ResultStatus = "completed"
	ResultValidated ResultStatus = "validated"
)

// Result records one student's performance on one exam. At most one row
// exists per (student, exam); the unique index is the concurrency guard
// against double submission.
type Result struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	StudentID uint `json:"student_id" gorm:"not null;uniqueIndex:idx_student_exam"`
	ExamID    uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_student_exam;index"`

	// Scoring
	TotalMarks int     `json:"total_marks" gorm:"not null;default:0"`
	MaxMarks   int     `json:"max_marks" gorm:"not null;default:0"`
	Percentage float64 `json:"percentage" gorm:"type:decimal(5,2)"`

	Status      ResultStatus `json:"status" gorm:"not null;default:pending;size:50;index"`
	SubmittedAt *time.Time   `json:"submitted_at"`
	ValidatedBy *uint        `json:"validated_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student   User     `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Exam      Exam     `json:"exam,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Validator *User    `json:"validator,omitempty" gorm:"foreignKey:ValidatedBy"`
	Answers   []Answer `json:"answers,omitempty" gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE"`
}

func (Result) TableName() string {
	return "results"
}

// Final reports whether the result can no longer be re-submitted.
func (r *Result) Final() bool {
	return r.Status == ResultCompleted || r.Status == ResultValidated
}

// Answer is one student's response to one question within a result.
// The (result, question) pair is unique; rows are cascade-deleted with
// their result.
type Answer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ResultID   uint `json:"result_id" gorm:"not null;uniqueIndex:idx_result_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_result_question;index"`

	SelectedOption *int  `json:"selected_option"`
	IsCorrect      *bool `json:"is_correct"`
	Marks          int   `json:"marks" gorm:"not null;default:0"`

	// Relations
	Result   Result   `json:"-" gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE"`
	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Answer) TableName() string {
	return "answers"
}
