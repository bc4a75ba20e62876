package models

import (
	"time"
)

type ExamStatus string

const (
	ExamUpcoming  ExamStatus = "upcoming"
	ExamActive    ExamStatus = "active"
	ExamCompleted ExamStatus = "completed"
)

type Exam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:255;index" validate:"required,min=1,max=255"`
	Description *string `json:"description" gorm:"type:text"`

	Duration       int `json:"duration" gorm:"not null" validate:"required,min=1"` // minutes
	TotalMarks     int `json:"total_marks" gorm:"not null" validate:"required,min=1"`
	TotalQuestions int `json:"total_questions" gorm:"not null;default:0"`

	// Scheduling window
	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`

	IsActive bool       `json:"is_active" gorm:"not null;default:false"`
	Status   ExamStatus `json:"status" gorm:"not null;default:upcoming;size:50;index"`

	CreatedBy uint      `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Creator   User           `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Faculties []ExamFaculty  `json:"faculties,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Questions []ExamQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Results   []Result       `json:"results,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}

func (Exam) TableName() string {
	return "exams"
}

// WindowOpen reports whether submissions are currently accepted.
func (e *Exam) WindowOpen(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// ExamFaculty assigns a faculty account to an exam for question contribution
// and result validation. The (exam, faculty) pair is unique; rows are
// cascade-deleted with the exam.
type ExamFaculty struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ExamID    uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_faculty;constraint:OnDelete:CASCADE"`
	FacultyID uint `json:"faculty_id" gorm:"not null;uniqueIndex:idx_exam_faculty;index"`

	// Relations
	Exam    Exam `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Faculty User `json:"faculty,omitempty" gorm:"foreignKey:FacultyID;constraint:OnDelete:CASCADE"`
}

func (ExamFaculty) TableName() string {
	return "exam_faculties"
}
