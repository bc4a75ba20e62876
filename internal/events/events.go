package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope every platform event travels in.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventSource  = "exam-platform"
	EventVersion = "1.0"
)

// Kafka topics
const (
	TopicExams     = "exam-platform.exams"
	TopicResults   = "exam-platform.results"
	TopicQuestions = "exam-platform.questions"
	TopicUsers     = "exam-platform.users"
)

// Event types
const (
	ExamCreated       = "exam.created"
	ExamUpdated       = "exam.updated"
	ExamDeleted       = "exam.deleted"
	ResultSubmitted   = "result.submitted"
	ResultValidated   = "result.validated"
	QuestionApproved  = "question.approved"
	QuestionRejected  = "question.rejected"
	UserRegistered    = "user.registered"
	BulkNotification  = "system.bulk_notification"
)

// NewEvent builds an envelope with a fresh id and timestamp.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ExamEventData is the payload for exam lifecycle events.
type ExamEventData struct {
	ExamID    uint      `json:"exam_id"`
	Title     string    `json:"title"`
	CreatedBy uint      `json:"created_by"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ResultEventData is the payload for submission and validation events.
type ResultEventData struct {
	ResultID   uint    `json:"result_id"`
	ExamID     uint    `json:"exam_id"`
	StudentID  uint    `json:"student_id"`
	TotalMarks float64 `json:"total_marks"`
	MaxMarks   float64 `json:"max_marks"`
	Status     string  `json:"status"`
}

// QuestionEventData is the payload for question approval events.
type QuestionEventData struct {
	QuestionID uint   `json:"question_id"`
	FacultyID  uint   `json:"faculty_id"`
	Subject    string `json:"subject"`
	Status     string `json:"status"`
}

// UserEventData is the payload for account events.
type UserEventData struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}
