package validator

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
)

// registerCustomRules installs the platform's domain rules on the wrapped
// validator instance.
func (v *Validator) registerCustomRules() {
	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := models.UserRole(fl.Field().String())
		return role == models.RoleStudent || role == models.RoleFaculty || role == models.RoleAdmin
	})

	v.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		level := models.DifficultyLevel(fl.Field().String())
		return level == models.DifficultyEasy || level == models.DifficultyMedium || level == models.DifficultyHard
	})

	v.validate.RegisterValidation("approval_status", func(fl validator.FieldLevel) bool {
		status := models.ApprovalStatus(fl.Field().String())
		return status == models.ApprovalApproved || status == models.ApprovalRejected
	})

	// Exam duration in minutes
	v.validate.RegisterValidation("exam_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 5 && duration <= 600
	})

	v.validate.RegisterValidation("marks_range", func(fl validator.FieldLevel) bool {
		marks := fl.Field().Int()
		return marks >= 1 && marks <= 100
	})
}

// ValidateQuestionCreate runs struct rules plus the option-index invariant.
func (v *Validator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	errors := v.Validate(req)
	errors = append(errors, validateOptionIndex(req.CorrectOptionIndex, len(req.Options))...)
	return errors
}

// ValidateQuestionUpdate checks the option-index invariant against whatever
// the question will hold after the update.
func (v *Validator) ValidateQuestionUpdate(req *QuestionUpdateRequest, existing *models.Question) ValidationErrors {
	errors := v.Validate(req)

	optionCount := 0
	if opts, err := existing.OptionList(); err == nil {
		optionCount = len(opts)
	}
	if req.Options != nil {
		optionCount = len(req.Options)
	}
	index := existing.CorrectOptionIndex
	if req.CorrectOptionIndex != nil {
		index = *req.CorrectOptionIndex
	}
	errors = append(errors, validateOptionIndex(index, optionCount)...)
	return errors
}

func validateOptionIndex(index, optionCount int) ValidationErrors {
	if index < 0 || index >= optionCount {
		return ValidationErrors{{
			Field:   "correct_option_index",
			Message: fmt.Sprintf("must reference one of the %d options", optionCount),
			Value:   index,
			Rule:    "option_index",
		}}
	}
	return nil
}

// ValidateExamCreate runs struct rules plus window sanity checks.
func (v *Validator) ValidateExamCreate(req *ExamCreateRequest) ValidationErrors {
	errors := v.Validate(req)

	if !req.EndTime.After(req.StartTime) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   req.EndTime,
			Rule:    "exam_window",
		})
	}

	errors = append(errors, validateDuplicateQuestionIDs(req.Questions)...)
	return errors
}

// ValidateExamUpdate resolves the window the exam will hold after the update
// and checks it the same way as creation.
func (v *Validator) ValidateExamUpdate(req *ExamUpdateRequest, existing *models.Exam) ValidationErrors {
	errors := v.Validate(req)

	start := existing.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := existing.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if !end.After(start) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   end,
			Rule:    "exam_window",
		})
	}

	errors = append(errors, validateDuplicateQuestionIDs(req.Questions)...)
	return errors
}

func validateDuplicateQuestionIDs(questions []ExamQuestionRequest) ValidationErrors {
	seen := make(map[uint]bool, len(questions))
	for _, q := range questions {
		if seen[q.QuestionID] {
			return ValidationErrors{{
				Field:   "questions",
				Message: fmt.Sprintf("question %d appears more than once", q.QuestionID),
				Value:   q.QuestionID,
				Rule:    "duplicate_question",
			}}
		}
		seen[q.QuestionID] = true
	}
	return nil
}

// ValidateSubmission checks a submission against the exam window and
// duplicate answer rows.
func (v *Validator) ValidateSubmission(req *SubmitResultRequest, exam *models.Exam, now time.Time) ValidationErrors {
	errors := v.Validate(req)

	if !exam.WindowOpen(now) {
		errors = append(errors, ValidationError{
			Field:   "exam_id",
			Message: "exam window is closed",
			Value:   req.ExamID,
			Rule:    "exam_window",
		})
	}

	seen := make(map[uint]bool, len(req.Answers))
	for _, a := range req.Answers {
		if seen[a.QuestionID] {
			errors = append(errors, ValidationError{
				Field:   "answers",
				Message: fmt.Sprintf("question %d answered more than once", a.QuestionID),
				Value:   a.QuestionID,
				Rule:    "duplicate_answer",
			})
		}
		seen[a.QuestionID] = true
	}

	return errors
}
