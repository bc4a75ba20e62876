package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Himu336/Web3-Exam-Platform/internal/events"
	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

type resultService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	policy         *Policy
	eventPublisher events.EventPublisher
	activity       ActivityService

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewResultService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, policy *Policy, publisher events.EventPublisher, activity ActivityService) ResultService {
	return &resultService{
		repo:           repo,
		logger:         logger,
		validator:      v,
		policy:         policy,
		eventPublisher: publisher,
		activity:       activity,
		now:            time.Now,
	}
}

// Submit grades a student's answers and stores the result atomically.
// A pending row left by an earlier partial submission is reused and its
// answers replaced; a completed or validated row rejects resubmission.
func (s *resultService) Submit(ctx context.Context, req *SubmitResultRequest, requester *models.User) (*ResultResponse, error) {
	s.logger.Info("Submitting exam result",
		"exam_id", req.ExamID,
		"student_id", requester.ID)

	if !s.policy.CanPerform(requester, ActionSubmit, ResourceResult, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, req.ExamID, ResourceResult, ActionSubmit, "only students submit results")
	}

	var result *models.Result
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		exam, err := txRepo.Exam().GetByID(ctx, nil, req.ExamID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to get exam: %w", err)
		}

		if errs := s.validator.ValidateSubmission(req, exam, s.now()); errs.HasErrors() {
			return toServiceValidationErrors(errs)
		}

		links, err := txRepo.ExamQuestion().GetByExam(ctx, nil, req.ExamID)
		if err != nil {
			return fmt.Errorf("failed to load exam questions: %w", err)
		}
		linkByQuestion := make(map[uint]*models.ExamQuestion, len(links))
		for _, l := range links {
			linkByQuestion[l.QuestionID] = l
		}

		var unknown []uint
		for _, a := range req.Answers {
			if _, ok := linkByQuestion[a.QuestionID]; !ok {
				unknown = append(unknown, a.QuestionID)
			}
		}
		if len(unknown) > 0 {
			return NewValidationError("answers", "questions do not belong to this exam", unknown)
		}

		result, err = s.resolveResultRow(ctx, txRepo, requester.ID, req.ExamID)
		if err != nil {
			return err
		}

		answers, totalMarks := gradeAnswers(result.ID, req.Answers, linkByQuestion)

		now := s.now()
		result.TotalMarks = totalMarks
		result.MaxMarks = exam.TotalMarks
		result.Percentage = percentageOf(totalMarks, exam.TotalMarks)
		result.Status = models.ResultCompleted
		result.SubmittedAt = &now

		if err := txRepo.Result().Update(ctx, nil, result); err != nil {
			return fmt.Errorf("failed to update result: %w", err)
		}

		for _, a := range answers {
			a.ResultID = result.ID
		}
		if err := txRepo.Answer().CreateBatch(ctx, nil, answers); err != nil {
			return fmt.Errorf("failed to store answers: %w", err)
		}

		return nil
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrResultAlreadyExists
		}
		return nil, err
	}

	s.publishResultEvent(ctx, events.ResultSubmitted, result)
	s.activity.Record(ctx, &requester.ID, "result_submitted", "result", &result.ID, map[string]interface{}{
		"exam_id":     req.ExamID,
		"total_marks": result.TotalMarks,
	})

	s.logger.Info("Result submitted",
		"result_id", result.ID,
		"exam_id", req.ExamID,
		"student_id", requester.ID,
		"total_marks", result.TotalMarks)

	return s.GetByID(ctx, result.ID, requester)
}

// resolveResultRow finds or creates the single result row for this student
// and exam. Final rows block resubmission; pending rows are reused with
// their stale answers dropped.
func (s *resultService) resolveResultRow(ctx context.Context, txRepo repositories.Repository, studentID, examID uint) (*models.Result, error) {
	existing, err := txRepo.Result().GetByStudentAndExam(ctx, nil, studentID, examID)
	if err == nil {
		if existing.Final() {
			return nil, ErrResultAlreadyExists
		}
		if err := txRepo.Answer().DeleteByResult(ctx, nil, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to clear stale answers: %w", err)
		}
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up existing result: %w", err)
	}

	result := &models.Result{
		StudentID: studentID,
		ExamID:    examID,
		Status:    models.ResultPending,
	}
	if err := txRepo.Result().Create(ctx, nil, result); err != nil {
		return nil, err
	}
	return result, nil
}

// gradeAnswers scores each answer against the exam's question links. The
// per-exam marks override wins over the question's own marks.
func gradeAnswers(resultID uint, reqs []validator.AnswerRequest, links map[uint]*models.ExamQuestion) ([]*models.Answer, int) {
	answers := make([]*models.Answer, 0, len(reqs))
	total := 0

	for _, req := range reqs {
		link := links[req.QuestionID]

		isCorrect := false
		if req.SelectedOption != nil && link.Question.ID != 0 {
			isCorrect = *req.SelectedOption == link.Question.CorrectOptionIndex
		}

		marks := 0
		if isCorrect {
			marks = link.Marks
			if marks == 0 {
				marks = link.Question.Marks
			}
		}
		total += marks

		correct := isCorrect
		answers = append(answers, &models.Answer{
			ResultID:       resultID,
			QuestionID:     req.QuestionID,
			SelectedOption: req.SelectedOption,
			IsCorrect:      &correct,
			Marks:          marks,
		})
	}

	return answers, total
}

// Validate applies per-answer mark overrides under a row lock and finalizes
// the result. The stored total either comes from the request override or is
// recomputed from the answer rows.
func (s *resultService) Validate(ctx context.Context, id uint, req *ValidateResultRequest, requester *models.User) (*ResultResponse, error) {
	s.logger.Info("Validating result",
		"result_id", id,
		"validator_id", requester.ID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	if !s.policy.CanPerform(requester, ActionValidate, ResourceResult, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, id, ResourceResult, ActionValidate, "insufficient role permissions")
	}

	var result *models.Result
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		result, err = txRepo.Result().GetByIDForUpdate(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrResultNotFound
			}
			return fmt.Errorf("failed to lock result: %w", err)
		}

		if result.Status == models.ResultPending {
			return ErrResultNotValidatable
		}

		answers, err := txRepo.Answer().GetByResult(ctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}
		byQuestion := make(map[uint]*models.Answer, len(answers))
		for _, a := range answers {
			byQuestion[a.QuestionID] = a
		}

		for _, override := range req.Answers {
			if _, ok := byQuestion[override.QuestionID]; !ok {
				return NewValidationError("answers", "no answer for question in this result", override.QuestionID)
			}
			if err := txRepo.Answer().UpdateMarks(ctx, nil, id, override.QuestionID, override.Marks, override.Marks > 0); err != nil {
				return fmt.Errorf("failed to override answer marks: %w", err)
			}
		}

		total := 0
		if req.TotalMarks != nil {
			total = *req.TotalMarks
		} else {
			total, err = txRepo.Answer().SumMarks(ctx, nil, id)
			if err != nil {
				return fmt.Errorf("failed to sum answer marks: %w", err)
			}
		}

		result.TotalMarks = total
		result.Percentage = percentageOf(total, result.MaxMarks)
		result.Status = models.ResultValidated
		result.ValidatedBy = &requester.ID

		return txRepo.Result().Update(ctx, nil, result)
	})
	if err != nil {
		return nil, err
	}

	s.publishResultEvent(ctx, events.ResultValidated, result)
	s.activity.Record(ctx, &requester.ID, "result_validated", "result", &id, map[string]interface{}{
		"total_marks": result.TotalMarks,
	})

	s.logger.Info("Result validated",
		"result_id", id,
		"validator_id", requester.ID,
		"total_marks", result.TotalMarks)

	return s.GetByID(ctx, id, requester)
}

func (s *resultService) GetByID(ctx context.Context, id uint, requester *models.User) (*ResultResponse, error) {
	result, err := s.repo.Result().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if !s.policy.CanPerform(requester, ActionRead, ResourceResult, ResourceContext{OwnerID: result.StudentID}) {
		return nil, NewPermissionError(requester.ID, id, ResourceResult, ActionRead, "not owner or insufficient permissions")
	}

	return s.buildResponse(result, requester), nil
}

func (s *resultService) GetMine(ctx context.Context, filters repositories.ResultFilters, requester *models.User) (*ResultListResponse, error) {
	filters.StudentID = &requester.ID
	return s.list(ctx, filters, requester)
}

func (s *resultService) List(ctx context.Context, filters repositories.ResultFilters, requester *models.User) (*ResultListResponse, error) {
	if !s.policy.CanPerform(requester, ActionList, ResourceResult, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, 0, ResourceResult, ActionList, "insufficient role permissions")
	}
	return s.list(ctx, filters, requester)
}

func (s *resultService) list(ctx context.Context, filters repositories.ResultFilters, requester *models.User) (*ResultListResponse, error) {
	results, total, err := s.repo.Result().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	responses := make([]*ResultResponse, len(results))
	for i, r := range results {
		responses[i] = s.buildResponse(r, requester)
	}

	return &ResultListResponse{
		Results: responses,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    len(responses),
	}, nil
}

func (s *resultService) buildResponse(result *models.Result, requester *models.User) *ResultResponse {
	canValidate := result.Status != models.ResultPending &&
		s.policy.CanPerform(requester, ActionValidate, ResourceResult, ResourceContext{})
	return &ResultResponse{Result: result, CanValidate: canValidate}
}

func (s *resultService) publishResultEvent(ctx context.Context, eventType string, result *models.Result) {
	event := events.NewEvent(eventType, events.ResultEventData{
		ResultID:   result.ID,
		ExamID:     result.ExamID,
		StudentID:  result.StudentID,
		TotalMarks: float64(result.TotalMarks),
		MaxMarks:   float64(result.MaxMarks),
		Status:     string(result.Status),
	})
	if err := s.eventPublisher.Publish(ctx, events.TopicResults, event); err != nil {
		s.logger.Error("Failed to publish result event",
			"error", err,
			"event_type", eventType,
			"result_id", result.ID)
	}
}

func percentageOf(total, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(total) / float64(max) * 100
}
