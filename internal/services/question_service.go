package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/Himu336/Web3-Exam-Platform/internal/events"
	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

type questionService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	policy         *Policy
	eventPublisher events.EventPublisher
	activity       ActivityService
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, policy *Policy, publisher events.EventPublisher, activity ActivityService) QuestionService {
	return &questionService{
		repo:           repo,
		logger:         logger,
		validator:      v,
		policy:         policy,
		eventPublisher: publisher,
		activity:       activity,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, requester *models.User) (*QuestionResponse, error) {
	if errs := s.validator.ValidateQuestionCreate(req); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	if !s.policy.CanPerform(requester, ActionCreate, ResourceQuestion, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, 0, ResourceQuestion, ActionCreate, "insufficient role permissions")
	}

	question, err := questionFromCreateRequest(req, requester.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.activity.Record(ctx, &requester.ID, "question_created", "question", &question.ID, map[string]interface{}{
		"subject": question.Subject,
	})

	s.logger.Info("Question created",
		"question_id", question.ID,
		"faculty_id", requester.ID,
		"subject", question.Subject)

	return s.buildResponse(question, requester), nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, requester *models.User) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if !s.policy.CanPerform(requester, ActionRead, ResourceQuestion, ResourceContext{OwnerID: question.FacultyID}) {
		return nil, NewPermissionError(requester.ID, id, ResourceQuestion, ActionRead, "insufficient permissions")
	}

	return s.buildResponse(question, requester), nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, requester *models.User) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if errs := s.validator.ValidateQuestionUpdate(req, question); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	if !s.policy.CanPerform(requester, ActionUpdate, ResourceQuestion, ResourceContext{OwnerID: question.FacultyID}) {
		return nil, NewPermissionError(requester.ID, id, ResourceQuestion, ActionUpdate, "not owner or insufficient permissions")
	}

	if err := applyQuestionUpdates(question, req); err != nil {
		return nil, err
	}

	// Any edit by a non-admin sends the question back through approval.
	if requester.Role != models.RoleAdmin {
		question.IsApproved = false
		question.Status = models.ApprovalPending
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.activity.Record(ctx, &requester.ID, "question_updated", "question", &id, nil)

	return s.buildResponse(question, requester), nil
}

func (s *questionService) Delete(ctx context.Context, id uint, requester *models.User) error {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if !s.policy.CanPerform(requester, ActionDelete, ResourceQuestion, ResourceContext{OwnerID: question.FacultyID}) {
		return NewPermissionError(requester.ID, id, ResourceQuestion, ActionDelete, "not owner or insufficient permissions")
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		// Questions referenced by exams are protected by the FK.
		if repositories.IsForeignKeyError(err) {
			return NewValidationError("id", "question is used by one or more exams", id)
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.activity.Record(ctx, &requester.ID, "question_deleted", "question", &id, nil)
	s.logger.Info("Question deleted", "question_id", id, "user_id", requester.ID)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters, requester *models.User) (*QuestionListResponse, error) {
	if !s.policy.CanPerform(requester, ActionList, ResourceQuestion, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, 0, ResourceQuestion, ActionList, "insufficient role permissions")
	}

	// Faculty members only browse their own bank; admins see everything.
	if requester.Role == models.RoleFaculty {
		filters.FacultyID = &requester.ID
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	responses := make([]*QuestionResponse, len(questions))
	for i, q := range questions {
		responses[i] = s.buildResponse(q, requester)
	}

	return &QuestionListResponse{
		Questions: responses,
		Total:     total,
		Page:      pageFromOffset(filters.Offset, filters.Limit),
		Size:      len(responses),
	}, nil
}

// SetApproval moves a question between pending/approved/rejected. Only
// admins hold the approve action.
func (s *questionService) SetApproval(ctx context.Context, id uint, req *QuestionApprovalRequest, requester *models.User) (*QuestionResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	if !s.policy.CanPerform(requester, ActionApprove, ResourceQuestion, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, id, ResourceQuestion, ActionApprove, "approval is admin only")
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	question.Status = req.Status
	question.IsApproved = req.Status == models.ApprovalApproved

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update approval: %w", err)
	}

	eventType := events.QuestionApproved
	if req.Status == models.ApprovalRejected {
		eventType = events.QuestionRejected
	}
	event := events.NewEvent(eventType, events.QuestionEventData{
		QuestionID: question.ID,
		FacultyID:  question.FacultyID,
		Subject:    question.Subject,
		Status:     string(question.Status),
	})
	if err := s.eventPublisher.Publish(ctx, events.TopicQuestions, event); err != nil {
		s.logger.Error("Failed to publish question event",
			"error", err,
			"question_id", question.ID)
	}

	s.activity.Record(ctx, &requester.ID, "question_"+string(req.Status), "question", &id, nil)

	return s.buildResponse(question, requester), nil
}

func (s *questionService) buildResponse(question *models.Question, requester *models.User) *QuestionResponse {
	rc := ResourceContext{OwnerID: question.FacultyID}
	return &QuestionResponse{
		Question:  question,
		CanEdit:   s.policy.CanPerform(requester, ActionUpdate, ResourceQuestion, rc),
		CanDelete: s.policy.CanPerform(requester, ActionDelete, ResourceQuestion, rc),
	}
}

func questionFromCreateRequest(req *CreateQuestionRequest, facultyID uint) (*models.Question, error) {
	options := make([]models.QuestionOption, len(req.Options))
	for i, o := range req.Options {
		options[i] = models.QuestionOption{Text: o.Text}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	return &models.Question{
		QuestionText:       req.QuestionText,
		Options:            datatypes.JSON(raw),
		CorrectOptionIndex: req.CorrectOptionIndex,
		Marks:              req.Marks,
		Difficulty:         req.Difficulty,
		Subject:            req.Subject,
		Topic:              req.Topic,
		Status:             models.ApprovalPending,
		FacultyID:          facultyID,
	}, nil
}

func applyQuestionUpdates(question *models.Question, req *UpdateQuestionRequest) error {
	if req.QuestionText != nil {
		question.QuestionText = *req.QuestionText
	}
	if req.Options != nil {
		options := make([]models.QuestionOption, len(req.Options))
		for i, o := range req.Options {
			options[i] = models.QuestionOption{Text: o.Text}
		}
		raw, err := json.Marshal(options)
		if err != nil {
			return fmt.Errorf("failed to encode options: %w", err)
		}
		question.Options = datatypes.JSON(raw)
	}
	if req.CorrectOptionIndex != nil {
		question.CorrectOptionIndex = *req.CorrectOptionIndex
	}
	if req.Subject != nil {
		question.Subject = *req.Subject
	}
	if req.Topic != nil {
		question.Topic = *req.Topic
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.Marks != nil {
		question.Marks = *req.Marks
	}
	return nil
}
