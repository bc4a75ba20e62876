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

type examService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	policy         *Policy
	eventPublisher events.EventPublisher
	activity       ActivityService
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, policy *Policy, publisher events.EventPublisher, activity ActivityService) ExamService {
	return &examService{
		repo:           repo,
		logger:         logger,
		validator:      v,
		policy:         policy,
		eventPublisher: publisher,
		activity:       activity,
	}
}

// Create builds an exam together with its faculty and question associations
// in a single transaction. Unknown faculty or question ids fail the whole
// request before anything is written.
func (s *examService) Create(ctx context.Context, req *CreateExamRequest, requester *models.User) (*ExamDetailResponse, error) {
	s.logger.Info("Creating exam",
		"title", req.Title,
		"user_id", requester.ID)

	if errs := s.validator.ValidateExamCreate(req); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	if !s.policy.CanPerform(requester, ActionCreate, ResourceExam, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, 0, ResourceExam, ActionCreate, "insufficient role permissions")
	}

	var exam *models.Exam
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.checkFacultyIDs(ctx, txRepo, req.Faculties); err != nil {
			return err
		}
		questions, err := s.checkQuestionIDs(ctx, txRepo, req.Questions)
		if err != nil {
			return err
		}

		totalMarks := req.TotalMarks
		markSum := sumExamMarks(req.Questions, questions)
		if totalMarks == 0 {
			totalMarks = markSum
		} else if totalMarks != markSum && len(req.Questions) > 0 {
			s.logger.Warn("Declared total marks differ from question mark sum",
				"declared", totalMarks,
				"computed", markSum,
				"title", req.Title)
		}

		exam = &models.Exam{
			Title:          req.Title,
			Description:    req.Description,
			Duration:       req.Duration,
			TotalMarks:     totalMarks,
			TotalQuestions: len(req.Questions),
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
			Status:         examStatusFor(req.StartTime, req.EndTime, time.Now()),
			CreatedBy:      requester.ID,
		}
		exam.IsActive = exam.Status == models.ExamActive

		if err := txRepo.Exam().Create(ctx, nil, exam); err != nil {
			return fmt.Errorf("failed to create exam: %w", err)
		}

		if err := s.linkFaculties(ctx, txRepo, exam.ID, req.Faculties); err != nil {
			return err
		}
		return s.linkQuestions(ctx, txRepo, exam.ID, req.Questions, questions)
	})
	if err != nil {
		return nil, err
	}

	s.publishExamEvent(ctx, events.ExamCreated, exam)
	s.activity.Record(ctx, &requester.ID, "exam_created", "exam", &exam.ID, map[string]interface{}{
		"title": exam.Title,
	})

	s.logger.Info("Exam created",
		"exam_id", exam.ID,
		"questions", exam.TotalQuestions,
		"user_id", requester.ID)

	return s.GetByID(ctx, exam.ID, requester)
}

func (s *examService) GetByID(ctx context.Context, id uint, requester *models.User) (*ExamDetailResponse, error) {
	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if !s.policy.CanPerform(requester, ActionRead, ResourceExam, ResourceContext{OwnerID: exam.CreatedBy}) {
		return nil, NewPermissionError(requester.ID, id, ResourceExam, ActionRead, "insufficient permissions")
	}

	return s.buildDetailResponse(exam, requester), nil
}

// Update rewrites exam fields and, when faculty or question lists are
// present, replaces the associations wholesale inside one transaction.
func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest, requester *models.User) (*ExamDetailResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if errs := s.validator.ValidateExamUpdate(req, exam); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	if !s.policy.CanPerform(requester, ActionUpdate, ResourceExam, ResourceContext{OwnerID: exam.CreatedBy}) {
		return nil, NewPermissionError(requester.ID, id, ResourceExam, ActionUpdate, "not owner or insufficient permissions")
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		applyExamUpdates(exam, req)

		if req.Faculties != nil {
			if err := s.checkFacultyIDs(ctx, txRepo, req.Faculties); err != nil {
				return err
			}
			if err := txRepo.ExamFaculty().DeleteByExam(ctx, nil, id); err != nil {
				return fmt.Errorf("failed to clear faculty links: %w", err)
			}
			if err := s.linkFaculties(ctx, txRepo, id, req.Faculties); err != nil {
				return err
			}
		}

		if req.Questions != nil {
			questions, err := s.checkQuestionIDs(ctx, txRepo, req.Questions)
			if err != nil {
				return err
			}
			if err := txRepo.ExamQuestion().DeleteByExam(ctx, nil, id); err != nil {
				return fmt.Errorf("failed to clear question links: %w", err)
			}
			if err := s.linkQuestions(ctx, txRepo, id, req.Questions, questions); err != nil {
				return err
			}
			exam.TotalQuestions = len(req.Questions)
			if req.TotalMarks == nil {
				exam.TotalMarks = sumExamMarks(req.Questions, questions)
			}
		}

		return txRepo.Exam().Update(ctx, nil, exam)
	})
	if err != nil {
		return nil, err
	}

	s.publishExamEvent(ctx, events.ExamUpdated, exam)
	s.activity.Record(ctx, &requester.ID, "exam_updated", "exam", &id, nil)

	return s.GetByID(ctx, id, requester)
}

func (s *examService) Delete(ctx context.Context, id uint, requester *models.User) error {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	if !s.policy.CanPerform(requester, ActionDelete, ResourceExam, ResourceContext{OwnerID: exam.CreatedBy}) {
		return NewPermissionError(requester.ID, id, ResourceExam, ActionDelete, "not owner or insufficient permissions")
	}

	if err := s.repo.Exam().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.publishExamEvent(ctx, events.ExamDeleted, exam)
	s.activity.Record(ctx, &requester.ID, "exam_deleted", "exam", &id, map[string]interface{}{
		"title": exam.Title,
	})

	s.logger.Info("Exam deleted", "exam_id", id, "user_id", requester.ID)
	return nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters, requester *models.User) (*ExamListResponse, error) {
	if !s.policy.CanPerform(requester, ActionList, ResourceExam, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, 0, ResourceExam, ActionList, "insufficient permissions")
	}

	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	responses := make([]*ExamResponse, len(exams))
	for i, exam := range exams {
		responses[i] = s.buildResponse(exam, requester)
	}

	return &ExamListResponse{
		Exams: responses,
		Total: total,
		Page:  pageFromOffset(filters.Offset, filters.Limit),
		Size:  len(responses),
	}, nil
}

// ===== HELPERS =====

func (s *examService) buildResponse(exam *models.Exam, requester *models.User) *ExamResponse {
	rc := ResourceContext{OwnerID: exam.CreatedBy}
	return &ExamResponse{
		Exam:      exam,
		CanEdit:   s.policy.CanPerform(requester, ActionUpdate, ResourceExam, rc),
		CanDelete: s.policy.CanPerform(requester, ActionDelete, ResourceExam, rc),
		CanSubmit: requester.Role == models.RoleStudent && exam.WindowOpen(time.Now()),
	}
}

func (s *examService) buildDetailResponse(exam *models.Exam, requester *models.User) *ExamDetailResponse {
	resp := &ExamDetailResponse{ExamResponse: *s.buildResponse(exam, requester)}

	// Students never see which option is correct.
	revealAnswers := requester.Role != models.RoleStudent

	for i := range exam.Questions {
		link := &exam.Questions[i]
		view := &ExamQuestionView{QuestionID: link.QuestionID, Marks: link.Marks}
		if link.Question.ID != 0 {
			view.Question = questionViewOf(&link.Question, revealAnswers)
			if view.Marks == 0 {
				view.Marks = link.Question.Marks
			}
		}
		resp.Questions = append(resp.Questions, view)
	}

	for i := range exam.Faculties {
		if exam.Faculties[i].Faculty.ID != 0 {
			pub := exam.Faculties[i].Faculty.Public()
			resp.Faculties = append(resp.Faculties, &pub)
		}
	}

	return resp
}

func questionViewOf(q *models.Question, revealAnswer bool) *QuestionView {
	opts, err := q.OptionList()
	if err != nil {
		opts = nil
	}
	view := &QuestionView{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      opts,
		Marks:        q.Marks,
		Difficulty:   q.Difficulty,
		Subject:      q.Subject,
		Topic:        q.Topic,
	}
	if revealAnswer {
		idx := q.CorrectOptionIndex
		view.CorrectOptionIndex = &idx
	}
	return view
}

// checkFacultyIDs verifies every id exists and carries the faculty role.
func (s *examService) checkFacultyIDs(ctx context.Context, txRepo repositories.Repository, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := txRepo.User().GetByIDs(ctx, nil, ids)
	if err != nil {
		return fmt.Errorf("failed to load faculties: %w", err)
	}

	found := make(map[uint]*models.User, len(users))
	for _, u := range users {
		found[u.ID] = u
	}
	var bad []uint
	for _, id := range ids {
		u, ok := found[id]
		if !ok || u.Role != models.RoleFaculty {
			bad = append(bad, id)
		}
	}
	if len(bad) > 0 {
		return NewValidationError("faculties", "unknown or non-faculty user ids", bad)
	}
	return nil
}

// checkQuestionIDs verifies every id exists and is approved, returning the
// loaded questions keyed by id for marks resolution.
func (s *examService) checkQuestionIDs(ctx context.Context, txRepo repositories.Repository, reqs []ExamQuestionRequest) (map[uint]*models.Question, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	ids := make([]uint, len(reqs))
	for i, r := range reqs {
		ids[i] = r.QuestionID
	}

	questions, err := txRepo.Question().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	found := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		found[q.ID] = q
	}
	var bad []uint
	var unapproved []uint
	for _, id := range ids {
		q, ok := found[id]
		if !ok {
			bad = append(bad, id)
		} else if !q.IsApproved {
			unapproved = append(unapproved, id)
		}
	}
	if len(bad) > 0 {
		return nil, NewValidationError("questions", "unknown question ids", bad)
	}
	if len(unapproved) > 0 {
		return nil, NewValidationError("questions", "questions not approved", unapproved)
	}
	return found, nil
}

func (s *examService) linkFaculties(ctx context.Context, txRepo repositories.Repository, examID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	links := make([]*models.ExamFaculty, len(ids))
	for i, fid := range ids {
		links[i] = &models.ExamFaculty{ExamID: examID, FacultyID: fid}
	}
	if err := txRepo.ExamFaculty().CreateBatch(ctx, nil, links); err != nil {
		return fmt.Errorf("failed to link faculties: %w", err)
	}
	return nil
}

func (s *examService) linkQuestions(ctx context.Context, txRepo repositories.Repository, examID uint, reqs []ExamQuestionRequest, questions map[uint]*models.Question) error {
	if len(reqs) == 0 {
		return nil
	}
	links := make([]*models.ExamQuestion, len(reqs))
	for i, r := range reqs {
		marks := r.Marks
		if marks == 0 {
			if q := questions[r.QuestionID]; q != nil {
				marks = q.Marks
			}
		}
		links[i] = &models.ExamQuestion{ExamID: examID, QuestionID: r.QuestionID, Marks: marks}
	}
	if err := txRepo.ExamQuestion().CreateBatch(ctx, nil, links); err != nil {
		return fmt.Errorf("failed to link questions: %w", err)
	}
	return nil
}

func sumExamMarks(reqs []ExamQuestionRequest, questions map[uint]*models.Question) int {
	total := 0
	for _, r := range reqs {
		marks := r.Marks
		if marks == 0 {
			if q := questions[r.QuestionID]; q != nil {
				marks = q.Marks
			}
		}
		total += marks
	}
	return total
}

func examStatusFor(start, end, now time.Time) models.ExamStatus {
	switch {
	case now.Before(start):
		return models.ExamUpcoming
	case now.After(end):
		return models.ExamCompleted
	default:
		return models.ExamActive
	}
}

func applyExamUpdates(exam *models.Exam, req *UpdateExamRequest) {
	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.TotalMarks != nil {
		exam.TotalMarks = *req.TotalMarks
	}
	if req.StartTime != nil {
		exam.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = *req.EndTime
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.Status != nil {
		exam.Status = *req.Status
	}
}

func (s *examService) publishExamEvent(ctx context.Context, eventType string, exam *models.Exam) {
	event := events.NewEvent(eventType, events.ExamEventData{
		ExamID:    exam.ID,
		Title:     exam.Title,
		CreatedBy: exam.CreatedBy,
		StartTime: exam.StartTime,
		EndTime:   exam.EndTime,
	})
	if err := s.eventPublisher.Publish(ctx, events.TopicExams, event); err != nil {
		s.logger.Error("Failed to publish exam event",
			"error", err,
			"event_type", eventType,
			"exam_id", exam.ID)
	}
}

func toServiceValidationErrors(errs validator.ValidationErrors) error {
	out := make(ValidationErrors, len(errs))
	for i, e := range errs {
		out[i] = ValidationError{Field: e.Field, Message: e.Message, Value: e.Value}
	}
	return out
}

func pageFromOffset(offset, limit int) int {
	if limit <= 0 {
		limit = 20
	}
	return offset/limit + 1
}
