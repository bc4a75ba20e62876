package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

// Workbook layout for question imports. One question per row:
// question text, up to four options, correct option index, marks,
// difficulty, subject, topic.
var importHeader = []string{
	"question_text", "option_a", "option_b", "option_c", "option_d",
	"correct_option_index", "marks", "difficulty", "subject", "topic",
}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	policy    *Policy
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, policy *Policy) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: v,
		policy:    policy,
	}
}

// ImportQuestions parses an xlsx workbook and bulk-creates the valid rows as
// pending questions owned by the requester. Bad rows are reported, not fatal.
func (s *importExportService) ImportQuestions(ctx context.Context, r io.Reader, requester *models.User) (*ImportReport, error) {
	if !s.policy.CanPerform(requester, ActionCreate, ResourceQuestion, ResourceContext{}) {
		return nil, NewPermissionError(requester.ID, 0, ResourceQuestion, ActionCreate, "insufficient role permissions")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewValidationError("file", "not a readable xlsx workbook", nil)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "workbook has no data rows", nil)
	}

	report := &ImportReport{}
	var questions []*models.Question

	for i, row := range rows[1:] {
		rowNum := i + 2
		req, err := parseQuestionRow(row)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if errs := s.validator.ValidateQuestionCreate(req); errs.HasErrors() {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %s", rowNum, errs.Error()))
			continue
		}

		question, err := questionFromCreateRequest(req, requester.ID)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, nil, questions); err != nil {
			return nil, fmt.Errorf("failed to store imported questions: %w", err)
		}
	}
	report.Imported = len(questions)

	s.logger.Info("Question import finished",
		"faculty_id", requester.ID,
		"imported", report.Imported,
		"skipped", report.Skipped)

	return report, nil
}

func parseQuestionRow(row []string) (*validator.QuestionCreateRequest, error) {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	if get(0) == "" {
		return nil, fmt.Errorf("question text is empty")
	}

	var options []validator.OptionRequest
	for i := 1; i <= 4; i++ {
		if text := get(i); text != "" {
			options = append(options, validator.OptionRequest{Text: text})
		}
	}

	correct, err := strconv.Atoi(get(5))
	if err != nil {
		return nil, fmt.Errorf("correct_option_index is not a number")
	}
	marks, err := strconv.Atoi(get(6))
	if err != nil {
		return nil, fmt.Errorf("marks is not a number")
	}

	return &validator.QuestionCreateRequest{
		QuestionText:       get(0),
		Options:            options,
		CorrectOptionIndex: correct,
		Marks:              marks,
		Difficulty:         models.DifficultyLevel(strings.ToLower(get(7))),
		Subject:            get(8),
		Topic:              get(9),
	}, nil
}

// ExportResults writes all results of one exam as an xlsx workbook.
func (s *importExportService) ExportResults(ctx context.Context, examID uint, requester *models.User, w io.Writer) error {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	if !s.policy.CanPerform(requester, ActionList, ResourceResult, ResourceContext{}) {
		return NewPermissionError(requester.ID, examID, ResourceResult, ActionList, "insufficient role permissions")
	}

	results, _, err := s.repo.Result().List(ctx, nil, repositories.ResultFilters{
		ExamID: &examID,
		Limit:  100,
	})
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"Student", "Email", "Total Marks", "Max Marks", "Percentage", "Status", "Submitted At"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, result := range results {
		submittedAt := ""
		if result.SubmittedAt != nil {
			submittedAt = result.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		row := []interface{}{
			result.Student.Username,
			result.Student.Email,
			result.TotalMarks,
			result.MaxMarks,
			result.Percentage,
			string(result.Status),
			submittedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Results exported",
		"exam_id", examID,
		"exam_title", exam.Title,
		"rows", len(results),
		"user_id", requester.ID)

	return nil
}
