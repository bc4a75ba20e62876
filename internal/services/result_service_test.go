package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/Himu336/Web3-Exam-Platform/internal/events"
	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

type testEnv struct {
	repo      *fakeRepository
	publisher *events.MockEventPublisher
	exams     ExamService
	results   ResultService
	questions QuestionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)
	policy := NewPolicy()
	activity := NewActivityService(repo, logger)

	return &testEnv{
		repo:      repo,
		publisher: publisher,
		exams:     NewExamService(repo, logger, v, policy, publisher, activity),
		results:   NewResultService(repo, logger, v, policy, publisher, activity),
		questions: NewQuestionService(repo, logger, v, policy, publisher, activity),
	}
}

func (e *testEnv) addUser(t *testing.T, role models.UserRole, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username: name,
		Email:    name + "@example.edu",
		Password: "x",
		Role:     role,
		Status:   models.UserActive,
	}
	if err := e.repo.User().Create(context.Background(), nil, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func (e *testEnv) addQuestion(t *testing.T, facultyID uint, correctIndex, marks int) *models.Question {
	t.Helper()
	raw, _ := json.Marshal([]models.QuestionOption{
		{Text: "option a"}, {Text: "option b"}, {Text: "option c"}, {Text: "option d"},
	})
	q := &models.Question{
		QuestionText:       "what is the answer",
		Options:            datatypes.JSON(raw),
		CorrectOptionIndex: correctIndex,
		Marks:              marks,
		Difficulty:         models.DifficultyMedium,
		Subject:            "networks",
		Topic:              "routing",
		IsApproved:         true,
		Status:             models.ApprovalApproved,
		FacultyID:          facultyID,
	}
	if err := e.repo.Question().Create(context.Background(), nil, q); err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}
	return q
}

// addExam seeds an exam whose window is open right now, linking the given
// questions with their own marks.
func (e *testEnv) addExam(t *testing.T, creatorID uint, questions ...*models.Question) *models.Exam {
	t.Helper()
	total := 0
	for _, q := range questions {
		total += q.Marks
	}
	exam := &models.Exam{
		Title:          "midterm",
		Duration:       60,
		TotalMarks:     total,
		TotalQuestions: len(questions),
		StartTime:      time.Now().Add(-time.Hour),
		EndTime:        time.Now().Add(time.Hour),
		IsActive:       true,
		Status:         models.ExamActive,
		CreatedBy:      creatorID,
	}
	if err := e.repo.Exam().Create(context.Background(), nil, exam); err != nil {
		t.Fatalf("failed to seed exam: %v", err)
	}
	var links []*models.ExamQuestion
	for _, q := range questions {
		links = append(links, &models.ExamQuestion{ExamID: exam.ID, QuestionID: q.ID, Marks: q.Marks})
	}
	if err := e.repo.ExamQuestion().CreateBatch(context.Background(), nil, links); err != nil {
		t.Fatalf("failed to seed exam questions: %v", err)
	}
	return exam
}

func intPtr(v int) *int { return &v }

func TestResultService_Submit_GradesAnswers(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")

	q1 := env.addQuestion(t, faculty.ID, 2, 5)
	q2 := env.addQuestion(t, faculty.ID, 0, 3)
	q3 := env.addQuestion(t, faculty.ID, 1, 2)
	exam := env.addExam(t, faculty.ID, q1, q2, q3)

	resp, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID: exam.ID,
		Answers: []validator.AnswerRequest{
			{QuestionID: q1.ID, SelectedOption: intPtr(2)}, // correct, 5 marks
			{QuestionID: q2.ID, SelectedOption: intPtr(3)}, // wrong
			{QuestionID: q3.ID, SelectedOption: nil},       // unanswered
		},
	}, student)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if resp.TotalMarks != 5 {
		t.Errorf("expected total marks 5, got %d", resp.TotalMarks)
	}
	if resp.MaxMarks != 10 {
		t.Errorf("expected max marks 10, got %d", resp.MaxMarks)
	}
	if resp.Percentage != 50 {
		t.Errorf("expected 50 percent, got %v", resp.Percentage)
	}
	if resp.Status != models.ResultCompleted {
		t.Errorf("expected status completed, got %s", resp.Status)
	}
	if resp.SubmittedAt == nil {
		t.Error("expected submitted_at to be set")
	}
	if len(resp.Answers) != 3 {
		t.Fatalf("expected 3 stored answers, got %d", len(resp.Answers))
	}

	for _, a := range resp.Answers {
		switch a.QuestionID {
		case q1.ID:
			if a.Marks != 5 || a.IsCorrect == nil || !*a.IsCorrect {
				t.Errorf("q1 should be correct with 5 marks, got marks=%d", a.Marks)
			}
		case q2.ID, q3.ID:
			if a.Marks != 0 || a.IsCorrect == nil || *a.IsCorrect {
				t.Errorf("question %d should be wrong with 0 marks", a.QuestionID)
			}
		}
	}

	published := env.publisher.GetPublishedEvents()
	if len(published) == 0 || published[len(published)-1].Type != events.ResultSubmitted {
		t.Error("expected a result.submitted event")
	}
}

func TestResultService_Submit_RejectsResubmission(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 0, 4)
	exam := env.addExam(t, faculty.ID, q)

	req := &SubmitResultRequest{
		ExamID:  exam.ID,
		Answers: []validator.AnswerRequest{{QuestionID: q.ID, SelectedOption: intPtr(0)}},
	}

	if _, err := env.results.Submit(context.Background(), req, student); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	_, err := env.results.Submit(context.Background(), req, student)
	if !errors.Is(err, ErrResultAlreadyExists) {
		t.Fatalf("expected ErrResultAlreadyExists, got %v", err)
	}
}

func TestResultService_Submit_ReusesPendingRow(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 1, 4)
	exam := env.addExam(t, faculty.ID, q)

	// A stale pending row with a leftover answer from an interrupted attempt.
	pending := &models.Result{StudentID: student.ID, ExamID: exam.ID, Status: models.ResultPending}
	if err := env.repo.Result().Create(context.Background(), nil, pending); err != nil {
		t.Fatalf("failed to seed pending result: %v", err)
	}
	stale := &models.Answer{ResultID: pending.ID, QuestionID: q.ID, Marks: 99}
	if err := env.repo.Answer().CreateBatch(context.Background(), nil, []*models.Answer{stale}); err != nil {
		t.Fatalf("failed to seed stale answer: %v", err)
	}

	resp, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID:  exam.ID,
		Answers: []validator.AnswerRequest{{QuestionID: q.ID, SelectedOption: intPtr(1)}},
	}, student)
	if err != nil {
		t.Fatalf("submit over pending row failed: %v", err)
	}

	if resp.ID != pending.ID {
		t.Errorf("expected pending row %d to be reused, got %d", pending.ID, resp.ID)
	}
	if len(resp.Answers) != 1 {
		t.Fatalf("expected stale answers replaced, got %d answers", len(resp.Answers))
	}
	if resp.Answers[0].Marks != 4 {
		t.Errorf("expected regraded marks 4, got %d", resp.Answers[0].Marks)
	}
	if resp.Status != models.ResultCompleted {
		t.Errorf("expected status completed, got %s", resp.Status)
	}
}

func TestResultService_Submit_RejectsUnknownQuestions(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 0, 4)
	other := env.addQuestion(t, faculty.ID, 0, 4)
	exam := env.addExam(t, faculty.ID, q)

	_, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID: exam.ID,
		Answers: []validator.AnswerRequest{
			{QuestionID: q.ID, SelectedOption: intPtr(0)},
			{QuestionID: other.ID, SelectedOption: intPtr(0)},
		},
	}, student)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for question outside exam, got %v", err)
	}

	// Nothing should have been finalized.
	if res, lookupErr := env.repo.Result().GetByStudentAndExam(context.Background(), nil, student.ID, exam.ID); lookupErr == nil && res.Final() {
		t.Error("result must not be finalized when the submission is rejected")
	}
}

func TestResultService_Submit_RejectsClosedWindow(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 0, 4)
	exam := env.addExam(t, faculty.ID, q)

	exam.StartTime = time.Now().Add(-3 * time.Hour)
	exam.EndTime = time.Now().Add(-2 * time.Hour)
	if err := env.repo.Exam().Update(context.Background(), nil, exam); err != nil {
		t.Fatalf("failed to close exam window: %v", err)
	}

	_, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID:  exam.ID,
		Answers: []validator.AnswerRequest{{QuestionID: q.ID, SelectedOption: intPtr(0)}},
	}, student)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for closed window, got %v", err)
	}
}

func TestResultService_Submit_OnlyStudents(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	q := env.addQuestion(t, faculty.ID, 0, 4)
	exam := env.addExam(t, faculty.ID, q)

	_, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID:  exam.ID,
		Answers: []validator.AnswerRequest{{QuestionID: q.ID, SelectedOption: intPtr(0)}},
	}, faculty)
	if !IsPermissionError(err) {
		t.Fatalf("expected permission error for faculty submission, got %v", err)
	}
}

func TestResultService_Validate_OverridesAndRecomputes(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q1 := env.addQuestion(t, faculty.ID, 0, 5)
	q2 := env.addQuestion(t, faculty.ID, 0, 5)
	exam := env.addExam(t, faculty.ID, q1, q2)

	submitted, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID: exam.ID,
		Answers: []validator.AnswerRequest{
			{QuestionID: q1.ID, SelectedOption: intPtr(0)}, // 5 marks
			{QuestionID: q2.ID, SelectedOption: intPtr(1)}, // 0 marks
		},
	}, student)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Faculty awards partial credit on the wrong answer.
	validated, err := env.results.Validate(context.Background(), submitted.ID, &ValidateResultRequest{
		Answers: []validator.AnswerOverride{{QuestionID: q2.ID, Marks: 3}},
	}, faculty)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if validated.Status != models.ResultValidated {
		t.Errorf("expected status validated, got %s", validated.Status)
	}
	if validated.TotalMarks != 8 {
		t.Errorf("expected recomputed total 8, got %d", validated.TotalMarks)
	}
	if validated.ValidatedBy == nil || *validated.ValidatedBy != faculty.ID {
		t.Error("expected validated_by to record the validator")
	}
	for _, a := range validated.Answers {
		if a.QuestionID == q2.ID {
			if a.Marks != 3 || a.IsCorrect == nil || !*a.IsCorrect {
				t.Errorf("override should set marks=3 and is_correct=true, got marks=%d", a.Marks)
			}
		}
	}
}

func TestResultService_Validate_TotalOverrideWins(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 0, 10)
	exam := env.addExam(t, faculty.ID, q)

	submitted, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID:  exam.ID,
		Answers: []validator.AnswerRequest{{QuestionID: q.ID, SelectedOption: intPtr(0)}},
	}, student)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	validated, err := env.results.Validate(context.Background(), submitted.ID, &ValidateResultRequest{
		TotalMarks: intPtr(7),
	}, faculty)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated.TotalMarks != 7 {
		t.Errorf("expected explicit total 7 to win, got %d", validated.TotalMarks)
	}
}

func TestResultService_Validate_RejectsPendingAndStudents(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 0, 4)
	exam := env.addExam(t, faculty.ID, q)

	pending := &models.Result{StudentID: student.ID, ExamID: exam.ID, Status: models.ResultPending}
	if err := env.repo.Result().Create(context.Background(), nil, pending); err != nil {
		t.Fatalf("failed to seed pending result: %v", err)
	}

	_, err := env.results.Validate(context.Background(), pending.ID, &ValidateResultRequest{}, faculty)
	if !errors.Is(err, ErrResultNotValidatable) {
		t.Fatalf("expected ErrResultNotValidatable for pending result, got %v", err)
	}

	_, err = env.results.Validate(context.Background(), pending.ID, &ValidateResultRequest{}, student)
	if !IsPermissionError(err) {
		t.Fatalf("expected permission error for student validation, got %v", err)
	}
}

func TestResultService_GetByID_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	alice := env.addUser(t, models.RoleStudent, "alice")
	bob := env.addUser(t, models.RoleStudent, "bob")
	q := env.addQuestion(t, faculty.ID, 0, 4)
	exam := env.addExam(t, faculty.ID, q)

	submitted, err := env.results.Submit(context.Background(), &SubmitResultRequest{
		ExamID:  exam.ID,
		Answers: []validator.AnswerRequest{{QuestionID: q.ID, SelectedOption: intPtr(0)}},
	}, alice)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := env.results.GetByID(context.Background(), submitted.ID, alice); err != nil {
		t.Errorf("owner should read own result: %v", err)
	}
	if _, err := env.results.GetByID(context.Background(), submitted.ID, faculty); err != nil {
		t.Errorf("faculty should read results: %v", err)
	}
	if _, err := env.results.GetByID(context.Background(), submitted.ID, bob); !IsPermissionError(err) {
		t.Errorf("other students must not read the result, got %v", err)
	}
}

func TestResultService_GetMine_ScopesToRequester(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	alice := env.addUser(t, models.RoleStudent, "alice")
	bob := env.addUser(t, models.RoleStudent, "bob")
	q := env.addQuestion(t, faculty.ID, 0, 4)
	exam := env.addExam(t, faculty.ID, q)

	for _, s := range []*models.User{alice, bob} {
		if _, err := env.results.Submit(context.Background(), &SubmitResultRequest{
			ExamID:  exam.ID,
			Answers: []validator.AnswerRequest{{QuestionID: q.ID, SelectedOption: intPtr(0)}},
		}, s); err != nil {
			t.Fatalf("submit failed for %s: %v", s.Username, err)
		}
	}

	mine, err := env.results.GetMine(context.Background(), repositories.ResultFilters{}, alice)
	if err != nil {
		t.Fatalf("get mine failed: %v", err)
	}
	if len(mine.Results) != 1 {
		t.Fatalf("expected exactly alice's result, got %d", len(mine.Results))
	}
	if mine.Results[0].StudentID != alice.ID {
		t.Errorf("expected alice's result, got student %d", mine.Results[0].StudentID)
	}
}
