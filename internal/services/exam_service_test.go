package services

import (
	"context"
	"testing"
	"time"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

func examCreateReq(questions ...*models.Question) *CreateExamRequest {
	req := &CreateExamRequest{
		Title:     "final exam",
		Duration:  90,
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(3 * time.Hour),
	}
	for _, q := range questions {
		req.Questions = append(req.Questions, validator.ExamQuestionRequest{QuestionID: q.ID})
	}
	return req
}

func TestExamService_Create_ComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, models.RoleAdmin, "root")
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	q1 := env.addQuestion(t, faculty.ID, 0, 5)
	q2 := env.addQuestion(t, faculty.ID, 0, 3)

	req := examCreateReq(q1, q2)
	req.Faculties = []uint{faculty.ID}

	resp, err := env.exams.Create(context.Background(), req, admin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if resp.TotalMarks != 8 {
		t.Errorf("expected total marks 8, got %d", resp.TotalMarks)
	}
	if resp.TotalQuestions != 2 {
		t.Errorf("expected 2 questions, got %d", resp.TotalQuestions)
	}
	if resp.Status != models.ExamUpcoming {
		t.Errorf("expected upcoming status for a future window, got %s", resp.Status)
	}
	if len(resp.Questions) != 2 {
		t.Errorf("expected 2 question links in response, got %d", len(resp.Questions))
	}
	if len(resp.Faculties) != 1 {
		t.Errorf("expected 1 assigned faculty, got %d", len(resp.Faculties))
	}
}

func TestExamService_Create_MarksOverridePerExam(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, models.RoleAdmin, "root")
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	q := env.addQuestion(t, faculty.ID, 0, 5)

	req := examCreateReq()
	req.Questions = []validator.ExamQuestionRequest{{QuestionID: q.ID, Marks: 10}}

	resp, err := env.exams.Create(context.Background(), req, admin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if resp.TotalMarks != 10 {
		t.Errorf("expected per-exam override 10 to win over question marks, got %d", resp.TotalMarks)
	}
}

func TestExamService_Create_RejectsUnknownFaculty(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, models.RoleAdmin, "root")
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 0, 5)

	req := examCreateReq(q)
	req.Faculties = []uint{faculty.ID, student.ID, 999}

	_, err := env.exams.Create(context.Background(), req, admin)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for unknown/non-faculty ids, got %v", err)
	}

	// The whole request fails before anything is written.
	if len(env.repo.exams) != 0 {
		t.Error("no exam row should exist after a rejected create")
	}
	if len(env.repo.examQuestions) != 0 || len(env.repo.examFaculties) != 0 {
		t.Error("no association rows should exist after a rejected create")
	}
}

func TestExamService_Create_RejectsUnapprovedQuestions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, models.RoleAdmin, "root")
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	q := env.addQuestion(t, faculty.ID, 0, 5)
	q.IsApproved = false
	q.Status = models.ApprovalPending

	_, err := env.exams.Create(context.Background(), examCreateReq(q), admin)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for unapproved question, got %v", err)
	}
	if len(env.repo.exams) != 0 {
		t.Error("no exam row should exist after a rejected create")
	}
}

func TestExamService_Create_RejectsBadWindow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, models.RoleAdmin, "root")

	req := examCreateReq()
	req.StartTime = time.Now().Add(2 * time.Hour)
	req.EndTime = time.Now().Add(time.Hour)

	_, err := env.exams.Create(context.Background(), req, admin)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for end before start, got %v", err)
	}
}

func TestExamService_Create_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	student := env.addUser(t, models.RoleStudent, "alice")
	faculty := env.addUser(t, models.RoleFaculty, "prof")

	if _, err := env.exams.Create(context.Background(), examCreateReq(), student); !IsPermissionError(err) {
		t.Errorf("expected permission error for student exam create, got %v", err)
	}
	if _, err := env.exams.Create(context.Background(), examCreateReq(), faculty); !IsPermissionError(err) {
		t.Errorf("expected permission error for faculty exam create, got %v", err)
	}
}

func TestExamService_GetByID_RedactsAnswersForStudents(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	q := env.addQuestion(t, faculty.ID, 2, 5)
	exam := env.addExam(t, faculty.ID, q)

	asStudent, err := env.exams.GetByID(context.Background(), exam.ID, student)
	if err != nil {
		t.Fatalf("student read failed: %v", err)
	}
	if asStudent.Questions[0].Question.CorrectOptionIndex != nil {
		t.Error("students must not see the correct option index")
	}
	if !asStudent.CanSubmit {
		t.Error("students should be able to submit while the window is open")
	}

	asFaculty, err := env.exams.GetByID(context.Background(), exam.ID, faculty)
	if err != nil {
		t.Fatalf("faculty read failed: %v", err)
	}
	idx := asFaculty.Questions[0].Question.CorrectOptionIndex
	if idx == nil || *idx != 2 {
		t.Error("faculty should see the correct option index")
	}
}

func TestExamService_Update_ReplacesQuestionLinks(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, models.RoleAdmin, "root")
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	q1 := env.addQuestion(t, faculty.ID, 0, 5)
	q2 := env.addQuestion(t, faculty.ID, 0, 7)
	exam := env.addExam(t, admin.ID, q1)

	resp, err := env.exams.Update(context.Background(), exam.ID, &UpdateExamRequest{
		Questions: []validator.ExamQuestionRequest{{QuestionID: q2.ID}},
	}, admin)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(resp.Questions) != 1 {
		t.Fatalf("expected associations replaced wholesale, got %d links", len(resp.Questions))
	}
	if resp.Questions[0].QuestionID != q2.ID {
		t.Errorf("expected link to question %d, got %d", q2.ID, resp.Questions[0].QuestionID)
	}
	if resp.TotalMarks != 7 {
		t.Errorf("expected recomputed total 7, got %d", resp.TotalMarks)
	}
	if resp.TotalQuestions != 1 {
		t.Errorf("expected recomputed question count 1, got %d", resp.TotalQuestions)
	}
}

func TestExamService_Update_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	creator := env.addUser(t, models.RoleAdmin, "root")
	other := env.addUser(t, models.RoleAdmin, "root2")
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	exam := env.addExam(t, creator.ID)

	title := "renamed"
	if _, err := env.exams.Update(context.Background(), exam.ID, &UpdateExamRequest{Title: &title}, faculty); !IsPermissionError(err) {
		t.Errorf("faculty must not update exams, got %v", err)
	}
	if _, err := env.exams.Update(context.Background(), exam.ID, &UpdateExamRequest{Title: &title}, other); err != nil {
		t.Errorf("any admin should update the exam: %v", err)
	}
}

func TestExamService_Delete_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, models.RoleAdmin, "root")
	student := env.addUser(t, models.RoleStudent, "alice")
	exam := env.addExam(t, admin.ID)

	if err := env.exams.Delete(context.Background(), exam.ID, student); !IsPermissionError(err) {
		t.Errorf("students must not delete exams, got %v", err)
	}
	if err := env.exams.Delete(context.Background(), exam.ID, admin); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if _, err := env.exams.GetByID(context.Background(), exam.ID, admin); err != ErrExamNotFound {
		t.Errorf("expected ErrExamNotFound after delete, got %v", err)
	}
}

func TestExamService_List_StudentsDenied(t *testing.T) {
	env := newTestEnv(t)
	faculty := env.addUser(t, models.RoleFaculty, "prof")
	student := env.addUser(t, models.RoleStudent, "alice")
	env.addExam(t, faculty.ID)

	if _, err := env.exams.List(context.Background(), repositories.ExamFilters{}, student); !IsPermissionError(err) {
		t.Errorf("students must not list exams, got %v", err)
	}
	if _, err := env.exams.List(context.Background(), repositories.ExamFilters{}, faculty); err != nil {
		t.Errorf("faculty listing failed: %v", err)
	}
}
