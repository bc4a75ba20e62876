package services

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
)

// fakeRepository is an in-memory Repository used by the service tests.
// Transactions run the callback against the same store; atomicity-sensitive
// tests rely on services doing their checks before their writes.
type fakeRepository struct {
	users         map[uint]*models.User
	questions     map[uint]*models.Question
	exams         map[uint]*models.Exam
	examQuestions []*models.ExamQuestion
	examFaculties []*models.ExamFaculty
	results       map[uint]*models.Result
	answers       []*models.Answer
	activities    []*models.ActivityLog

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:     make(map[uint]*models.User),
		questions: make(map[uint]*models.Question),
		exams:     make(map[uint]*models.Exam),
		results:   make(map[uint]*models.Result),
		nextID:    1,
	}
}

func (f *fakeRepository) id() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepository) User() repositories.UserRepository                 { return &fakeUserRepo{f} }
func (f *fakeRepository) Question() repositories.QuestionRepository         { return &fakeQuestionRepo{f} }
func (f *fakeRepository) Exam() repositories.ExamRepository                 { return &fakeExamRepo{f} }
func (f *fakeRepository) ExamQuestion() repositories.ExamQuestionRepository { return &fakeExamQuestionRepo{f} }
func (f *fakeRepository) ExamFaculty() repositories.ExamFacultyRepository   { return &fakeExamFacultyRepo{f} }
func (f *fakeRepository) Result() repositories.ResultRepository             { return &fakeResultRepo{f} }
func (f *fakeRepository) Answer() repositories.AnswerRepository             { return &fakeAnswerRepo{f} }
func (f *fakeRepository) Activity() repositories.ActivityRepository         { return &fakeActivityRepo{f} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== USER =====

type fakeUserRepo struct{ f *fakeRepository }

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	for _, u := range r.f.users {
		if u.Email == user.Email || u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.f.id()
	r.f.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	if u, ok := r.f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.f.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range r.f.users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ===== QUESTION =====

type fakeQuestionRepo struct{ f *fakeRepository }

func (r *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	q.ID = r.f.id()
	r.f.questions[q.ID] = q
	return nil
}

func (r *fakeQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, qs []*models.Question) error {
	for _, q := range qs {
		q.ID = r.f.id()
		r.f.questions[q.ID] = q
	}
	return nil
}

func (r *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	if q, ok := r.f.questions[id]; ok {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range ids {
		if q, ok := r.f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	r.f.questions[q.ID] = q
	return nil
}

func (r *fakeQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	for _, link := range r.f.examQuestions {
		if link.QuestionID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	delete(r.f.questions, id)
	return nil
}

func (r *fakeQuestionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var out []*models.Question
	for _, q := range r.f.questions {
		if filters.FacultyID != nil && q.FacultyID != *filters.FacultyID {
			continue
		}
		if filters.IsApproved != nil && q.IsApproved != *filters.IsApproved {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ===== EXAM =====

type fakeExamRepo struct{ f *fakeRepository }

func (r *fakeExamRepo) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	exam.ID = r.f.id()
	r.f.exams[exam.ID] = exam
	return nil
}

func (r *fakeExamRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if e, ok := r.f.exams[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeExamRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	exam, ok := r.f.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	// Simulate preloads.
	copy := *exam
	copy.Questions = nil
	copy.Faculties = nil
	for _, link := range r.f.examQuestions {
		if link.ExamID != id {
			continue
		}
		l := *link
		if q, ok := r.f.questions[link.QuestionID]; ok {
			l.Question = *q
		}
		copy.Questions = append(copy.Questions, l)
	}
	for _, link := range r.f.examFaculties {
		if link.ExamID != id {
			continue
		}
		l := *link
		if u, ok := r.f.users[link.FacultyID]; ok {
			l.Faculty = *u
		}
		copy.Faculties = append(copy.Faculties, l)
	}
	return &copy, nil
}

func (r *fakeExamRepo) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	r.f.exams[exam.ID] = exam
	return nil
}

func (r *fakeExamRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.exams, id)
	var keptQ []*models.ExamQuestion
	for _, l := range r.f.examQuestions {
		if l.ExamID != id {
			keptQ = append(keptQ, l)
		}
	}
	r.f.examQuestions = keptQ
	var keptF []*models.ExamFaculty
	for _, l := range r.f.examFaculties {
		if l.ExamID != id {
			keptF = append(keptF, l)
		}
	}
	r.f.examFaculties = keptF
	return nil
}

func (r *fakeExamRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var out []*models.Exam
	for _, e := range r.f.exams {
		if filters.CreatedBy != nil && e.CreatedBy != *filters.CreatedBy {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ===== ASSOCIATIONS =====

type fakeExamQuestionRepo struct{ f *fakeRepository }

func (r *fakeExamQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, links []*models.ExamQuestion) error {
	for _, link := range links {
		link.ID = r.f.id()
		r.f.examQuestions = append(r.f.examQuestions, link)
	}
	return nil
}

func (r *fakeExamQuestionRepo) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	var out []*models.ExamQuestion
	for _, link := range r.f.examQuestions {
		if link.ExamID != examID {
			continue
		}
		l := *link
		if q, ok := r.f.questions[link.QuestionID]; ok {
			l.Question = *q
		}
		out = append(out, &l)
	}
	return out, nil
}

func (r *fakeExamQuestionRepo) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	var kept []*models.ExamQuestion
	for _, l := range r.f.examQuestions {
		if l.ExamID != examID {
			kept = append(kept, l)
		}
	}
	r.f.examQuestions = kept
	return nil
}

type fakeExamFacultyRepo struct{ f *fakeRepository }

func (r *fakeExamFacultyRepo) CreateBatch(ctx context.Context, tx *gorm.DB, links []*models.ExamFaculty) error {
	for _, link := range links {
		link.ID = r.f.id()
		r.f.examFaculties = append(r.f.examFaculties, link)
	}
	return nil
}

func (r *fakeExamFacultyRepo) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamFaculty, error) {
	var out []*models.ExamFaculty
	for _, link := range r.f.examFaculties {
		if link.ExamID == examID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (r *fakeExamFacultyRepo) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	var kept []*models.ExamFaculty
	for _, l := range r.f.examFaculties {
		if l.ExamID != examID {
			kept = append(kept, l)
		}
	}
	r.f.examFaculties = kept
	return nil
}

// ===== RESULT =====

type fakeResultRepo struct{ f *fakeRepository }

func (r *fakeResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	for _, existing := range r.f.results {
		if existing.StudentID == result.StudentID && existing.ExamID == result.ExamID {
			return gorm.ErrDuplicatedKey
		}
	}
	result.ID = r.f.id()
	r.f.results[result.ID] = result
	return nil
}

func (r *fakeResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	if res, ok := r.f.results[id]; ok {
		return res, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeResultRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeResultRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	result, ok := r.f.results[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *result
	copy.Answers = nil
	for _, a := range r.f.answers {
		if a.ResultID == id {
			copy.Answers = append(copy.Answers, *a)
		}
	}
	if s, ok := r.f.users[result.StudentID]; ok {
		copy.Student = *s
	}
	if e, ok := r.f.exams[result.ExamID]; ok {
		copy.Exam = *e
	}
	return &copy, nil
}

func (r *fakeResultRepo) GetByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) (*models.Result, error) {
	for _, res := range r.f.results {
		if res.StudentID == studentID && res.ExamID == examID {
			return res, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeResultRepo) Update(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	r.f.results[result.ID] = result
	return nil
}

func (r *fakeResultRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	var out []*models.Result
	for _, res := range r.f.results {
		if filters.StudentID != nil && res.StudentID != *filters.StudentID {
			continue
		}
		if filters.ExamID != nil && res.ExamID != *filters.ExamID {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ===== ANSWER =====

type fakeAnswerRepo struct{ f *fakeRepository }

func (r *fakeAnswerRepo) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	for _, a := range answers {
		a.ID = r.f.id()
		r.f.answers = append(r.f.answers, a)
	}
	return nil
}

func (r *fakeAnswerRepo) GetByResult(ctx context.Context, tx *gorm.DB, resultID uint) ([]*models.Answer, error) {
	var out []*models.Answer
	for _, a := range r.f.answers {
		if a.ResultID == resultID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnswerRepo) DeleteByResult(ctx context.Context, tx *gorm.DB, resultID uint) error {
	var kept []*models.Answer
	for _, a := range r.f.answers {
		if a.ResultID != resultID {
			kept = append(kept, a)
		}
	}
	r.f.answers = kept
	return nil
}

func (r *fakeAnswerRepo) UpdateMarks(ctx context.Context, tx *gorm.DB, resultID, questionID uint, marks int, isCorrect bool) error {
	for _, a := range r.f.answers {
		if a.ResultID == resultID && a.QuestionID == questionID {
			a.Marks = marks
			a.IsCorrect = &isCorrect
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) SumMarks(ctx context.Context, tx *gorm.DB, resultID uint) (int, error) {
	total := 0
	for _, a := range r.f.answers {
		if a.ResultID == resultID {
			total += a.Marks
		}
	}
	return total, nil
}

// ===== ACTIVITY =====

type fakeActivityRepo struct{ f *fakeRepository }

func (r *fakeActivityRepo) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	entry.ID = r.f.id()
	r.f.activities = append(r.f.activities, entry)
	return nil
}

func (r *fakeActivityRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]*models.ActivityLog, error) {
	var out []*models.ActivityLog
	for _, e := range r.f.activities {
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
