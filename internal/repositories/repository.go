package repositories

import "context"

// Repository aggregates all entity repositories behind one handle so services
// can run multi-entity work against either the root connection or a
// transaction-scoped copy.
type Repository interface {
	User() UserRepository
	Question() QuestionRepository
	Exam() ExamRepository
	ExamQuestion() ExamQuestionRepository
	ExamFaculty() ExamFacultyRepository
	Result() ResultRepository
	Answer() AnswerRepository
	Activity() ActivityRepository

	// WithTransaction runs fn against a repository bound to a single
	// database transaction; any error rolls the whole unit back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
