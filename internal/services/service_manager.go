package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Himu336/Web3-Exam-Platform/internal/events"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

// ServiceManagerConfig carries the settings individual services need.
type ServiceManagerConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// serviceManager implements ServiceManager by wiring every service against
// the shared repository, validator, policy and event publisher.
type serviceManager struct {
	repoManager    repositories.RepositoryManager
	logger         *slog.Logger
	eventPublisher events.EventPublisher

	auth         AuthService
	user         UserService
	question     QuestionService
	exam         ExamService
	result       ResultService
	importExport ImportExportService
	activity     ActivityService

	shutdown bool
	mu       sync.RWMutex
}

func NewServiceManager(repoManager repositories.RepositoryManager, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	repo := repoManager.GetRepository()
	policy := NewPolicy()

	sm := &serviceManager{
		repoManager:    repoManager,
		logger:         logger,
		eventPublisher: publisher,
	}

	sm.activity = NewActivityService(repo, logger)
	sm.auth = NewAuthService(repo, logger, v, publisher, sm.activity, config.JWTSecret, config.TokenTTL)
	sm.user = NewUserService(repo, logger, v, policy, sm.activity)
	sm.question = NewQuestionService(repo, logger, v, policy, publisher, sm.activity)
	sm.exam = NewExamService(repo, logger, v, policy, publisher, sm.activity)
	sm.result = NewResultService(repo, logger, v, policy, publisher, sm.activity)
	sm.importExport = NewImportExportService(repo, logger, v, policy)

	return sm
}

func (sm *serviceManager) Auth() AuthService                 { return sm.auth }
func (sm *serviceManager) User() UserService                 { return sm.user }
func (sm *serviceManager) Question() QuestionService         { return sm.question }
func (sm *serviceManager) Exam() ExamService                 { return sm.exam }
func (sm *serviceManager) Result() ResultService             { return sm.result }
func (sm *serviceManager) ImportExport() ImportExportService { return sm.importExport }
func (sm *serviceManager) Activity() ActivityService         { return sm.activity }

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	return sm.repoManager.HealthCheck(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.eventPublisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}
	if err := sm.repoManager.Shutdown(ctx); err != nil {
		sm.logger.Error("Failed to shutdown repository manager", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down")
	return nil
}
