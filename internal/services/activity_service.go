package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
)

type activityService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewActivityService(repo repositories.Repository, logger *slog.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

// Record writes one audit row. The audit trail is best-effort: a failed
// insert is logged and swallowed so it never rolls back business work.
func (s *activityService) Record(ctx context.Context, userID *uint, actionType, entityType string, entityID *uint, details interface{}) {
	entry := &models.ActivityLog{
		UserID:     userID,
		ActionType: actionType,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			s.logger.Error("Failed to encode activity details",
				"error", err,
				"action", actionType)
		} else {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Activity().Create(ctx, nil, entry); err != nil {
		s.logger.Error("Failed to record activity",
			"error", err,
			"action", actionType,
			"entity_type", entityType)
	}
}

func (s *activityService) ListByUser(ctx context.Context, userID uint, limit int, requester *models.User) ([]*models.ActivityLog, error) {
	if requester.Role != models.RoleAdmin && requester.ID != userID {
		return nil, NewPermissionError(requester.ID, userID, ResourceUser, ActionRead, "activity log is self or admin only")
	}
	return s.repo.Activity().ListByUser(ctx, nil, userID, limit)
}
