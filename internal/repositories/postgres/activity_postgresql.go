package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
)

type ActivityPostgreSQL struct {
	db *gorm.DB
}

func NewActivityPostgreSQL(db *gorm.DB) repositories.ActivityRepository {
	return &ActivityPostgreSQL{db: db}
}

func (r *ActivityPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ActivityPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	return r.getDB(tx).WithContext(ctx).Create(entry).Error
}

func (r *ActivityPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []*models.ActivityLog
	if err := r.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
