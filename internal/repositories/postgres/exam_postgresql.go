package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Himu336/Web3-Exam-Platform/internal/cache"
	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	return r.getDB(tx).WithContext(ctx).Create(exam).Error
}

func (r *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := r.getDB(tx)
	if tx != nil {
		var exam models.Exam
		if err := db.WithContext(ctx).First(&exam, id).Error; err != nil {
			return nil, err
		}
		return &exam, nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var exam models.Exam
	err := r.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			return nil, err
		}
		return &dbExam, nil
	})
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := r.getDB(tx).WithContext(ctx).
		Preload("Creator").
		Preload("Faculties.Faculty").
		Preload("Questions.Question").
		First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	if err := r.getDB(tx).WithContext(ctx).Save(exam).Error; err != nil {
		return err
	}
	return r.cacheManager.InvalidateExam(ctx, exam.ID)
}

func (r *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	// Association rows and dependent results go with the exam via FK
	// cascades; no application-level cleanup here.
	if err := r.getDB(tx).WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
		return err
	}
	return r.cacheManager.InvalidateExam(ctx, id)
}

func (r *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var exams []*models.Exam
	var total int64

	query := r.getDB(tx).WithContext(ctx).Model(&models.Exam{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.FacultyID != nil {
		query = query.Where("id IN (?)",
			r.getDB(tx).Model(&models.ExamFaculty{}).Select("exam_id").Where("faculty_id = ?", *filters.FacultyID))
	}
	if filters.DateFrom != nil {
		query = query.Where("start_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("end_time <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySort(query, filters.SortBy, filters.SortOrder, map[string]bool{
		"created_at": true, "title": true, "start_time": true, "end_time": true,
	})
	query = applyPagination(query, filters.Limit, filters.Offset)

	if err := query.Preload("Creator").Preload("Faculties.Faculty").Find(&exams).Error; err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// ===== ASSOCIATION REPOSITORIES =====

type ExamQuestionPostgreSQL struct {
	db *gorm.DB
}

func NewExamQuestionPostgreSQL(db *gorm.DB) repositories.ExamQuestionRepository {
	return &ExamQuestionPostgreSQL{db: db}
}

func (r *ExamQuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ExamQuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, links []*models.ExamQuestion) error {
	if len(links) == 0 {
		return nil
	}
	// Parameterized batch insert; ids never reach the SQL text.
	return r.getDB(tx).WithContext(ctx).Create(&links).Error
}

func (r *ExamQuestionPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	var links []*models.ExamQuestion
	if err := r.getDB(tx).WithContext(ctx).
		Where("exam_id = ?", examID).
		Preload("Question").
		Order("id").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *ExamQuestionPostgreSQL) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	return r.getDB(tx).WithContext(ctx).Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error
}

type ExamFacultyPostgreSQL struct {
	db *gorm.DB
}

func NewExamFacultyPostgreSQL(db *gorm.DB) repositories.ExamFacultyRepository {
	return &ExamFacultyPostgreSQL{db: db}
}

func (r *ExamFacultyPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ExamFacultyPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, links []*models.ExamFaculty) error {
	if len(links) == 0 {
		return nil
	}
	return r.getDB(tx).WithContext(ctx).Create(&links).Error
}

func (r *ExamFacultyPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamFaculty, error) {
	var links []*models.ExamFaculty
	if err := r.getDB(tx).WithContext(ctx).
		Where("exam_id = ?", examID).
		Preload("Faculty").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *ExamFacultyPostgreSQL) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	return r.getDB(tx).WithContext(ctx).Where("exam_id = ?", examID).Delete(&models.ExamFaculty{}).Error
}
