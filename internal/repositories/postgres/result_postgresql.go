package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	return r.getDB(tx).WithContext(ctx).Create(result).Error
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(tx).WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(tx).WithContext(ctx).
		Preload("Student").
		Preload("Exam").
		Preload("Answers").
		First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) Update(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	return r.getDB(tx).WithContext(ctx).Save(result).Error
}

func (r *ResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	var results []*models.Result
	var total int64

	query := r.getDB(tx).WithContext(ctx).Model(&models.Result{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySort(query, filters.SortBy, filters.SortOrder, map[string]bool{
		"created_at": true, "submitted_at": true, "total_marks": true, "percentage": true,
	})
	query = applyPagination(query, filters.Limit, filters.Offset)

	if err := query.Preload("Student").Preload("Exam").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ===== ANSWER REPOSITORY =====

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (r *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *AnswerPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.getDB(tx).WithContext(ctx).Create(&answers).Error
}

func (r *AnswerPostgreSQL) GetByResult(ctx context.Context, tx *gorm.DB, resultID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := r.getDB(tx).WithContext(ctx).
		Where("result_id = ?", resultID).
		Order("question_id").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *AnswerPostgreSQL) DeleteByResult(ctx context.Context, tx *gorm.DB, resultID uint) error {
	return r.getDB(tx).WithContext(ctx).Where("result_id = ?", resultID).Delete(&models.Answer{}).Error
}

func (r *AnswerPostgreSQL) UpdateMarks(ctx context.Context, tx *gorm.DB, resultID, questionID uint, marks int, isCorrect bool) error {
	res := r.getDB(tx).WithContext(ctx).
		Model(&models.Answer{}).
		Where("result_id = ? AND question_id = ?", resultID, questionID).
		Updates(map[string]interface{}{"marks": marks, "is_correct": isCorrect})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AnswerPostgreSQL) SumMarks(ctx context.Context, tx *gorm.DB, resultID uint) (int, error) {
	var total *int
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Answer{}).
		Select("SUM(marks)").
		Where("result_id = ?", resultID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
