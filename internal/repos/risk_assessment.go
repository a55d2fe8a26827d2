package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// RiskAssessmentRepo is append-only: there is no update or delete surface.
type RiskAssessmentRepo interface {
	Append(ctx context.Context, tx *gorm.DB, row *types.RiskAssessment) (*types.RiskAssessment, error)
	GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.RiskAssessment, error)
	GetLatest(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.RiskAssessment, error)
}

type riskAssessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRiskAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) RiskAssessmentRepo {
	repoLog := baseLog.With("repo", "RiskAssessmentRepo")
	return &riskAssessmentRepo{db: db, log: repoLog}
}

func (r *riskAssessmentRepo) Append(ctx context.Context, tx *gorm.DB, row *types.RiskAssessment) (*types.RiskAssessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *riskAssessmentRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.RiskAssessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.RiskAssessment
	if studentID == uuid.Nil {
		return results, nil
	}

	query := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *riskAssessmentRepo) GetLatest(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.RiskAssessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.RiskAssessment
	err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}
