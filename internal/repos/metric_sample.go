package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type MetricSampleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.MetricSample) (*types.MetricSample, error)
	GetByInterventionID(ctx context.Context, tx *gorm.DB, interventionID uuid.UUID) ([]*types.MetricSample, error)
}

type metricSampleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricSampleRepo(db *gorm.DB, baseLog *logger.Logger) MetricSampleRepo {
	repoLog := baseLog.With("repo", "MetricSampleRepo")
	return &metricSampleRepo{db: db, log: repoLog}
}

func (r *metricSampleRepo) Create(ctx context.Context, tx *gorm.DB, row *types.MetricSample) (*types.MetricSample, error) {
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

func (r *metricSampleRepo) GetByInterventionID(ctx context.Context, tx *gorm.DB, interventionID uuid.UUID) ([]*types.MetricSample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MetricSample
	if interventionID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("intervention_id = ?", interventionID).
		Order("recorded_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
