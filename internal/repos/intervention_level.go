package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type InterventionLevelRepo interface {
	GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.InterventionLevel, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.InterventionLevel) error
}

type interventionLevelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterventionLevelRepo(db *gorm.DB, baseLog *logger.Logger) InterventionLevelRepo {
	repoLog := baseLog.With("repo", "InterventionLevelRepo")
	return &interventionLevelRepo{db: db, log: repoLog}
}

func (r *interventionLevelRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.InterventionLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.InterventionLevel
	err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Upsert by unique student_id; the level is clamped before the write so the
// stored value never leaves [1,5].
func (r *interventionLevelRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.InterventionLevel) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	row.Level = types.ClampLevel(row.Level)
	row.SupportIntensity = float64(row.Level) / float64(types.MaxInterventionLevel)

	if err := transaction.WithContext(ctx).
		Where("student_id = ?", row.StudentID).
		Assign(map[string]interface{}{
			"level":             row.Level,
			"support_intensity": row.SupportIntensity,
		}).
		FirstOrCreate(row).Error; err != nil {
		return err
	}
	return nil
}
