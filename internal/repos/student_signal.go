package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type StudentSignalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.StudentSignal) (*types.StudentSignal, error)
	LatestPerSource(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudentSignal, error)
	ActiveStudentIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
}

type studentSignalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentSignalRepo(db *gorm.DB, baseLog *logger.Logger) StudentSignalRepo {
	repoLog := baseLog.With("repo", "StudentSignalRepo")
	return &studentSignalRepo{db: db, log: repoLog}
}

func (r *studentSignalRepo) Create(ctx context.Context, tx *gorm.DB, row *types.StudentSignal) (*types.StudentSignal, error) {
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

// LatestPerSource returns at most one signal per source, the most recently
// observed one, for the given student.
func (r *studentSignalRepo) LatestPerSource(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudentSignal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StudentSignal
	if studentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Raw(`
			SELECT DISTINCT ON (source) *
			FROM "student_signal"
			WHERE "student_id" = ? AND "deleted_at" IS NULL
			ORDER BY "source", "observed_at" DESC
		`, studentID).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ActiveStudentIDs lists every student with at least one recorded signal;
// this is the sweep population.
func (r *studentSignalRepo) ActiveStudentIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.StudentSignal{}).
		Distinct("student_id").
		Order("student_id").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
