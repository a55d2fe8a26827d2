package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type InterventionRepo interface {
	// CreateIfNoOpen creates row unless an open intervention already exists
	// for the same (student, category). Returns ErrDuplicateActive on a guard
	// hit; the row is created atomically with the check.
	CreateIfNoOpen(ctx context.Context, tx *gorm.DB, row *types.Intervention) (*types.Intervention, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Intervention, error)
	GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Intervention, error)
	ListOpenByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Intervention, error)
	RecentByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.Intervention, error)
	// UpdateStatusWithSnapshot sets the status and appends the snapshot in one
	// transaction, taking a row lock so concurrent trackers cannot lose
	// updates. Returns ErrTerminalStatus if the row already terminated.
	UpdateStatusWithSnapshot(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.InterventionStatus, snapshot *types.ProgressSnapshot) (*types.Intervention, error)
}

type interventionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterventionRepo(db *gorm.DB, baseLog *logger.Logger) InterventionRepo {
	repoLog := baseLog.With("repo", "InterventionRepo")
	return &interventionRepo{db: db, log: repoLog}
}

func openStatusStrings() []string {
	out := make([]string, 0, len(types.OpenStatuses))
	for _, s := range types.OpenStatuses {
		out = append(out, string(s))
	}
	return out
}

func (r *interventionRepo) CreateIfNoOpen(ctx context.Context, tx *gorm.DB, row *types.Intervention) (*types.Intervention, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil, nil
	}

	err := transaction.WithContext(ctx).Transaction(func(t *gorm.DB) error {
		var existing []types.Intervention
		if err := t.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND category = ? AND status IN ?", row.StudentID, row.Category, openStatusStrings()).
			Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrDuplicateActive
		}
		return t.Create(row).Error
	})
	if err != nil {
		// The partial unique index can still fire under serialization edge
		// cases; normalize it to the same sentinel.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateActive
		}
		return nil, err
	}
	return row, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "uq_intervention_open_student_category")
}

func (r *interventionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Intervention, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Intervention
	err := transaction.WithContext(ctx).
		Preload("Snapshots", func(q *gorm.DB) *gorm.DB { return q.Order("recorded_at ASC") }).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *interventionRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Intervention, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Intervention
	if studentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Snapshots", func(q *gorm.DB) *gorm.DB { return q.Order("recorded_at ASC") }).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interventionRepo) ListOpenByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Intervention, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Intervention
	if studentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND status IN ?", studentID, openStatusStrings()).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interventionRepo) RecentByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.Intervention, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Intervention
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

func (r *interventionRepo) UpdateStatusWithSnapshot(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.InterventionStatus, snapshot *types.ProgressSnapshot) (*types.Intervention, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var updated *types.Intervention
	err := transaction.WithContext(ctx).Transaction(func(t *gorm.DB) error {
		var row types.Intervention
		if err := t.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if row.Status.Terminal() {
			return ErrTerminalStatus
		}
		if err := t.Model(&row).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error; err != nil {
			return err
		}
		if snapshot != nil {
			snapshot.InterventionID = row.ID
			if err := t.Create(snapshot).Error; err != nil {
				return err
			}
		}
		row.Status = status
		updated = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
