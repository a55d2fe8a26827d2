package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type SupportTicketRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.SupportTicket) (*types.SupportTicket, error)
	ExistsOpenForIntervention(ctx context.Context, tx *gorm.DB, interventionID uuid.UUID) (bool, error)
	GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.SupportTicket, error)
}

type supportTicketRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupportTicketRepo(db *gorm.DB, baseLog *logger.Logger) SupportTicketRepo {
	repoLog := baseLog.With("repo", "SupportTicketRepo")
	return &supportTicketRepo{db: db, log: repoLog}
}

func (r *supportTicketRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupportTicket) (*types.SupportTicket, error) {
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

func (r *supportTicketRepo) ExistsOpenForIntervention(ctx context.Context, tx *gorm.DB, interventionID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.SupportTicket{}).
		Where("intervention_id = ? AND status = ?", interventionID, types.TicketOpen).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *supportTicketRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.SupportTicket, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SupportTicket
	if studentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
