package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketPriority string

const (
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

type TicketStatus string

const (
	TicketOpen     TicketStatus = "OPEN"
	TicketResolved TicketStatus = "RESOLVED"
)

// SupportTicket is an escalation work item, e.g. the one created when an
// intervention enters CRITICAL_REVIEW.
type SupportTicket struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	InterventionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"intervention_id"`
	StudentID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Priority       TicketPriority `gorm:"type:text;not null" json:"priority"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         TicketStatus   `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SupportTicket) TableName() string { return "support_ticket" }
