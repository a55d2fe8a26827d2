package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// EscalationService is the escalation-ticket sink. CreateTicket is idempotent
// per intervention: an already-open ticket short-circuits.
type EscalationService interface {
	CreateTicket(ctx context.Context, interventionID, studentID uuid.UUID, priority types.TicketPriority, description string) (*types.SupportTicket, error)
}

type escalationService struct {
	tickets repos.SupportTicketRepo
	log     *logger.Logger
}

func NewEscalationService(tickets repos.SupportTicketRepo, baseLog *logger.Logger) EscalationService {
	return &escalationService{
		tickets: tickets,
		log:     baseLog.With("service", "EscalationService"),
	}
}

func (s *escalationService) CreateTicket(ctx context.Context, interventionID, studentID uuid.UUID, priority types.TicketPriority, description string) (*types.SupportTicket, error) {
	if interventionID == uuid.Nil {
		return nil, fmt.Errorf("intervention_id required")
	}

	exists, err := s.tickets.ExistsOpenForIntervention(ctx, nil, interventionID)
	if err != nil {
		return nil, fmt.Errorf("check existing ticket: %w", err)
	}
	if exists {
		s.log.Debug("Open ticket already exists for intervention", "intervention_id", interventionID)
		return nil, nil
	}

	ticket := &types.SupportTicket{
		InterventionID: interventionID,
		StudentID:      studentID,
		Priority:       priority,
		Description:    description,
		Status:         types.TicketOpen,
	}
	created, err := s.tickets.Create(ctx, nil, ticket)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.log.Info("Escalation ticket created",
		"ticket_id", created.ID,
		"intervention_id", interventionID,
		"priority", priority,
	)
	return created, nil
}
