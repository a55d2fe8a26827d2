package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
)

type Repos struct {
	StudentSignal     repos.StudentSignalRepo
	RiskAssessment    repos.RiskAssessmentRepo
	Intervention      repos.InterventionRepo
	MetricSample      repos.MetricSampleRepo
	InterventionLevel repos.InterventionLevelRepo
	SupportTicket     repos.SupportTicketRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		StudentSignal:     repos.NewStudentSignalRepo(db, log),
		RiskAssessment:    repos.NewRiskAssessmentRepo(db, log),
		Intervention:      repos.NewInterventionRepo(db, log),
		MetricSample:      repos.NewMetricSampleRepo(db, log),
		InterventionLevel: repos.NewInterventionLevelRepo(db, log),
		SupportTicket:     repos.NewSupportTicketRepo(db, log),
	}
}
