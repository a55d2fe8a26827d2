package app

import (
	"github.com/yungbote/studentbridge-backend/internal/clients/openai"
	redisclient "github.com/yungbote/studentbridge-backend/internal/clients/redis"
	"github.com/yungbote/studentbridge-backend/internal/config"
	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/services"
)

type Services struct {
	Signal        services.SignalService
	Assessment    services.AssessmentService
	Planner       services.PlannerService
	Tracker       services.TrackerService
	Effectiveness services.EffectivenessService
	Scaler        services.ScalerService
	Escalation    services.EscalationService
	Locker        redisclient.Locker
}

func wireServices(log *logger.Logger, cfg config.EngineConfig, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	aiClient, err := openai.NewClient(log)
	if err != nil {
		return Services{}, err
	}
	insight := services.NewOpenAIInsightClient(aiClient, log)

	var locker redisclient.Locker
	locker, err = redisclient.NewLocker(log)
	if err != nil {
		// Redis is optional: the repo's conditional create still guards the
		// duplicate-intervention invariant.
		log.Warn("Redis locker unavailable, falling back to conditional creates only", "error", err)
		locker = redisclient.NoopLocker{}
	}

	signal := services.NewSignalService(reposet.StudentSignal, log)
	scorer := services.NewRiskScorer(insight, log)
	assessment := services.NewAssessmentService(signal, scorer, reposet.RiskAssessment, cfg.TriggerThresholds, log)
	planner := services.NewPlannerService(insight, reposet.Intervention, reposet.InterventionLevel, locker, cfg.LockTTL, log)
	escalation := services.NewEscalationService(reposet.SupportTicket, log)
	tracker := services.NewTrackerService(insight, reposet.Intervention, escalation, log)
	effectiveness := services.NewEffectivenessService(reposet.MetricSample, log)
	scaler := services.NewScalerService(reposet.InterventionLevel, reposet.Intervention, reposet.MetricSample, reposet.RiskAssessment, log)

	return Services{
		Signal:        signal,
		Assessment:    assessment,
		Planner:       planner,
		Tracker:       tracker,
		Effectiveness: effectiveness,
		Scaler:        scaler,
		Escalation:    escalation,
		Locker:        locker,
	}, nil
}
