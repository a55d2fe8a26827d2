package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/studentbridge-backend/internal/config"
	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/services"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// SweepWorker periodically re-assesses every active student: assessment, then
// planning, then one tracking cycle per open intervention, then adaptive
// rescaling. Students are processed with bounded concurrency and full failure
// isolation; one student's collaborator failure never cancels the others.
type SweepWorker struct {
	cfg           config.EngineConfig
	signals       services.SignalService
	assessments   services.AssessmentService
	planner       services.PlannerService
	tracker       services.TrackerService
	scaler        services.ScalerService
	signalRepo    repos.StudentSignalRepo
	interventions repos.InterventionRepo
	log           *logger.Logger
}

func NewSweepWorker(
	cfg config.EngineConfig,
	signals services.SignalService,
	assessments services.AssessmentService,
	planner services.PlannerService,
	tracker services.TrackerService,
	scaler services.ScalerService,
	signalRepo repos.StudentSignalRepo,
	interventions repos.InterventionRepo,
	baseLog *logger.Logger,
) *SweepWorker {
	return &SweepWorker{
		cfg:           cfg,
		signals:       signals,
		assessments:   assessments,
		planner:       planner,
		tracker:       tracker,
		scaler:        scaler,
		signalRepo:    signalRepo,
		interventions: interventions,
		log:           baseLog.With("component", "SweepWorker"),
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.RunOnce(ctx); err != nil {
					w.log.Warn("Sweep run failed", "error", err)
				}
			}
		}
	}()
}

// RunOnce sweeps the current student population. The returned error covers
// only listing the population; per-student failures are logged and absorbed.
func (w *SweepWorker) RunOnce(ctx context.Context) error {
	start := time.Now()
	studentIDs, err := w.signalRepo.ActiveStudentIDs(ctx, nil)
	if err != nil {
		return fmt.Errorf("list active students: %w", err)
	}
	if len(studentIDs) == 0 {
		return nil
	}

	var swept, failed int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.SweepConcurrency)

	for _, studentID := range studentIDs {
		studentID := studentID
		g.Go(func() error {
			// Cancellation between iterations, not mid-student.
			if gctx.Err() != nil {
				return nil
			}
			if err := w.sweepStudent(gctx, studentID); err != nil {
				atomic.AddInt32(&failed, 1)
				w.log.Warn("Sweep iteration failed for student",
					"student_id", studentID,
					"error", err,
				)
				return nil
			}
			atomic.AddInt32(&swept, 1)
			return nil
		})
	}
	_ = g.Wait()

	w.log.Info("Sweep completed",
		"students", len(studentIDs),
		"swept", atomic.LoadInt32(&swept),
		"failed", atomic.LoadInt32(&failed),
		"duration", time.Since(start).String(),
	)
	return nil
}

// sweepStudent runs one student's full cycle. Assessment must complete before
// planning; each collaborator-bound step gets its own timeout so no call
// blocks past the configured limit.
func (w *SweepWorker) sweepStudent(ctx context.Context, studentID uuid.UUID) error {
	assessCtx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
	assessment, err := w.assessments.AssessStudent(assessCtx, studentID)
	cancel()
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}

	planCtx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout*time.Duration(1+len(assessment.Triggered())))
	_, err = w.planner.PlanInterventions(planCtx, assessment)
	cancel()
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	open, err := w.interventions.ListOpenByStudent(ctx, nil, studentID)
	if err != nil {
		return fmt.Errorf("list open interventions: %w", err)
	}
	for _, iv := range open {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		trackCtx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
		_, err := w.tracker.Track(trackCtx, iv.ID)
		cancel()
		if err != nil {
			// One intervention's failure does not stop the student's sweep.
			w.log.Warn("Tracking failed during sweep",
				"student_id", studentID,
				"intervention_id", iv.ID,
				"error", err,
			)
		}
	}

	trend, err := w.scaler.DeriveTrend(ctx, studentID)
	if err != nil {
		w.log.Warn("Trend derivation failed, assuming STABLE", "student_id", studentID, "error", err)
		trend = types.TrendStable
	}
	profile, err := w.signals.BuildProfile(ctx, studentID)
	if err != nil {
		return fmt.Errorf("rebuild profile: %w", err)
	}
	rescaleCtx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
	defer cancel()
	if _, err := w.scaler.Rescale(rescaleCtx, studentID, trend, services.PotentialIndex(profile)); err != nil {
		return fmt.Errorf("rescale: %w", err)
	}
	return nil
}
