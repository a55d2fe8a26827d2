package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/config"
	"github.com/yungbote/studentbridge-backend/internal/db"
	"github.com/yungbote/studentbridge-backend/internal/handlers"
	"github.com/yungbote/studentbridge-backend/internal/jobs"
	"github.com/yungbote/studentbridge-backend/internal/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      config.EngineConfig
	Repos    Repos
	Services Services
	Sweep    *jobs.SweepWorker
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading engine configuration...")
	cfg := config.LoadEngineConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	sweep := jobs.NewSweepWorker(
		cfg,
		serviceset.Signal,
		serviceset.Assessment,
		serviceset.Planner,
		serviceset.Tracker,
		serviceset.Scaler,
		reposet.StudentSignal,
		reposet.Intervention,
		log,
	)

	studentHandler := handlers.NewStudentHandler(serviceset.Signal, serviceset.Assessment, serviceset.Planner, serviceset.Scaler)
	interventionHandler := handlers.NewInterventionHandler(theDB, reposet.Intervention, serviceset.Tracker, serviceset.Effectiveness)
	router := wireRouter(studentHandler, interventionHandler)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Sweep:    sweep,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Sweep != nil {
		a.Sweep.Start(ctx)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Locker != nil {
		_ = a.Services.Locker.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
