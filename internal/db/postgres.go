package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
	"github.com/yungbote/studentbridge-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "studentbridge", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := database.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: database, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.StudentSignal{},
		&types.RiskAssessment{},
		&types.Intervention{},
		&types.ProgressSnapshot{},
		&types.MetricSample{},
		&types.InterventionLevel{},
		&types.SupportTicket{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	// Partial unique index backs the no-duplicate-open-intervention invariant
	// at the storage layer; the repo's conditional create is the primary guard.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_intervention_open_student_category
		ON "intervention" ("student_id", "category")
		WHERE "status" IN ('ACTIVE', 'IN_PROGRESS', 'NEEDS_ADJUSTMENT') AND "deleted_at" IS NULL
	`).Error; err != nil {
		s.log.Error("Failed to create open-intervention unique index", "error", err)
		return err
	}
	return nil
}
