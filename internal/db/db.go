package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edupulse/a11y-backend/internal/pkg/envutil"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/types"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to the preference store. Postgres is the default; setting
// DB_DRIVER=sqlite points the store at a local file, which is what the
// test and single-box deployments use.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := strings.ToLower(envutil.GetEnv("DB_DRIVER", "postgres", log))

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := envutil.GetEnv("SQLITE_PATH", "a11y.db", log)
		serviceLog.Info("Connecting to sqlite...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("connect sqlite: %w", err)
		}
	default:
		host := envutil.GetEnv("POSTGRES_HOST", "localhost", log)
		port := envutil.GetEnv("POSTGRES_PORT", "5432", log)
		user := envutil.GetEnv("POSTGRES_USER", "postgres", log)
		password := envutil.GetEnv("POSTGRES_PASSWORD", "", log)
		name := envutil.GetEnv("POSTGRES_NAME", "edupulse_a11y", log)

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		serviceLog.Info("Connecting to Postgres...")
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
		}
	}

	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating preference tables...")
	if err := s.db.AutoMigrate(&types.PreferenceRecord{}); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
