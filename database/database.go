package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-projects-backend/config"
	"github.com/rpupo63/portfolio-projects-backend/errs"
)

type Database struct {
	projectRepo *ProjectRepo
	schema      *SchemaManager
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		projectRepo: NewProjectRepo(db),
		schema:      NewSchemaManager(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) Schema() *SchemaManager {
	return d.schema
}

// Open connects to Postgres using the DB_TYPE selected in cfg and registers
// any read replicas listed in DATABASE_REPLICA_URLS.
func Open(ctx context.Context, cfg map[string]string) (*gorm.DB, error) {
	dbLogger := log.With().Str("component", "database").Logger()

	dsn, err := dsnFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	slow := config.GetMillis(cfg, "DB_SLOW_QUERY_MS", 2000)
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      NewLogger(slow),
	})
	if err != nil {
		return nil, errs.NewDatabaseError("connect to", "database", err)
	}

	maxOpen := config.GetInt(cfg, "DB_MAX_OPEN_CONNS", 10)
	maxIdle := config.GetInt(cfg, "DB_MAX_IDLE_CONNS", 5)

	if replicas := config.GetList(cfg, "DATABASE_REPLICA_URLS", nil); len(replicas) > 0 {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, replica := range replicas {
			dialectors = append(dialectors, postgres.New(postgres.Config{
				DSN:                  replica,
				PreferSimpleProtocol: true,
			}))
		}

		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxOpenConns(maxOpen).
			SetMaxIdleConns(maxIdle)
		if err := db.Use(resolver); err != nil {
			return nil, errs.NewDatabaseError("register", "read replicas", err)
		}
		dbLogger.Info().Int("replicas", len(dialectors)).Msg("Read replicas registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.NewDatabaseError("connect to", "database", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Test database connection
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errs.NewDatabaseError("connect to", "database", err)
	}
	return db, nil
}

func dsnFromConfig(cfg map[string]string) (string, error) {
	dbType := config.GetString(cfg, "DB_TYPE", "url")
	log.Info().Str("dbType", dbType).Msg("Resolving database connection")

	switch dbType {
	case "supa":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			config.GetString(cfg, "SUPABASE_DB_HOST", ""),
			config.GetString(cfg, "SUPABASE_DB_USER", ""),
			config.GetString(cfg, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(cfg, "SUPABASE_DB_NAME", ""),
			config.GetString(cfg, "SUPABASE_DB_PORT", "5432"),
		), nil
	case "url":
		dsn := config.GetString(cfg, "DATABASE_URL", config.GetString(cfg, "NETLIFY_DATABASE_URL", ""))
		if dsn == "" {
			return "", errs.NewConfigError("DATABASE_URL", nil)
		}
		return dsn, nil
	default:
		return "", errs.NewConfigError("DB_TYPE", fmt.Errorf("unsupported DB_TYPE %q", dbType))
	}
}
