package database

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/models"
)

// Unquoted identifiers keep Postgres folding names to lower case, matching
// tables created by earlier deployments.
const createProjectsTable = `CREATE TABLE IF NOT EXISTS projects (
	title TEXT PRIMARY KEY,
	category TEXT,
	image TEXT,
	alt TEXT,
	dashboardurl TEXT,
	codeurl TEXT,
	description TEXT,
	tech JSONB
)`

type evolvingColumn struct {
	name       string
	definition string
}

// Columns added after the table was first deployed, in the order they appeared.
var evolvingColumns = []evolvingColumn{
	{name: models.ColumnFeatured, definition: "BOOLEAN NOT NULL DEFAULT FALSE"},
	{name: models.ColumnClicksDashboardURL, definition: "INTEGER NOT NULL DEFAULT 0"},
	{name: models.ColumnClicksCodeURL, definition: "INTEGER NOT NULL DEFAULT 0"},
}

// SchemaManager guarantees the projects table and its later columns exist.
// Once the schema has been confirmed it is not checked again for the lifetime
// of the process; concurrent first callers share a single check.
type SchemaManager struct {
	db     *gorm.DB
	log    zerolog.Logger
	ready  atomic.Bool
	flight singleflight.Group
}

func NewSchemaManager(db *gorm.DB) *SchemaManager {
	return &SchemaManager{
		db:  db,
		log: log.With().Str("component", "schema").Logger(),
	}
}

// EnsureSchema is idempotent and safe to call before every request. It never
// drops or rewrites existing data.
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	if m.ready.Load() {
		return nil
	}

	_, err, _ := m.flight.Do(models.ProjectsTable, func() (any, error) {
		if m.ready.Load() {
			return nil, nil
		}
		// Shared by every waiting caller, so one caller going away must not
		// abort the check for the others.
		if err := m.ensure(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		m.ready.Store(true)
		return nil, nil
	})
	if err != nil {
		m.log.Error().Err(err).Msg("Schema setup failed")
		return errs.NewSchemaError(err)
	}
	return nil
}

func (m *SchemaManager) ensure(ctx context.Context) error {
	db := m.db.WithContext(ctx)

	if err := db.Exec(createProjectsTable).Error; err != nil {
		return fmt.Errorf("create %s: %w", models.ProjectsTable, err)
	}

	existing, err := m.columns(db)
	if err != nil {
		return err
	}

	for _, col := range evolvingColumns {
		if existing[col.name] {
			continue
		}

		if err := db.Exec(m.addColumnSQL(db, col)).Error; err != nil {
			// Another process may have added it between our check and the ALTER.
			if now, cerr := m.columns(db); cerr == nil && now[col.name] {
				continue
			}
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
		m.log.Info().Str("column", col.name).Msg("Added column")
	}
	return nil
}

func (m *SchemaManager) addColumnSQL(db *gorm.DB, col evolvingColumn) string {
	ifNotExists := ""
	if db.Dialector.Name() == "postgres" {
		ifNotExists = "IF NOT EXISTS "
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s%s %s", models.ProjectsTable, ifNotExists, col.name, col.definition)
}

// columns returns the lower-cased column names of the projects table.
func (m *SchemaManager) columns(db *gorm.DB) (map[string]bool, error) {
	types, err := db.Migrator().ColumnTypes(models.ProjectsTable)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", models.ProjectsTable, err)
	}

	names := make(map[string]bool, len(types))
	for _, t := range types {
		names[strings.ToLower(t.Name())] = true
	}
	return names, nil
}
