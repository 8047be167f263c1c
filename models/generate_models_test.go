package models

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGetModelFields(t *testing.T) {
	assert.Equal(t, []string{
		ColumnTitle, ColumnCategory, ColumnImage, ColumnAlt, ColumnDashboardURL, ColumnCodeURL,
		ColumnDescription, ColumnTech, ColumnFeatured, ColumnClicksDashboardURL, ColumnClicksCodeURL,
	}, getModelFields(ProjectRow{}))
}

func TestFindColumnMismatchesIgnoresCase(t *testing.T) {
	got := findColumnMismatches([]string{"title", "dashboardUrl", "legacy"}, []string{"TITLE", "dashboardurl"})
	assert.Equal(t, []string{"legacy"}, got)
}

func TestColumnMismatchReport(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())),
		&gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var out bytes.Buffer
	n, err := GenerateColumnMismatchReport(db, &out)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, out.String(), "Table does not exist yet")

	require.NoError(t, db.Exec(`CREATE TABLE projects (
		title TEXT PRIMARY KEY, category TEXT, image TEXT, alt TEXT,
		dashboardUrl TEXT, codeurl TEXT, description TEXT, tech TEXT,
		featured BOOLEAN, clicks_dashboardurl INTEGER, legacy_notes TEXT
	)`).Error)

	out.Reset()
	n, err = GenerateColumnMismatchReport(db, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, out.String(), "  - legacy_notes")
	assert.Contains(t, out.String(), "  - clicks_codeurl")
	assert.NotContains(t, out.String(), "  - dashboardUrl")
}
