package models

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Column Mismatch Report Usage:

Compares the live projects table with the ProjectRow storage model.

To generate the report:

1. Set the environment variable: GENERATE_COLUMN_REPORT=true
2. Run the application: go run main.go

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: projects ---
Found 1 columns not accounted for in model:
  - legacy_notes
Found 1 model columns missing from the table:
  - clicks_codeurl

=== SUMMARY ===
Total mismatched columns: 2
*/

// GenerateModels writes typed query helpers for the storage models to
// ./generated. The schema itself is owned by the schema manager and must
// already exist.
func GenerateModels(db *gorm.DB, out io.Writer) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	db = db.Session(&gorm.Session{
		Logger:                 db.Logger.LogMode(logger.Info),
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(ProjectRow{})

	if _, err := GenerateColumnMismatchReport(db, out); err != nil {
		return err
	}

	g.Execute()
	fmt.Fprintln(out, "Model generation complete!")
	return nil
}

// GenerateColumnMismatchReport prints the columns that differ between the
// database and the storage models and returns how many were found. Names are
// compared case-insensitively.
func GenerateColumnMismatchReport(db *gorm.DB, out io.Writer) (int, error) {
	fmt.Fprintln(out, "=== COLUMN MISMATCH REPORT ===")

	modelMappings := map[string]any{
		ProjectsTable: ProjectRow{},
	}
	tables := make([]string, 0, len(modelMappings))
	for table := range modelMappings {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	totalMismatches := 0
	for _, tableName := range tables {
		fmt.Fprintf(out, "--- Table: %s ---\n", tableName)

		if !db.Migrator().HasTable(tableName) {
			fmt.Fprintln(out, "Table does not exist yet (it is created on first request)")
			continue
		}

		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			return totalMismatches, err
		}
		modelFields := getModelFields(modelMappings[tableName])

		extra := findColumnMismatches(dbColumns, modelFields)
		missing := findColumnMismatches(modelFields, dbColumns)

		if len(extra) == 0 && len(missing) == 0 {
			fmt.Fprintln(out, "All columns are accounted for in the model.")
			continue
		}
		if len(extra) > 0 {
			fmt.Fprintf(out, "Found %d columns not accounted for in model:\n", len(extra))
			for _, col := range extra {
				fmt.Fprintf(out, "  - %s\n", col)
			}
		}
		if len(missing) > 0 {
			fmt.Fprintf(out, "Found %d model columns missing from the table:\n", len(missing))
			for _, col := range missing {
				fmt.Fprintf(out, "  - %s\n", col)
			}
		}
		totalMismatches += len(extra) + len(missing)
	}

	fmt.Fprintf(out, "\n=== SUMMARY ===\n")
	fmt.Fprintf(out, "Total mismatched columns: %d\n", totalMismatches)
	return totalMismatches, nil
}

func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	columnTypes, err := db.Migrator().ColumnTypes(tableName)
	if err != nil {
		return nil, fmt.Errorf("error reading columns for table %s: %w", tableName, err)
	}

	columns := make([]string, 0, len(columnTypes))
	for _, ct := range columnTypes {
		columns = append(columns, ct.Name())
	}
	return columns, nil
}

// getModelFields extracts column names from the gorm tags of a struct
func getModelFields(model any) []string {
	var fields []string
	t := reflect.TypeOf(model)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			continue
		}
		if columnName := extractColumnNameFromGormTag(field.Tag.Get("gorm")); columnName != "" {
			fields = append(fields, columnName)
		}
	}
	return fields
}

func extractColumnNameFromGormTag(gormTag string) string {
	for _, part := range strings.Split(gormTag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

// findColumnMismatches returns the entries of columns absent from reference.
func findColumnMismatches(columns, reference []string) []string {
	known := make(map[string]bool, len(reference))
	for _, name := range reference {
		known[strings.ToLower(name)] = true
	}

	var mismatches []string
	for _, col := range columns {
		if !known[strings.ToLower(col)] {
			mismatches = append(mismatches, col)
		}
	}
	return mismatches
}
