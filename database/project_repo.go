package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/models"
)

const entityProject = "Project"

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// ListAll returns every project. Rows are read generically so that whatever
// casing the storage layer reports for a column is mapped back to the public
// field name. The primary is read so a list always reflects earlier writes,
// even when read replicas are registered.
func (r *ProjectRepo) ListAll(ctx context.Context) ([]models.Project, error) {
	var rows []map[string]any
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Table(models.ProjectsTable).
		Find(&rows).Error
	if err != nil {
		return nil, errs.NewDatabaseError("fetch", "projects", err)
	}

	projects := make([]models.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, models.ProjectFromRow(models.CanonicalizeRow(row)))
	}
	return projects, nil
}

// Add inserts candidate unless a project with the same title already exists,
// in which case nothing is written. inserted reports which of the two happened.
// The featured flag and click counters always start at their defaults.
func (r *ProjectRepo) Add(ctx context.Context, candidate models.Project) (project models.Project, inserted bool, err error) {
	if err := candidate.Validate(); err != nil {
		return models.Project{}, false, err
	}

	candidate.Featured = false
	candidate.ClicksDashboardURL = 0
	candidate.ClicksCodeURL = 0
	if candidate.Tech == nil {
		candidate.Tech = models.TechList{}
	}

	row := models.ProjectRow{
		Title:        candidate.Title,
		Category:     candidate.Category,
		Image:        candidate.Image,
		Alt:          candidate.Alt,
		DashboardURL: candidate.DashboardURL,
		CodeURL:      candidate.CodeURL,
		Description:  candidate.Description,
		Tech:         candidate.Tech.JSON(),
	}

	// Single statement so concurrent adds of the same title cannot race.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: models.ColumnTitle}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return models.Project{}, false, errs.NewDatabaseError("add", "project", result.Error)
	}
	return candidate, result.RowsAffected > 0, nil
}

// Update replaces the content fields of the project matching title and
// returns the stored result. Title, featured and counters are left alone.
func (r *ProjectRepo) Update(ctx context.Context, title string, changes models.Project) (models.Project, error) {
	if strings.TrimSpace(title) == "" {
		return models.Project{}, errs.NewMissingRequiredFieldError(models.FieldTitle)
	}
	changes.Title = title
	if err := changes.ValidateContent(); err != nil {
		return models.Project{}, err
	}

	var updated models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Table(models.ProjectsTable).
			Where(models.ColumnTitle+" = ?", title).
			Updates(changes.ContentColumns())
		if result.Error != nil {
			return errs.NewDatabaseError("update", "project", result.Error)
		}
		if result.RowsAffected == 0 {
			return errs.NewNotFound(entityProject)
		}

		found, err := findByTitle(tx, title)
		if err != nil {
			return err
		}
		updated = found
		return nil
	})
	if err != nil {
		return models.Project{}, asStoreError(err, "update", "project")
	}
	return updated, nil
}

// Remove deletes the project matching title and returns the image it pointed
// to, if any, so the caller can clean it up.
func (r *ProjectRepo) Remove(ctx context.Context, title string) (previousImage *string, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []map[string]any
		err := tx.Table(models.ProjectsTable).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select(models.ColumnImage).
			Where(models.ColumnTitle+" = ?", title).
			Limit(1).
			Find(&rows).Error
		if err != nil {
			return errs.NewDatabaseError("delete", "project", err)
		}
		if len(rows) == 0 {
			return errs.NewNotFound(entityProject)
		}

		result := tx.Where(models.ColumnTitle+" = ?", title).Delete(&models.ProjectRow{})
		if result.Error != nil {
			return errs.NewDatabaseError("delete", "project", result.Error)
		}
		if result.RowsAffected == 0 {
			return errs.NewNotFound(entityProject)
		}

		previousImage = models.ProjectFromRow(models.CanonicalizeRow(rows[0])).Image
		return nil
	})
	if err != nil {
		return nil, asStoreError(err, "delete", "project")
	}
	return previousImage, nil
}

// SetFeatured makes titles the complete featured set. Titles with no matching
// project are ignored. Clearing and setting commit together.
func (r *ProjectRepo) SetFeatured(ctx context.Context, titles []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Table(models.ProjectsTable).
			Update(models.ColumnFeatured, false).Error
		if err != nil {
			return err
		}
		if len(titles) == 0 {
			return nil
		}
		return tx.Table(models.ProjectsTable).
			Where(models.ColumnTitle+" IN ?", titles).
			Update(models.ColumnFeatured, true).Error
	})
	if err != nil {
		return asStoreError(err, "set", "featured projects")
	}
	return nil
}

// IncrementClick adds exactly one to the counter of target for the project
// matching title. A missing project is not an error.
func (r *ProjectRepo) IncrementClick(ctx context.Context, title string, target models.ClickTarget) error {
	column, ok := models.ClickColumn(target)
	if !ok {
		return errs.NewInvalidFieldError("target", "must be dashboard or code")
	}

	err := r.db.WithContext(ctx).
		Table(models.ProjectsTable).
		Where(models.ColumnTitle+" = ?", title).
		Update(column, gorm.Expr("COALESCE("+column+", 0) + 1")).Error
	if err != nil {
		return errs.NewDatabaseError("track", "click", err)
	}
	return nil
}

func findByTitle(db *gorm.DB, title string) (models.Project, error) {
	var rows []map[string]any
	err := db.Table(models.ProjectsTable).
		Where(models.ColumnTitle+" = ?", title).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return models.Project{}, errs.NewDatabaseError("fetch", "project", err)
	}
	if len(rows) == 0 {
		return models.Project{}, errs.NewNotFound(entityProject)
	}
	return models.ProjectFromRow(models.CanonicalizeRow(rows[0])), nil
}

// asStoreError keeps errors already classified inside a transaction and
// wraps anything else, such as a failed commit, as a storage error.
func asStoreError(err error, operation, entity string) error {
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return errs.NewDatabaseError(operation, entity, err)
}
