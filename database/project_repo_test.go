package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/models"
)

func findProject(t *testing.T, repo *ProjectRepo, title string) (models.Project, bool) {
	t.Helper()

	projects, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	for _, p := range projects {
		if p.Title == title {
			return p, true
		}
	}
	return models.Project{}, false
}

func seed(t *testing.T, repo *ProjectRepo, titles ...string) {
	t.Helper()

	for _, title := range titles {
		_, inserted, err := repo.Add(context.Background(), models.Project{Title: title})
		require.NoError(t, err)
		require.True(t, inserted)
	}
}

func TestAddThenListDefaultsTechToEmpty(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()

	added, inserted, err := repo.Add(context.Background(), models.Project{
		Title:    "Portfolio",
		Category: strPtr("web"),
		Featured: true,
	})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.False(t, added.Featured)
	assert.Equal(t, models.TechList{}, added.Tech)

	p, ok := findProject(t, repo, "Portfolio")
	require.True(t, ok)
	assert.Equal(t, models.TechList{}, p.Tech)
	assert.Equal(t, "web", *p.Category)
	assert.Nil(t, p.Image)
	assert.False(t, p.Featured)
	assert.Zero(t, p.ClicksDashboardURL)
}

func TestAddDuplicateTitleKeepsFirstWrite(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()

	_, inserted, err := repo.Add(context.Background(), models.Project{Title: "A", Description: strPtr("first")})
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = repo.Add(context.Background(), models.Project{Title: "A", Description: strPtr("second")})
	require.NoError(t, err)
	assert.False(t, inserted)

	projects, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "first", *projects[0].Description)
}

func TestAddBlankTitleIsRejected(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, _, err := repo.Add(context.Background(), models.Project{Title: title})
		require.Error(t, err)
		assert.True(t, errs.IsValidation(err))
		assert.Equal(t, "title required", err.(*errs.ApiErr).Message())
	}

	projects, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestTechRoundTrip(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()

	_, _, err := repo.Add(context.Background(), models.Project{Title: "A", Tech: models.TechList{"Go", "SQL"}})
	require.NoError(t, err)

	p, ok := findProject(t, repo, "A")
	require.True(t, ok)
	assert.Equal(t, models.TechList{"Go", "SQL"}, p.Tech)
}

func TestUpdateReplacesContentFields(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()
	ctx := context.Background()

	_, _, err := repo.Add(ctx, models.Project{
		Title:       "A",
		Category:    strPtr("old"),
		Description: strPtr("keep me?"),
		Tech:        models.TechList{"Go"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.SetFeatured(ctx, []string{"A"}))
	require.NoError(t, repo.IncrementClick(ctx, "A", models.ClickCode))

	updated, err := repo.Update(ctx, "A", models.Project{
		Title:    "ignored",
		Category: strPtr("new"),
		Tech:     models.TechList{"Go", "Postgres"},
	})
	require.NoError(t, err)

	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "new", *updated.Category)
	assert.Nil(t, updated.Description)
	assert.Equal(t, models.TechList{"Go", "Postgres"}, updated.Tech)
	assert.True(t, updated.Featured)
	assert.Equal(t, int64(1), updated.ClicksCodeURL)

	_, ok := findProject(t, repo, "ignored")
	assert.False(t, ok)
}

func TestUpdateMissingTitleIsNotFound(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()
	seed(t, repo, "A")

	_, err := repo.Update(context.Background(), "B", models.Project{Category: strPtr("x")})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, "Project not found", err.(*errs.ApiErr).Message())

	p, ok := findProject(t, repo, "A")
	require.True(t, ok)
	assert.Nil(t, p.Category)
}

func TestRemoveReturnsPreviousImage(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()
	ctx := context.Background()

	_, _, err := repo.Add(ctx, models.Project{Title: "A", Image: strPtr("https://img.example.com/a.png")})
	require.NoError(t, err)
	seed(t, repo, "B")

	image, err := repo.Remove(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, image)
	assert.Equal(t, "https://img.example.com/a.png", *image)

	image, err = repo.Remove(ctx, "B")
	require.NoError(t, err)
	assert.Nil(t, image)

	projects, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestRemoveMissingTitleIsNotFound(t *testing.T) {
	d, _ := newTestDatabase(t)

	_, err := d.ProjectRepo().Remove(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, 404, errs.StatusCode(err))
}

func TestSetFeaturedReplacesWholeSet(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()
	ctx := context.Background()
	seed(t, repo, "A", "B", "C", "D")

	require.NoError(t, repo.SetFeatured(ctx, []string{"B", "D"}))
	require.NoError(t, repo.SetFeatured(ctx, []string{"A", "C", "missing"}))

	projects, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 4)

	featured := map[string]bool{}
	for _, p := range projects {
		featured[p.Title] = p.Featured
	}
	assert.Equal(t, map[string]bool{"A": true, "B": false, "C": true, "D": false}, featured)

	require.NoError(t, repo.SetFeatured(ctx, nil))
	projects, err = repo.ListAll(ctx)
	require.NoError(t, err)
	for _, p := range projects {
		assert.False(t, p.Featured, p.Title)
	}
}

func TestIncrementClickConcurrentConnections(t *testing.T) {
	db := newFileTestDB(t, 8)
	d := New(db)
	ctx := context.Background()
	require.NoError(t, d.Schema().EnsureSchema(ctx))
	repo := d.ProjectRepo()
	seed(t, repo, "X")
	require.NoError(t, repo.IncrementClick(ctx, "X", models.ClickDashboard))

	const n = 25
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- repo.IncrementClick(ctx, "X", models.ClickDashboard)
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	p, ok := findProject(t, repo, "X")
	require.True(t, ok)
	assert.Equal(t, int64(n+1), p.ClicksDashboardURL)
	assert.Zero(t, p.ClicksCodeURL)
}

func TestIncrementClickMissingTitleIsNoop(t *testing.T) {
	d, _ := newTestDatabase(t)
	repo := d.ProjectRepo()
	seed(t, repo, "A")

	require.NoError(t, repo.IncrementClick(context.Background(), "nope", models.ClickCode))

	p, ok := findProject(t, repo, "A")
	require.True(t, ok)
	assert.Zero(t, p.ClicksCodeURL)
}

func TestIncrementClickUnknownTarget(t *testing.T) {
	d, _ := newTestDatabase(t)

	err := d.ProjectRepo().IncrementClick(context.Background(), "A", models.ClickTarget("demo"))
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestClosedDatabaseIsStorageError(t *testing.T) {
	d, db := newTestDatabase(t)
	repo := d.ProjectRepo()
	closeDB(t, db)
	ctx := context.Background()

	_, err := repo.ListAll(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))
	assert.True(t, errs.IsDatabaseConnectionError(err))
	assert.Equal(t, "Failed to fetch projects", err.(*errs.ApiErr).Message())

	_, _, err = repo.Add(ctx, models.Project{Title: "A"})
	assert.True(t, errs.IsStorage(err))

	_, err = repo.Remove(ctx, "A")
	assert.True(t, errs.IsStorage(err))

	err = repo.SetFeatured(ctx, []string{"A"})
	assert.True(t, errs.IsStorage(err))

	err = repo.IncrementClick(ctx, "A", models.ClickCode)
	assert.True(t, errs.IsStorage(err))
}

func TestUpdateStoredTitleLongerThanAddLimit(t *testing.T) {
	d, db := newTestDatabase(t)
	repo := d.ProjectRepo()
	ctx := context.Background()

	long := strings.Repeat("L", models.MaxTitleLength+100)
	_, _, err := repo.Add(ctx, models.Project{Title: long})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidFieldError(err))

	require.NoError(t, db.Exec("INSERT INTO projects (title) VALUES (?)", long).Error)

	updated, err := repo.Update(ctx, long, models.Project{Category: strPtr("legacy")})
	require.NoError(t, err)
	assert.Equal(t, long, updated.Title)
	assert.Equal(t, "legacy", *updated.Category)
}

func TestUpdateBlankTitleIsRejected(t *testing.T) {
	d, _ := newTestDatabase(t)

	_, err := d.ProjectRepo().Update(context.Background(), "  ", models.Project{Category: strPtr("x")})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "title required", err.(*errs.ApiErr).Message())
}

func TestListAllReadsPrimaryWithReplicas(t *testing.T) {
	d, db := newTestDatabase(t)
	ctx := context.Background()

	// The replica has the table but never receives writes, like a lagging copy.
	replicaDSN := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	replicaDB, err := gorm.Open(sqlite.Open(replicaDSN), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	replicaSQL, err := replicaDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = replicaSQL.Close() })
	require.NoError(t, NewSchemaManager(replicaDB).EnsureSchema(ctx))

	require.NoError(t, db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: []gorm.Dialector{sqlite.Open(replicaDSN)},
	})))

	repo := d.ProjectRepo()
	seed(t, repo, "A")

	var replicaRows []map[string]any
	require.NoError(t, db.Table(models.ProjectsTable).Find(&replicaRows).Error)
	assert.Empty(t, replicaRows)

	_, ok := findProject(t, repo, "A")
	assert.True(t, ok)
}
