package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-projects-backend/database"
	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/models"
	"github.com/rpupo63/portfolio-projects-backend/payload"
	"github.com/rpupo63/portfolio-projects-backend/services"
)

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo *database.ProjectRepo
	cleaner     *services.ImageCleaner
	bodyLimit   int64
}

func newProjectHandler(projectRepo *database.ProjectRepo, cleaner *services.ImageCleaner, bodyLimit int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
		cleaner:     cleaner,
		bodyLimit:   bodyLimit,
	}
}

// getAllProjects lists every project
// @Summary Get all projects
// @Tags Projects
// @Produce json
// @Success 200 {array} models.Project "All projects"
// @Failure 500 {object} ErrorResponse "Failed to fetch projects"
// @Router /api/projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectRepo.ListAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, projects)
	}
}

// createProject adds a project unless its title is already taken
// @Summary Add project
// @Description Inserts a project. Adding an existing title succeeds without changing the stored project.
// @Tags Projects
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param project body models.Project true "Project to add"
// @Success 200 {object} ProjectResponse
// @Failure 400 {object} ErrorResponse "title required"
// @Failure 500 {object} ErrorResponse "Failed to add project"
// @Router /api/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		candidate, err := h.readProject(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, inserted, err := h.projectRepo.Add(r.Context(), candidate)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if !inserted {
			h.logger.Info().Str("title", project.Title).Msg("Project already existed, nothing written")
		}

		h.responder.WriteJSON(w, ProjectResponse{Success: true, Project: project})
	}
}

// updateProject replaces the content of an existing project
// @Summary Update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param title path string true "Project title"
// @Param project body models.Project true "New content"
// @Success 200 {object} ProjectResponse
// @Failure 404 {object} ErrorResponse "Project not found"
// @Failure 500 {object} ErrorResponse "Failed to update project"
// @Router /api/projects/title/{title} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := titleParam(r)

		changes, err := h.readProject(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.Update(r.Context(), title, changes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, ProjectResponse{Success: true, Project: project})
	}
}

// deleteProject removes a project and schedules cleanup of its hosted image
// @Summary Delete project
// @Tags Projects
// @Produce json
// @Param title path string true "Project title"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse "Project not found"
// @Failure 500 {object} ErrorResponse "Failed to delete project"
// @Router /api/projects/title/{title} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := titleParam(r)

		previousImage, err := h.projectRepo.Remove(r.Context(), title)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if h.cleaner.Schedule(previousImage) {
			h.logger.Debug().Str("title", title).Str("image", *previousImage).Msg("Image cleanup scheduled")
		}

		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

// setFeatured replaces the featured set
// @Summary Set featured projects
// @Description Exactly the given titles become featured. Unknown titles are ignored.
// @Tags Projects
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param titles body object true "{\"titles\": [\"A\", \"B\"]}"
// @Success 200 {object} FeaturedResponse
// @Failure 400 {object} ErrorResponse "titles required"
// @Failure 500 {object} ErrorResponse "Failed to set featured projects"
// @Router /api/projects/set-featured [post]
func (h projectHandler) setFeatured() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := payload.Read(w, r, h.bodyLimit)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		titles := payload.Titles(body)
		if len(titles) == 0 {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("titles"))
			return
		}

		if err := h.projectRepo.SetFeatured(r.Context(), titles); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, FeaturedResponse{Success: true, Featured: titles})
	}
}

// trackClick counts one follow of a project's dashboard or code link
// @Summary Track link click
// @Tags Projects
// @Produce json
// @Param title path string true "Project title"
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse "Failed to track click"
// @Router /api/projects/click/dashboard/{title} [post]
// @Router /api/projects/click/code/{title} [post]
func (h projectHandler) trackClick(target models.ClickTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.projectRepo.IncrementClick(r.Context(), titleParam(r), target); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

func (h projectHandler) readProject(w http.ResponseWriter, r *http.Request) (models.Project, error) {
	body, err := payload.Read(w, r, h.bodyLimit)
	if err != nil {
		return models.Project{}, err
	}

	project, err := models.ProjectFromRecord(payload.Record(body))
	if errs.IsMalformedPayloadError(err) {
		h.logger.Debug().Err(err).Int("bodySize", len(body)).Msg("Project fields could not be decoded")
	}
	return project, err
}

// titleParam returns the decoded {title} path segment.
func titleParam(r *http.Request) string {
	title := chi.URLParam(r, "title")
	if unescaped, err := url.PathUnescape(title); err == nil {
		return unescaped
	}
	return title
}
