package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpupo63/portfolio-projects-backend/models"
)

// setupRoutes mounts the public API. Every project route waits for the schema
// precondition first.
func setupRoutes(r chi.Router, handlers *routeHandlers, schema SchemaEnsurer, assetsDir string) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireSchema(schema))

			r.Get("/projects", handlers.projectHandler.getAllProjects())
			r.Post("/projects", handlers.projectHandler.createProject())
			r.Post("/projects/set-featured", handlers.projectHandler.setFeatured())
			r.Put("/projects/title/{title}", handlers.projectHandler.updateProject())
			r.Delete("/projects/title/{title}", handlers.projectHandler.deleteProject())
			r.Post("/projects/click/dashboard/{title}", handlers.projectHandler.trackClick(models.ClickDashboard))
			r.Post("/projects/click/code/{title}", handlers.projectHandler.trackClick(models.ClickCode))
		})

		r.Post("/upload-image", handlers.imageHandler.uploadImage())
		r.Post("/validate-admin", handlers.adminHandler.validateAdmin())
	})

	// Images kept on local disk are referenced as "assets/<name>"
	if assetsDir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(assetsDir))))
	}
}
