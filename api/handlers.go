package api

import (
	"github.com/rpupo63/portfolio-projects-backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, rt router) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(database.ProjectRepo(), rt.cleaner, rt.bodyLimit),
		imageHandler:   newImageHandler(rt.uploader, rt.maxUpload),
		adminHandler:   newAdminHandler(rt.credentials, rt.bodyLimit),
	}
}
