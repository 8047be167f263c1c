package api

import "github.com/rpupo63/portfolio-projects-backend/models"

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	imageHandler   imageHandler
	adminHandler   adminHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"Project not found"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
}

// SuccessResponse acknowledges a mutation that returns no data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// ProjectResponse echoes the project written by an add or update
type ProjectResponse struct {
	Success bool           `json:"success" example:"true"`
	Project models.Project `json:"project"`
}

// FeaturedResponse lists the titles the featured set was replaced with
type FeaturedResponse struct {
	Success  bool     `json:"success" example:"true"`
	Featured []string `json:"featured"`
}

// UploadResponse carries the path or URL of a stored image
type UploadResponse struct {
	Success   bool   `json:"success" example:"true"`
	ImagePath string `json:"imagePath" example:"assets/5f0c...-logo.png"`
}
