package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/payload"
	"github.com/rpupo63/portfolio-projects-backend/services"
)

type adminHandler struct {
	responder   Responder
	logger      zerolog.Logger
	credentials services.CredentialChecker
	bodyLimit   int64
}

func newAdminHandler(credentials services.CredentialChecker, bodyLimit int64) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		credentials: credentials,
		bodyLimit:   bodyLimit,
	}
}

// validateAdmin checks the shared admin password
// @Summary Validate admin password
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body object true "{\"password\": \"...\"}"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Incorrect password"
// @Router /api/validate-admin [post]
func (h adminHandler) validateAdmin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := payload.Read(w, r, h.bodyLimit)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		// Any decodable object is checked; a missing password simply fails
		obj := payload.Object(body, "password")
		if obj == nil {
			h.responder.WriteError(w, errs.NewBadRequestError("Invalid request body"))
			return
		}

		password, _ := obj["password"].(string)
		if err := h.credentials.Check(r.Context(), password); err != nil {
			if errs.IsUnauthorized(err) {
				h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected admin password")
			} else {
				h.logger.Error().Err(err).Msg("Admin credential check failed")
			}
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}
