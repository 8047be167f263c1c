package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/services"
)

type imageHandler struct {
	responder Responder
	logger    zerolog.Logger
	uploader  services.ImageUploader
	maxUpload int64
}

func newImageHandler(uploader services.ImageUploader, maxUpload int64) imageHandler {
	logger := log.With().Str("handlerName", "imageHandler").Logger()

	return imageHandler{
		responder: NewResponder(logger),
		logger:    logger,
		uploader:  uploader,
		maxUpload: maxUpload,
	}
}

// uploadImage stores the first file of a multipart form
// @Summary Upload image
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} ErrorResponse "No file uploaded"
// @Failure 500 {object} ErrorResponse "Failed to upload image"
// @Router /api/upload-image [post]
func (h imageHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxErr.Limit))
				return
			}
			h.logger.Debug().Err(err).Msg("Request is not a readable multipart form")
			h.responder.WriteError(w, errs.NewNoFileUploadedError())
			return
		}
		defer r.MultipartForm.RemoveAll()

		fh := firstFile(r.MultipartForm)
		if fh == nil {
			h.responder.WriteError(w, errs.NewNoFileUploadedError())
			return
		}

		file, err := fh.Open()
		if err != nil {
			h.responder.WriteError(w, errs.NewStorageUnavailableError("multipart", "upload image", err))
			return
		}
		defer file.Close()

		name := services.UploadName(fh.Filename, time.Now())
		imagePath, err := h.uploader.Upload(r.Context(), name, fh.Header.Get("Content-Type"), file)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("imagePath", imagePath).Int64("size", fh.Size).Msg("Image uploaded")
		h.responder.WriteJSON(w, UploadResponse{Success: true, ImagePath: imagePath})
	}
}

// firstFile prefers the conventional field names and otherwise picks the
// alphabetically first file field.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil || len(form.File) == 0 {
		return nil
	}

	for _, field := range []string{"image", "file"} {
		if files := form.File[field]; len(files) > 0 {
			return files[0]
		}
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if files := form.File[field]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}
