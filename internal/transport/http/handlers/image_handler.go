package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/picshelf/picshelf/internal/service"
	"github.com/picshelf/picshelf/internal/transport/http/middleware"
)

type ImageHandler struct {
	imageService *service.ImageService
	logger       *slog.Logger
}

func NewImageHandler(imageService *service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{imageService: imageService, logger: logger}
}

// List handles GET /api/images/{userId}.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())

	ownerID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	images, err := h.imageService.ListByOwner(r.Context(), callerID, ownerID)
	if err != nil {
		if errors.Is(err, service.ErrNotAllowed) {
			writeErrors(w, http.StatusForbidden, "Forbidden")
			return
		}
		h.logger.Error("list images", "error", err)
		writeErrors(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

// Upload handles POST /api/images/{userId}. It records the image and
// returns a presigned URL the client PUTs the bytes to; the server never
// proxies image data.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())

	ownerID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	image, uploadURL, err := h.imageService.RequestUpload(r.Context(), callerID, ownerID)
	if err != nil {
		if errors.Is(err, service.ErrNotAllowed) {
			writeErrors(w, http.StatusForbidden, "Forbidden")
			return
		}
		h.logger.Error("request upload", "error", err)
		writeErrors(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"image":     image,
		"uploadUrl": uploadURL,
	})
}
