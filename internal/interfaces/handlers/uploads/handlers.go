package uploads

import (
	"errors"

	uploadsvc "property-portal/internal/application/uploads"
	"property-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service. A nil Service means
// storage is not configured.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

// PropertyImage POST /api/v1/properties/image-upload
func (h *Handlers) PropertyImage(c *fiber.Ctx) error {
	if h.Service == nil {
		return response.Error(c, "Image uploads are not configured", fiber.StatusServiceUnavailable, nil)
	}
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.ImageUploadURL(c.UserContext(), req.FileName)
	if errors.Is(err, uploadsvc.ErrUnsupportedImage) {
		return response.Error(c, "file_name must be a .jpg, .jpeg, .png, .webp or .gif image", fiber.StatusBadRequest, nil)
	}
	if err != nil {
		log.Error().Err(err).Str("file", req.FileName).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
