package uploads

import (
	"github.com/gofiber/fiber/v2"

	uploadsvc "savanna-backend/internal/application/uploads"
	"savanna-backend/internal/pkg/response"
)

type Handlers struct {
	Service *uploadsvc.Service
}

func NewHandlers(service *uploadsvc.Service) *Handlers {
	return &Handlers{Service: service}
}

// CreateUploadSlot returns a signed upload URL and the ref to store on the
// listing once the client has pushed the bytes.
func (h *Handlers) CreateUploadSlot(c *fiber.Ctx) error {
	var body struct {
		FileName string `json:"file_name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, err.Error())
	}
	if body.FileName == "" {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}

	slot, err := h.Service.CreateUploadSlot(c.Context(), body.FileName)
	if err != nil {
		return response.Error(c, "Failed to create upload slot", fiber.StatusInternalServerError, err.Error())
	}
	return response.SuccessCreated(c, "Upload slot created", slot, nil)
}

// Resolve turns a stored ref into a temporary display URL. Unknown refs are
// a 404, not an error.
func (h *Handlers) Resolve(c *fiber.Ctx) error {
	ref := c.Params("ref")
	if ref == "" {
		return response.Error(c, "ref is required", fiber.StatusBadRequest, nil)
	}

	url, ok, err := h.Service.Resolve(c.Context(), ref)
	if err != nil {
		return response.Error(c, "Failed to resolve file", fiber.StatusInternalServerError, err.Error())
	}
	if !ok {
		return response.Error(c, "File not found", fiber.StatusNotFound, nil)
	}
	return response.Success(c, "File resolved successfully", fiber.Map{"url": url}, nil)
}
