package imports

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	importsvc "savanna-backend/internal/application/imports"
	"savanna-backend/internal/pkg/response"
)

type Handlers struct {
	Service *importsvc.Service
}

func NewHandlers(service *importsvc.Service) *Handlers {
	return &Handlers{Service: service}
}

// ImportCSV ingests a multipart CSV file of listings. Bad rows are skipped
// and reported; good rows are inserted with source "csv".
func (h *Handlers) ImportCSV(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "A CSV file is required", fiber.StatusBadRequest, err.Error())
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, "Failed to read uploaded file", fiber.StatusBadRequest, err.Error())
	}
	defer file.Close()

	job, err := h.Service.ImportCSV(c.Context(), fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, importsvc.ErrValidation) {
			return response.Error(c, "Failed to import CSV", fiber.StatusBadRequest, err.Error())
		}
		return response.Error(c, "Failed to import CSV", fiber.StatusInternalServerError, err.Error())
	}
	return response.SuccessCreated(c, "CSV imported", job, nil)
}
