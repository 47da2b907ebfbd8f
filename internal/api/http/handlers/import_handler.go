package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-registry/internal/service"
	apperrors "github.com/spec-kit/donor-registry/pkg/util"
)

// ImportHandler accepts browser storage dumps.
type ImportHandler struct {
	imports *service.ImportService
}

// NewImportHandler constructs handler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// LocalStorage handles POST /api/import/local-storage. The body is the
// JSON object of key to string value copied out of the browser.
func (h *ImportHandler) LocalStorage(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return apperrors.NewBadRequest("empty payload")
	}
	report, err := h.imports.ImportJSON(c.UserContext(), body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
