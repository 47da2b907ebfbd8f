package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-registry/internal/api/dto"
	"github.com/spec-kit/donor-registry/internal/service"
)

// DonorsHandler serves the donor search.
type DonorsHandler struct {
	directory *service.DirectoryService
}

// NewDonorsHandler constructs handler.
func NewDonorsHandler(directory *service.DirectoryService) *DonorsHandler {
	return &DonorsHandler{directory: directory}
}

// Search handles GET /api/donors?q=&blood_group=&city=.
func (h *DonorsHandler) Search(c *fiber.Ctx) error {
	donors, err := h.directory.SearchDonors(c.UserContext(), service.DonorFilter{
		Query:      c.Query("q"),
		BloodGroup: c.Query("blood_group"),
		City:       c.Query("city"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(donors)})
}
