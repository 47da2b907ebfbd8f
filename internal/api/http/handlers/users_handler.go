package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-registry/internal/api/dto"
	"github.com/spec-kit/donor-registry/internal/service"
	apperrors "github.com/spec-kit/donor-registry/pkg/util"
)

// UsersHandler exposes registration and user lookup endpoints.
type UsersHandler struct {
	registration *service.RegistrationService
	directory    *service.DirectoryService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(registration *service.RegistrationService, directory *service.DirectoryService) *UsersHandler {
	return &UsersHandler{registration: registration, directory: directory}
}

// Register handles POST /api/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}

	user, err := h.registration.Register(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(*user),
		},
	})
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.directory.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Lookup handles GET /api/users/lookup?email=.
func (h *UsersHandler) Lookup(c *fiber.Ctx) error {
	user, err := h.directory.Lookup(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}
