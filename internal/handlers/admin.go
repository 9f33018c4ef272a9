package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/arenapix/internal/services"
)

// AdminHandler exposes runtime-editable settings.
type AdminHandler struct {
	settings *services.SettingsService
}

func NewAdminHandler(settings *services.SettingsService) *AdminHandler {
	return &AdminHandler{settings: settings}
}

// GetSettings returns the settings row with the test credential masked.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":                 true,
		"test_credential_present": settings.MercadoPagoTestToken != "",
		"updated_at":              settings.UpdatedAt,
	})
}

type updateSettingsRequest struct {
	MercadoPagoTestToken string `json:"mercado_pago_test_token"`
}

// UpdateSettings rotates the Mercado Pago test credential. Takes effect on
// the next test-path call; nothing is cached.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.MercadoPagoTestToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "mercado_pago_test_token is required")
	}

	if _, err := h.settings.UpdateTestToken(c.Context(), req.MercadoPagoTestToken); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
