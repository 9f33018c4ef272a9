package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/arenapix/internal/models"
)

// PromoHandler manages promo codes.
type PromoHandler struct {
	db *gorm.DB
}

func NewPromoHandler(db *gorm.DB) *PromoHandler {
	return &PromoHandler{db: db}
}

// Validate checks a code and returns the discount it grants.
func (h *PromoHandler) Validate(c *fiber.Ctx) error {
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	var promo models.PromoCode
	if err := h.db.First(&promo, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "promo code not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"valid":            promo.IsUsable(time.Now()),
		"discount_percent": promo.DiscountPercent,
	})
}

// List returns all promo codes (admin).
func (h *PromoHandler) List(c *fiber.Ctx) error {
	var items []models.PromoCode
	if err := h.db.Order("created_at desc").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// Create adds a promo code (admin).
func (h *PromoHandler) Create(c *fiber.Ctx) error {
	var item models.PromoCode
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	if item.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if item.DiscountPercent <= 0 || item.DiscountPercent > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "discount_percent must be in (0, 100]")
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// Update modifies a promo code (admin).
func (h *PromoHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.PromoCode
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "promo code not found")
		}
		return err
	}
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

// Delete removes a promo code (admin).
func (h *PromoHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.PromoCode{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
