package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/arenapix/internal/middleware"
	"github.com/example/arenapix/internal/models"
	"github.com/example/arenapix/internal/services"
	"github.com/example/arenapix/internal/utils"
)

// ParticipationHandler manages registrations for tournaments.
type ParticipationHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
}

func NewParticipationHandler(db *gorm.DB, payments *services.PaymentService) *ParticipationHandler {
	return &ParticipationHandler{db: db, payments: payments}
}

type registerParticipationRequest struct {
	TournamentID string `json:"tournament_id"`
	PromoCode    string `json:"promo_code"`
}

// Register creates a pending participation for the authenticated user. The
// charge itself is created afterwards through POST /payments/create.
func (h *ParticipationHandler) Register(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req registerParticipationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	tournamentID, err := uuid.Parse(req.TournamentID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tournament_id")
	}

	var tournament models.Tournament
	if err := h.db.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "tournament not found")
		}
		return err
	}
	if tournament.Status != models.TournamentStatusPublished {
		return fiber.NewError(fiber.StatusBadRequest, "tournament is not open for registration")
	}

	amount := tournament.EntryFee
	var promoID *uuid.UUID
	if code := strings.TrimSpace(req.PromoCode); code != "" {
		var promo models.PromoCode
		if err := h.db.First(&promo, "code = ?", strings.ToUpper(code)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "unknown promo code")
			}
			return err
		}
		if !promo.IsUsable(time.Now()) {
			return fiber.NewError(fiber.StatusBadRequest, "promo code is no longer valid")
		}
		amount = promo.Apply(amount)
		promoID = &promo.ID
		if err := h.db.Model(&promo).Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
			return err
		}
	}

	participation := models.Participation{
		UserID:        userID,
		TournamentID:  tournament.ID,
		PaymentStatus: models.PaymentStatusPending,
		AmountDue:     amount,
		PromoCodeID:   promoID,
	}
	if err := h.db.Create(&participation).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": participation})
}

// ListMine returns the authenticated user's participations.
func (h *ParticipationHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var items []models.Participation
	if err := h.db.Preload("Tournament").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

// Get returns one participation. Owners and admins only.
func (h *ParticipationHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Participation
	if err := h.db.Preload("Tournament").First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "participation not found")
		}
		return err
	}

	if item.UserID != userID && !middleware.IsAdmin(c) {
		return fiber.NewError(fiber.StatusForbidden, "not your participation")
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// ListByTournament returns every participation of a tournament (admin view),
// optionally filtered by payment status.
func (h *ParticipationHandler) ListByTournament(c *fiber.Ctx) error {
	tournamentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Participation{}).Where("tournament_id = ?", tournamentID)

	if status := strings.TrimSpace(c.Query("payment_status")); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Participation
	if err := query.Preload("User").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// Reject manually fails a pending participation (admin override).
func (h *ParticipationHandler) Reject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.payments.Reject(c.Context(), id); err != nil {
		return writePaymentError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}
