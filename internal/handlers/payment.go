package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/arenapix/internal/services"
)

// PaymentHandler exposes the payment lifecycle endpoints: charge creation,
// the provider webhook, status/repair, and the admin integration test.
type PaymentHandler struct {
	payments *services.PaymentService
	settings *services.SettingsService
}

func NewPaymentHandler(payments *services.PaymentService, settings *services.SettingsService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		settings: settings,
	}
}

type createPaymentRequest struct {
	ParticipationID string  `json:"participationId"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	PayerEmail      string  `json:"payerEmail"`
	PayerName       string  `json:"payerName"`
	PayerDocumentID string  `json:"payerDocumentId"`
}

// Create creates a PIX charge for a participation and returns the QR payload.
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	participationID, err := uuid.Parse(req.ParticipationID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid participationId")
	}

	result, err := h.payments.CreateCharge(c.Context(), services.ChargeRequest{
		ParticipationID: participationID,
		Amount:          req.Amount,
		Description:     req.Description,
		PayerEmail:      req.PayerEmail,
		PayerName:       req.PayerName,
		PayerDocument:   req.PayerDocumentID,
	})
	if err != nil {
		return writePaymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"paymentId":         result.PaymentID,
		"qrCodeImageBase64": result.QRCodeBase64,
		"copyPasteCode":     result.CopyPasteCode,
		"expiresAt":         result.ExpiresAt,
	})
}

// webhookNotification is the minimal shape required of a provider
// notification: a type/action discriminator and a nested payment id.
// Anything else in the payload is ignored, and the payload's own status
// field is never trusted.
type webhookNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

func (n *webhookNotification) isPaymentNotification() bool {
	return n.Type == "payment" || strings.HasPrefix(n.Action, "payment.")
}

// Webhook receives provider notifications. Deliveries are at-least-once,
// possibly duplicated and out of order; processing is idempotent. Non-payment
// notification types get an immediate 200 so the provider stops retrying them.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var notification webhookNotification
	if err := json.Unmarshal(c.Body(), &notification); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notification body")
	}

	if !notification.isPaymentNotification() {
		log.Printf("[Webhook] ignoring notification type %q action %q", notification.Type, notification.Action)
		return c.JSON(fiber.Map{"received": true})
	}

	paymentID := notification.Data.ID.String()
	if paymentID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "notification missing payment id")
	}

	status, err := h.payments.ProcessNotification(c.Context(), paymentID)
	if err != nil {
		var perr *services.PaymentError
		if errors.As(err, &perr) && perr.Kind == services.ErrKindNotFound {
			// No participation matches; nothing to reconcile and a retry
			// will not change that.
			log.Printf("[Webhook] %v", perr)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": perr.Message})
		}
		// 5xx: the provider retries, which is exactly what we want for
		// gateway or store failures.
		log.Printf("[Webhook] processing payment %s failed: %v", paymentID, err)
		return writePaymentError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "status": status})
}

type statusRequest struct {
	ParticipationID string `json:"participationId"`
}

// Status reads current payment state and repairs a missing slot assignment.
// This is the client's safety net for lost or delayed webhook deliveries.
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	participationID, err := uuid.Parse(req.ParticipationID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid participationId")
	}

	result, err := h.payments.CheckAndRepair(c.Context(), participationID)
	if err != nil {
		return writePaymentError(c, err)
	}

	return c.JSON(result)
}

type testPaymentRequest struct {
	Amount          float64 `json:"amount"`
	PayerEmail      string  `json:"payerEmail"`
	PayerDocumentID string  `json:"payerDocumentId"`
}

// Test validates the provider integration using the separately stored test
// credential. The credential is re-read per call because it is editable at
// runtime; no participation is touched.
func (h *PaymentHandler) Test(c *fiber.Ctx) error {
	var req testPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.settings.TestToken(c.Context())
	if err != nil {
		return writePaymentError(c, err)
	}

	amount := req.Amount
	if amount <= 0 {
		amount = 1.00
	}
	email := req.PayerEmail
	if email == "" {
		email = "test@arenapix.local"
	}
	document := req.PayerDocumentID
	if document == "" {
		document = "19119119100"
	}

	client := services.NewMercadoPagoClient(token, "")
	charge, err := client.CreatePixCharge(c.Context(), services.PixChargeRequest{
		ParticipationID: "integration-test-" + uuid.NewString(),
		Amount:          amount,
		Description:     "ArenaPix integration test",
		PayerEmail:      email,
		PayerDocument:   document,
	})
	if err != nil {
		return writePaymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"paymentId":     charge.PaymentID,
		"status":        charge.Status,
		"copyPasteCode": charge.CopyPasteCode,
	})
}

// writePaymentError translates a classified payment error into its HTTP
// response; anything unclassified bubbles to the fiber error handler.
func writePaymentError(c *fiber.Ctx, err error) error {
	var perr *services.PaymentError
	if errors.As(err, &perr) {
		return c.Status(perr.HTTPStatus()).JSON(fiber.Map{
			"success": false,
			"error":   perr.Message,
		})
	}
	return err
}
