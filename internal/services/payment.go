package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/arenapix/internal/models"
	"github.com/example/arenapix/internal/utils"
)

// MapProviderStatus translates a Mercado Pago payment status into the local
// enum. Anything unrecognized maps to pending: a status we do not know must
// never confirm or fail a payment.
func MapProviderStatus(providerStatus string) string {
	switch providerStatus {
	case "approved":
		return models.PaymentStatusPaid
	case "rejected", "cancelled":
		return models.PaymentStatusFailed
	case "refunded":
		return models.PaymentStatusRefunded
	case "pending", "in_process":
		return models.PaymentStatusPending
	default:
		return models.PaymentStatusPending
	}
}

// transition is the persisted outcome of applying a mapped status to a
// participation.
type transition struct {
	Updates   map[string]any
	MintToken bool
}

// resolveTransition decides what a status observation writes. The access
// token is minted exactly once, on the first entry into paid; re-deliveries
// of paid never touch an existing token. The status column itself is
// last-write-wins: a stale pending refetch processed after paid regresses it
// until the next observation converges it again.
func resolveTransition(p *models.Participation, mapped string) transition {
	t := transition{Updates: map[string]any{"payment_status": mapped}}
	if mapped == models.PaymentStatusPaid && p.UniqueToken == nil {
		t.MintToken = true
	}
	return t
}

// PaymentService drives the payment lifecycle of participations.
type PaymentService struct {
	db       *gorm.DB
	gateway  *MercadoPagoClient
	slots    *SlotService
	realtime *RealtimeService
	telegram *TelegramService
}

func NewPaymentService(db *gorm.DB, gateway *MercadoPagoClient, slots *SlotService, realtime *RealtimeService, telegram *TelegramService) *PaymentService {
	return &PaymentService{
		db:       db,
		gateway:  gateway,
		slots:    slots,
		realtime: realtime,
		telegram: telegram,
	}
}

// ChargeRequest is the input to CreateCharge.
type ChargeRequest struct {
	ParticipationID uuid.UUID
	Amount          float64
	Description     string
	PayerEmail      string
	PayerName       string
	PayerDocument   string
}

// ChargeResult is returned to the client so it can render the PIX QR code.
type ChargeResult struct {
	PaymentID     string `json:"paymentId"`
	QRCodeBase64  string `json:"qrCodeImageBase64"`
	CopyPasteCode string `json:"copyPasteCode"`
	ExpiresAt     string `json:"expiresAt"`
}

// CreateCharge creates a PIX charge for a participation and records the
// provider payment id. The gateway call is the monetary side effect; if the
// subsequent store write fails the charge is not rolled back — the webhook
// reconciles through the external reference.
func (s *PaymentService) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	doc, ok := utils.NormalizeDocument(req.PayerDocument)
	if !ok {
		return nil, newPaymentError(ErrKindValidation, "payer document must have 11 digits", nil)
	}
	if req.Amount <= 0 {
		return nil, newPaymentError(ErrKindValidation, "amount must be positive", nil)
	}

	var participation models.Participation
	if err := s.db.WithContext(ctx).First(&participation, "id = ?", req.ParticipationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newPaymentError(ErrKindNotFound, "participation not found", nil)
		}
		return nil, newPaymentError(ErrKindPersistence, "loading participation", err)
	}

	// Known gap: an existing non-terminal charge is not deduplicated, so a
	// duplicate submission creates a second provider-side charge.
	if participation.MercadoPagoPaymentID != nil {
		log.Printf("[Payments] participation %s already has charge %s, creating another",
			participation.ID, *participation.MercadoPagoPaymentID)
	}

	charge, err := s.gateway.CreatePixCharge(ctx, PixChargeRequest{
		ParticipationID: participation.ID.String(),
		Amount:          req.Amount,
		Description:     req.Description,
		PayerEmail:      req.PayerEmail,
		PayerName:       req.PayerName,
		PayerDocument:   doc,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).
		Model(&models.Participation{}).
		Where("id = ?", participation.ID).
		Updates(map[string]any{
			"payment_status":          models.PaymentStatusPending,
			"mercado_pago_payment_id": charge.PaymentID,
			"payment_created_at":      now,
		}).Error; err != nil {
		log.Printf("[Payments] charge %s created but persisting to participation %s failed: %v",
			charge.PaymentID, participation.ID, err)
		return nil, newPaymentError(ErrKindPersistence, "recording charge on participation", err)
	}

	return &ChargeResult{
		PaymentID:     charge.PaymentID,
		QRCodeBase64:  charge.QRCodeBase64,
		CopyPasteCode: charge.CopyPasteCode,
		ExpiresAt:     charge.ExpiresAt,
	}, nil
}

// ProcessNotification handles one provider payment id from a webhook
// delivery: refetches the authoritative status, resolves the participation
// and applies the transition. Safe under at-least-once, out-of-order and
// duplicate delivery. Returns the mapped local status.
func (s *PaymentService) ProcessNotification(ctx context.Context, paymentID string) (string, error) {
	status, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}

	participation, err := s.resolveParticipation(ctx, status.ExternalReference, paymentID)
	if err != nil {
		return "", err
	}

	mapped, err := s.applyStatus(ctx, participation, status.Status)
	if err != nil {
		return "", err
	}
	return mapped, nil
}

// resolveParticipation locates the participation for a charge, preferring the
// external reference the provider carries and falling back to the stored
// provider payment id.
func (s *PaymentService) resolveParticipation(ctx context.Context, externalRef, paymentID string) (*models.Participation, error) {
	var participation models.Participation

	if id, err := uuid.Parse(externalRef); err == nil {
		err := s.db.WithContext(ctx).First(&participation, "id = ?", id).Error
		if err == nil {
			return &participation, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newPaymentError(ErrKindPersistence, "loading participation", err)
		}
	}

	err := s.db.WithContext(ctx).
		First(&participation, "mercado_pago_payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newPaymentError(ErrKindNotFound, "no participation for charge "+paymentID, nil)
		}
		return nil, newPaymentError(ErrKindPersistence, "loading participation", err)
	}
	return &participation, nil
}

// applyStatus persists one status observation and its side effects.
func (s *PaymentService) applyStatus(ctx context.Context, participation *models.Participation, providerStatus string) (string, error) {
	mapped := MapProviderStatus(providerStatus)
	t := resolveTransition(participation, mapped)

	firstPaid := t.MintToken
	if t.MintToken {
		token, err := utils.GenerateAccessToken()
		if err != nil {
			return "", newPaymentError(ErrKindPersistence, "minting access token", err)
		}
		t.Updates["unique_token"] = token
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Participation{}).
		Where("id = ?", participation.ID).
		Updates(t.Updates).Error; err != nil {
		return "", newPaymentError(ErrKindPersistence, "updating participation status", err)
	}

	var updated models.Participation
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", participation.ID).Error; err != nil {
		return "", newPaymentError(ErrKindPersistence, "reloading participation", err)
	}

	s.realtime.PublishUpdate(ctx, &updated)

	if firstPaid && s.telegram != nil {
		go func(p models.Participation) {
			if err := s.telegram.NotifyPaymentConfirmed(p); err != nil {
				log.Printf("[Payments] telegram notification failed for participation %s: %v", p.ID, err)
			}
		}(updated)
	}

	return mapped, nil
}

// StatusResult is what the status/repair endpoint returns.
type StatusResult struct {
	Status     string  `json:"status"`
	Token      *string `json:"token"`
	IsPaid     bool    `json:"isPaid"`
	SlotNumber *int    `json:"slotNumber"`
}

// CheckAndRepair reads the current payment state and, when the participation
// is paid but missing a slot, runs the slot allocation. Callable any number
// of times: the repair only acts while slot_number is null.
func (s *PaymentService) CheckAndRepair(ctx context.Context, participationID uuid.UUID) (*StatusResult, error) {
	var participation models.Participation
	if err := s.db.WithContext(ctx).First(&participation, "id = ?", participationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newPaymentError(ErrKindNotFound, "participation not found", nil)
		}
		return nil, newPaymentError(ErrKindPersistence, "loading participation", err)
	}

	if participation.IsPaid() && participation.SlotNumber == nil {
		if _, err := s.slots.AssignSlot(ctx, participation.ID); err != nil {
			log.Printf("[Payments] slot repair failed for participation %s: %v", participation.ID, err)
		} else if err := s.db.WithContext(ctx).First(&participation, "id = ?", participationID).Error; err != nil {
			return nil, newPaymentError(ErrKindPersistence, "reloading participation", err)
		} else {
			s.realtime.PublishUpdate(ctx, &participation)
		}
	}

	return &StatusResult{
		Status:     participation.PaymentStatus,
		Token:      participation.UniqueToken,
		IsPaid:     participation.IsPaid(),
		SlotNumber: participation.SlotNumber,
	}, nil
}

// Reject marks a pending participation as failed, the manual admin override.
func (s *PaymentService) Reject(ctx context.Context, participationID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&models.Participation{}).
		Where("id = ? AND payment_status = ?", participationID, models.PaymentStatusPending).
		Update("payment_status", models.PaymentStatusFailed)
	if result.Error != nil {
		return newPaymentError(ErrKindPersistence, "rejecting participation", result.Error)
	}
	if result.RowsAffected == 0 {
		return newPaymentError(ErrKindNotFound, "no pending participation to reject", nil)
	}

	var updated models.Participation
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", participationID).Error; err == nil {
		s.realtime.PublishUpdate(ctx, &updated)
	}
	return nil
}
