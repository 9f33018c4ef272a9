package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses for a participation. Provider statuses outside the
// mapping table always land on pending.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Participation is one user's registration for one tournament, carrying the
// payment lifecycle state. The provider payment id is set once at charge
// creation; the unique token is minted once, on the first transition to paid;
// the slot number is assigned once the payment is confirmed.
type Participation struct {
	BaseModel
	UserID       uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User         *User       `json:"user,omitempty"`
	TournamentID uuid.UUID   `gorm:"type:uuid;index" json:"tournament_id"`
	Tournament   *Tournament `json:"tournament,omitempty"`

	PaymentStatus        string     `gorm:"default:'pending';index" json:"payment_status"`
	MercadoPagoPaymentID *string    `gorm:"column:mercado_pago_payment_id;index" json:"mercado_pago_payment_id"`
	PaymentCreatedAt     *time.Time `json:"payment_created_at"`
	UniqueToken          *string    `gorm:"uniqueIndex" json:"unique_token"`
	SlotNumber           *int       `json:"slot_number"`

	AmountDue   float64    `json:"amount_due"`
	PromoCodeID *uuid.UUID `gorm:"type:uuid" json:"promo_code_id"`
	PromoCode   *PromoCode `json:"promo_code,omitempty"`
}

// IsPaid reports whether the payment was confirmed.
func (p *Participation) IsPaid() bool {
	return p.PaymentStatus == PaymentStatusPaid
}
