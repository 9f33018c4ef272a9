package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/example/arenapix/internal/models"
)

// ParticipationUpdate is the payload published on every payment-state change.
type ParticipationUpdate struct {
	ParticipationID string  `json:"participation_id"`
	PaymentStatus   string  `json:"payment_status"`
	UniqueToken     *string `json:"unique_token"`
	SlotNumber      *int    `json:"slot_number"`
}

// UpdateChannel returns the Redis channel carrying updates for one
// participation.
func UpdateChannel(participationID string) string {
	return "participations:" + participationID
}

// RealtimeService pushes participation updates to Redis so clients awaiting
// payment can react without polling. Best effort: a publish failure is logged
// and dropped, the client poll covers the gap.
type RealtimeService struct {
	rdb *redis.Client
}

// NewRealtimeService wraps the Redis client; rdb may be nil, which disables
// publishing entirely.
func NewRealtimeService(rdb *redis.Client) *RealtimeService {
	return &RealtimeService{rdb: rdb}
}

// PublishUpdate broadcasts the participation's current payment state.
func (s *RealtimeService) PublishUpdate(ctx context.Context, p *models.Participation) {
	if s == nil || s.rdb == nil {
		return
	}

	payload, err := json.Marshal(ParticipationUpdate{
		ParticipationID: p.ID.String(),
		PaymentStatus:   p.PaymentStatus,
		UniqueToken:     p.UniqueToken,
		SlotNumber:      p.SlotNumber,
	})
	if err != nil {
		return
	}

	if err := s.rdb.Publish(ctx, UpdateChannel(p.ID.String()), payload).Err(); err != nil {
		log.Printf("[Realtime] publish failed for participation %s: %v", p.ID, err)
	}
}
