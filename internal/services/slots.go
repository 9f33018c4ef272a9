package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/arenapix/internal/models"
)

// ErrTournamentFull is returned when every slot is taken.
var ErrTournamentFull = errors.New("tournament has no free slots")

// SlotService assigns slot numbers to paid participations.
type SlotService struct {
	db *gorm.DB
	// locking is applied to the rows read inside the allocation
	// transaction. Empty on stores without FOR UPDATE support.
	locking []clause.Expression
}

func NewSlotService(db *gorm.DB) *SlotService {
	return &SlotService{
		db:      db,
		locking: []clause.Expression{clause.Locking{Strength: "UPDATE"}},
	}
}

// AssignSlot gives the participation the next free slot number within its
// tournament. Idempotent: a participation that already holds a slot keeps it.
// The tournament row is locked before the highest slot is read, so concurrent
// allocations in the same tournament serialize and cannot hand out the same
// number. Participation rows are always locked before the tournament row,
// keeping the lock order consistent across callers.
func (s *SlotService) AssignSlot(ctx context.Context, participationID uuid.UUID) (int, error) {
	var assigned int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var participation models.Participation
		if err := tx.Clauses(s.locking...).
			First(&participation, "id = ?", participationID).Error; err != nil {
			return err
		}

		if participation.SlotNumber != nil {
			assigned = *participation.SlotNumber
			return nil
		}

		if !participation.IsPaid() {
			return fmt.Errorf("participation %s is not paid", participationID)
		}

		var tournament models.Tournament
		if err := tx.Clauses(s.locking...).
			First(&tournament, "id = ?", participation.TournamentID).Error; err != nil {
			return err
		}

		var maxSlot int
		if err := tx.Model(&models.Participation{}).
			Where("tournament_id = ?", participation.TournamentID).
			Select("COALESCE(MAX(slot_number), 0)").
			Scan(&maxSlot).Error; err != nil {
			return err
		}

		next := maxSlot + 1
		if tournament.MaxSlots > 0 && next > tournament.MaxSlots {
			return ErrTournamentFull
		}

		if err := tx.Model(&models.Participation{}).
			Where("id = ?", participation.ID).
			Update("slot_number", next).Error; err != nil {
			return err
		}

		assigned = next
		return nil
	})
	return assigned, err
}
