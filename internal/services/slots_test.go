package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/arenapix/internal/models"
)

// openStoreDB opens a throwaway sqlite store with the full schema. sqlite has
// no FOR UPDATE, so services built on it leave their locking clauses empty.
func openStoreDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.PromoCode{},
		&models.Participation{},
		&models.AppSettings{},
	); err != nil {
		t.Fatalf("migrating store: %v", err)
	}

	return db
}

func seedTournament(t *testing.T, db *gorm.DB, maxSlots int) *models.Tournament {
	t.Helper()

	tournament := &models.Tournament{
		Name:     "Copa Teste",
		EntryFee: 25,
		MaxSlots: maxSlots,
		Status:   models.TournamentStatusPublished,
	}
	if err := db.Create(tournament).Error; err != nil {
		t.Fatalf("seeding tournament: %v", err)
	}
	return tournament
}

func seedParticipation(t *testing.T, db *gorm.DB, tournament *models.Tournament, status string) *models.Participation {
	t.Helper()

	participation := &models.Participation{
		UserID:        uuid.New(),
		TournamentID:  tournament.ID,
		PaymentStatus: status,
		AmountDue:     tournament.EntryFee,
	}
	if err := db.Create(participation).Error; err != nil {
		t.Fatalf("seeding participation: %v", err)
	}
	return participation
}

func TestAssignSlotHandsOutSequentialNumbers(t *testing.T) {
	db := openStoreDB(t)
	slots := &SlotService{db: db}
	tournament := seedTournament(t, db, 3)

	first := seedParticipation(t, db, tournament, models.PaymentStatusPaid)
	second := seedParticipation(t, db, tournament, models.PaymentStatusPaid)

	got, err := slots.AssignSlot(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("first assignment: %v", err)
	}
	if got != 1 {
		t.Fatalf("first slot = %d, want 1", got)
	}

	got, err = slots.AssignSlot(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("second assignment: %v", err)
	}
	if got != 2 {
		t.Fatalf("second slot = %d, want 2", got)
	}
}

func TestAssignSlotIsANoOpWhenSlotAlreadyHeld(t *testing.T) {
	db := openStoreDB(t)
	slots := &SlotService{db: db}
	tournament := seedTournament(t, db, 0)

	participation := seedParticipation(t, db, tournament, models.PaymentStatusPaid)

	first, err := slots.AssignSlot(context.Background(), participation.ID)
	if err != nil {
		t.Fatalf("first assignment: %v", err)
	}

	again, err := slots.AssignSlot(context.Background(), participation.ID)
	if err != nil {
		t.Fatalf("repeat assignment: %v", err)
	}
	if again != first {
		t.Fatalf("repeat assignment returned %d, want existing slot %d", again, first)
	}

	var stored models.Participation
	if err := db.First(&stored, "id = ?", participation.ID).Error; err != nil {
		t.Fatalf("reloading participation: %v", err)
	}
	if stored.SlotNumber == nil || *stored.SlotNumber != first {
		t.Fatalf("stored slot = %v, want %d", stored.SlotNumber, first)
	}

	// The no-op must not have burned a number for the next allocation.
	next := seedParticipation(t, db, tournament, models.PaymentStatusPaid)
	got, err := slots.AssignSlot(context.Background(), next.ID)
	if err != nil {
		t.Fatalf("next assignment: %v", err)
	}
	if got != first+1 {
		t.Fatalf("next slot = %d, want %d", got, first+1)
	}
}

func TestAssignSlotRejectsUnpaidParticipations(t *testing.T) {
	db := openStoreDB(t)
	slots := &SlotService{db: db}
	tournament := seedTournament(t, db, 0)

	participation := seedParticipation(t, db, tournament, models.PaymentStatusPending)

	if _, err := slots.AssignSlot(context.Background(), participation.ID); err == nil {
		t.Fatal("expected error for unpaid participation")
	}

	var stored models.Participation
	if err := db.First(&stored, "id = ?", participation.ID).Error; err != nil {
		t.Fatalf("reloading participation: %v", err)
	}
	if stored.SlotNumber != nil {
		t.Fatalf("unpaid participation got slot %d", *stored.SlotNumber)
	}
}

func TestAssignSlotStopsAtCapacity(t *testing.T) {
	db := openStoreDB(t)
	slots := &SlotService{db: db}
	tournament := seedTournament(t, db, 1)

	first := seedParticipation(t, db, tournament, models.PaymentStatusPaid)
	overflow := seedParticipation(t, db, tournament, models.PaymentStatusPaid)

	if _, err := slots.AssignSlot(context.Background(), first.ID); err != nil {
		t.Fatalf("first assignment: %v", err)
	}

	if _, err := slots.AssignSlot(context.Background(), overflow.ID); !errors.Is(err, ErrTournamentFull) {
		t.Fatalf("overflow assignment error = %v, want ErrTournamentFull", err)
	}
}
