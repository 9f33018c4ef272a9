// Package workers holds background jobs that run alongside the HTTP server.
package workers

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/example/arenapix/internal/models"
	"github.com/example/arenapix/internal/services"
)

// ReconcileWorker periodically refetches provider status for stale pending
// charges. It is the server-side safety net for webhook deliveries that never
// arrive; it reuses the webhook's transition logic, so it is just as
// idempotent.
type ReconcileWorker struct {
	db       *gorm.DB
	payments *services.PaymentService
	minAge   time.Duration
}

func NewReconcileWorker(db *gorm.DB, payments *services.PaymentService) *ReconcileWorker {
	return &ReconcileWorker{
		db:       db,
		payments: payments,
		minAge:   2 * time.Minute,
	}
}

// Start schedules the sweep every minute. The returned scheduler should be
// shut down on process exit.
func (w *ReconcileWorker) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			w.sweep(ctx)
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

func (w *ReconcileWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.minAge)

	var stale []models.Participation
	err := w.db.WithContext(ctx).
		Where("payment_status = ? AND mercado_pago_payment_id IS NOT NULL AND payment_created_at < ?",
			models.PaymentStatusPending, cutoff).
		Limit(50).
		Find(&stale).Error
	if err != nil {
		log.Printf("[Reconcile] query failed: %v", err)
		return
	}

	for _, p := range stale {
		status, err := w.payments.ProcessNotification(ctx, *p.MercadoPagoPaymentID)
		if err != nil {
			log.Printf("[Reconcile] participation %s charge %s: %v", p.ID, *p.MercadoPagoPaymentID, err)
			continue
		}
		if status != models.PaymentStatusPending {
			log.Printf("[Reconcile] participation %s converged to %s", p.ID, status)
		}
	}
}
