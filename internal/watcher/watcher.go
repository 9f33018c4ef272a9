// Package watcher implements the client-side payment reconciliation loop: a
// realtime subscription and a fixed-interval poll race to observe the first
// transition to paid, commit it exactly once, and tear each other down.
package watcher

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/arenapix/internal/services"
)

const defaultPollInterval = 10 * time.Second

// Result is the single-assignment outcome of awaiting a payment.
type Result struct {
	Status     string
	Token      string
	SlotNumber *int
}

// StatusFunc polls the current payment state, typically backed by the
// status/repair endpoint.
type StatusFunc func(ctx context.Context, participationID string) (*services.StatusResult, error)

// Subscription delivers pushed participation updates until closed.
type Subscription interface {
	Updates() <-chan services.ParticipationUpdate
	Close() error
}

// Subscriber opens a change-notification subscription for one participation.
type Subscriber interface {
	Subscribe(ctx context.Context, participationID string) (Subscription, error)
}

// Watcher awaits the paid transition of a participation.
type Watcher struct {
	subscriber Subscriber // nil disables the push path
	status     StatusFunc
	interval   time.Duration
}

// New builds a Watcher. subscriber may be nil, leaving only the poll path.
func New(subscriber Subscriber, status StatusFunc, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{subscriber: subscriber, status: status, interval: interval}
}

// Await blocks until the participation is observed paid or ctx is cancelled.
// Both the subscription callback and the poll feed a single commit guarded by
// a sync.Once, so near-simultaneous signals cannot double-transition; the
// losing task is cancelled and every exit path releases the subscription and
// stops the ticker.
func (w *Watcher) Await(ctx context.Context, participationID string) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		resultCh = make(chan *Result, 1)
	)
	commit := func(r *Result) {
		once.Do(func() {
			resultCh <- r
			cancel()
		})
	}

	var wg sync.WaitGroup

	if w.subscriber != nil {
		sub, err := w.subscriber.Subscribe(ctx, participationID)
		if err != nil {
			log.Printf("[Watcher] subscription unavailable for %s, falling back to poll only: %v", participationID, err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sub.Close()
				for {
					select {
					case <-ctx.Done():
						return
					case update, ok := <-sub.Updates():
						if !ok {
							return
						}
						if r, done := resultFromUpdate(update); done {
							commit(r)
							return
						}
					}
				}
			}()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			// Poll immediately, then on each tick: the webhook may have
			// landed before the watcher even started.
			status, err := w.status(ctx, participationID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[Watcher] status poll failed for %s: %v", participationID, err)
			} else if status.IsPaid {
				token := ""
				if status.Token != nil {
					token = *status.Token
				}
				commit(&Result{Status: status.Status, Token: token, SlotNumber: status.SlotNumber})
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	defer wg.Wait()

	select {
	case r := <-resultCh:
		return r, nil
	case <-ctx.Done():
		select {
		case r := <-resultCh:
			return r, nil
		default:
		}
		return nil, ctx.Err()
	}
}

func resultFromUpdate(update services.ParticipationUpdate) (*Result, bool) {
	if update.PaymentStatus != "paid" {
		return nil, false
	}
	token := ""
	if update.UniqueToken != nil {
		token = *update.UniqueToken
	}
	return &Result{Status: update.PaymentStatus, Token: token, SlotNumber: update.SlotNumber}, true
}
