package watcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/arenapix/internal/services"
)

type fakeSubscription struct {
	updates chan services.ParticipationUpdate
	closed  atomic.Bool
}

func (s *fakeSubscription) Updates() <-chan services.ParticipationUpdate { return s.updates }

func (s *fakeSubscription) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeSubscriber struct {
	sub *fakeSubscription
	err error
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, participationID string) (Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

func pendingStatus(ctx context.Context, id string) (*services.StatusResult, error) {
	return &services.StatusResult{Status: "pending"}, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestAwait_ResolvesFromPoll(t *testing.T) {
	var polls atomic.Int32
	status := func(ctx context.Context, id string) (*services.StatusResult, error) {
		if polls.Add(1) < 2 {
			return &services.StatusResult{Status: "pending"}, nil
		}
		return &services.StatusResult{
			Status:     "paid",
			Token:      strPtr("JPG-FF-AAAAA"),
			IsPaid:     true,
			SlotNumber: intPtr(7),
		}, nil
	}

	w := New(nil, status, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := w.Await(ctx, "p1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if result.Token != "JPG-FF-AAAAA" {
		t.Errorf("token = %q", result.Token)
	}
	if result.SlotNumber == nil || *result.SlotNumber != 7 {
		t.Errorf("slot = %v, want 7", result.SlotNumber)
	}
}

func TestAwait_ResolvesFromSubscription(t *testing.T) {
	sub := &fakeSubscription{updates: make(chan services.ParticipationUpdate, 1)}
	sub.updates <- services.ParticipationUpdate{
		ParticipationID: "p1",
		PaymentStatus:   "paid",
		UniqueToken:     strPtr("JPG-FF-BBBBB"),
	}

	// Poll interval far beyond the test deadline: only the push path can win.
	w := New(&fakeSubscriber{sub: sub}, pendingStatus, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := w.Await(ctx, "p1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if result.Token != "JPG-FF-BBBBB" {
		t.Errorf("token = %q", result.Token)
	}
	if !sub.closed.Load() {
		t.Error("subscription was not released on exit")
	}
}

func TestAwait_IgnoresNonPaidUpdates(t *testing.T) {
	sub := &fakeSubscription{updates: make(chan services.ParticipationUpdate, 2)}
	sub.updates <- services.ParticipationUpdate{ParticipationID: "p1", PaymentStatus: "pending"}
	sub.updates <- services.ParticipationUpdate{
		ParticipationID: "p1",
		PaymentStatus:   "paid",
		UniqueToken:     strPtr("JPG-FF-CCCCC"),
	}

	w := New(&fakeSubscriber{sub: sub}, pendingStatus, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := w.Await(ctx, "p1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if result.Token != "JPG-FF-CCCCC" {
		t.Errorf("token = %q", result.Token)
	}
}

func TestAwait_CommitsExactlyOnceWhenBothFire(t *testing.T) {
	sub := &fakeSubscription{updates: make(chan services.ParticipationUpdate, 1)}
	sub.updates <- services.ParticipationUpdate{
		ParticipationID: "p1",
		PaymentStatus:   "paid",
		UniqueToken:     strPtr("JPG-FF-DDDDD"),
	}

	paidStatus := func(ctx context.Context, id string) (*services.StatusResult, error) {
		return &services.StatusResult{
			Status: "paid",
			Token:  strPtr("JPG-FF-DDDDD"),
			IsPaid: true,
		}, nil
	}

	// Both paths observe paid immediately; the result cell must be
	// assigned exactly once and Await must still return cleanly.
	w := New(&fakeSubscriber{sub: sub}, paidStatus, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := w.Await(ctx, "p1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if result.Token != "JPG-FF-DDDDD" {
		t.Errorf("token = %q", result.Token)
	}
}

func TestAwait_CancelReleasesEverything(t *testing.T) {
	sub := &fakeSubscription{updates: make(chan services.ParticipationUpdate)}
	w := New(&fakeSubscriber{sub: sub}, pendingStatus, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := w.Await(ctx, "p1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !sub.closed.Load() {
		t.Error("subscription was not released on cancellation")
	}
}

func TestAwait_FallsBackToPollWhenSubscribeFails(t *testing.T) {
	paidStatus := func(ctx context.Context, id string) (*services.StatusResult, error) {
		return &services.StatusResult{
			Status: "paid",
			Token:  strPtr("JPG-FF-EEEEE"),
			IsPaid: true,
		}, nil
	}

	w := New(&fakeSubscriber{err: errors.New("redis down")}, paidStatus, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := w.Await(ctx, "p1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if result.Token != "JPG-FF-EEEEE" {
		t.Errorf("token = %q", result.Token)
	}
}
