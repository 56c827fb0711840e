package batches

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/internal/vision"
	"github.com/hcortiz/cotejo/pkg/retry"
)

type memStore struct {
	mu        sync.Mutex
	batchID   uuid.UUID
	items     []Item
	status    string
	cancelled bool

	failCalls     map[uuid.UUID]int
	completeCalls map[uuid.UUID]int
}

func newMemStore(batchID uuid.UUID, count int) *memStore {
	s := &memStore{
		batchID:       batchID,
		failCalls:     map[uuid.UUID]int{},
		completeCalls: map[uuid.UUID]int{},
	}
	for i := 0; i < count; i++ {
		s.items = append(s.items, Item{
			ID:         uuid.New(),
			BatchID:    batchID,
			DocumentID: uuid.New(),
			Status:     ItemPending,
		})
	}
	return s
}

func (s *memStore) PendingItems(_ context.Context, batchID uuid.UUID) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []Item
	for _, item := range s.items {
		if item.Status == ItemPending {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

func (s *memStore) transition(itemID uuid.UUID, to string) error {
	for i := range s.items {
		if s.items[i].ID != itemID {
			continue
		}
		if !CanTransition(s.items[i].Status, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, s.items[i].Status, to)
		}
		s.items[i].Status = to
		return nil
	}
	return ErrNotFound
}

func (s *memStore) MarkProcessing(_ context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(itemID, ItemProcessing)
}

func (s *memStore) CompleteItem(_ context.Context, itemID uuid.UUID, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completeCalls[itemID]++
	return s.transition(itemID, ItemCompleted)
}

func (s *memStore) FailItem(_ context.Context, itemID uuid.UUID, lastError string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failCalls[itemID]++
	if err := s.transition(itemID, ItemFailed); err != nil {
		return err
	}

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].LastError = lastError
		}
	}
	return nil
}

func (s *memStore) IsCancelled(_ context.Context, _ uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled, nil
}

func (s *memStore) SetBatchStatus(_ context.Context, _ uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return nil
}

func (s *memStore) statusCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[string]int{}
	for _, item := range s.items {
		counts[item.Status]++
	}
	return counts
}

var _ Store = (*memStore)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Retryable:   IsRetryable,
	}
}

func TestExecutorCompletesBatch(t *testing.T) {
	batchID := uuid.New()
	store := newMemStore(batchID, 5)

	exec := NewExecutor(store, func(context.Context, uuid.UUID) error {
		return nil
	}, ExecutorConfig{Workers: 2, Retry: fastPolicy(3)}, testLogger())

	if err := exec.Run(context.Background(), batchID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := store.statusCounts()
	if counts[ItemCompleted] != 5 {
		t.Errorf("completed = %d, want 5", counts[ItemCompleted])
	}
	if store.status != BatchCompleted {
		t.Errorf("batch status = %s, want completed", store.status)
	}
}

func TestExecutorFailsOnceAfterRetryCap(t *testing.T) {
	batchID := uuid.New()
	store := newMemStore(batchID, 1)

	var calls atomic.Int32
	exec := NewExecutor(store, func(context.Context, uuid.UUID) error {
		calls.Add(1)
		return fmt.Errorf("%w: 429 from backend", vision.ErrRateLimited)
	}, ExecutorConfig{Workers: 1, Retry: fastPolicy(3)}, testLogger())

	if err := exec.Run(context.Background(), batchID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("runner called %d times, want 3", got)
	}

	itemID := store.items[0].ID
	if store.failCalls[itemID] != 1 {
		t.Errorf("item failed %d times, want exactly 1", store.failCalls[itemID])
	}
	if store.items[0].Status != ItemFailed {
		t.Errorf("item status = %s, want failed", store.items[0].Status)
	}
	if store.items[0].LastError == "" {
		t.Error("terminal failure must record the last error")
	}
}

func TestExecutorNonRetryableFailsImmediately(t *testing.T) {
	batchID := uuid.New()
	store := newMemStore(batchID, 1)

	var calls atomic.Int32
	exec := NewExecutor(store, func(context.Context, uuid.UUID) error {
		calls.Add(1)
		return fmt.Errorf("%w: payload is not a PDF", ErrMalformedInput)
	}, ExecutorConfig{Workers: 1, Retry: fastPolicy(3)}, testLogger())

	if err := exec.Run(context.Background(), batchID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("runner called %d times, want 1 for a non-retryable error", got)
	}
	if store.items[0].Status != ItemFailed {
		t.Errorf("item status = %s, want failed", store.items[0].Status)
	}
}

func TestExecutorHonorsWorkerCap(t *testing.T) {
	batchID := uuid.New()
	store := newMemStore(batchID, 20)

	const workers = 3
	var current, peak atomic.Int32

	exec := NewExecutor(store, func(context.Context, uuid.UUID) error {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return nil
	}, ExecutorConfig{Workers: workers, Retry: fastPolicy(1)}, testLogger())

	if err := exec.Run(context.Background(), batchID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if peak.Load() > workers {
		t.Errorf("observed %d concurrent pipelines, cap is %d", peak.Load(), workers)
	}

	counts := store.statusCounts()
	if counts[ItemCompleted] != 20 {
		t.Errorf("completed = %d, want 20", counts[ItemCompleted])
	}
}

func TestExecutorObservesCancelBetweenItems(t *testing.T) {
	batchID := uuid.New()
	store := newMemStore(batchID, 10)

	var processed atomic.Int32
	exec := NewExecutor(store, func(context.Context, uuid.UUID) error {
		if processed.Add(1) == 2 {
			store.mu.Lock()
			store.cancelled = true
			store.mu.Unlock()
		}
		return nil
	}, ExecutorConfig{Workers: 1, Retry: fastPolicy(1)}, testLogger())

	if err := exec.Run(context.Background(), batchID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := store.statusCounts()
	if counts[ItemCompleted] != 2 {
		t.Errorf("completed = %d, want 2 before cancellation took effect", counts[ItemCompleted])
	}
	if counts[ItemPending] != 8 {
		t.Errorf("pending = %d, want 8 left untouched", counts[ItemPending])
	}
	if store.status != BatchCancelled {
		t.Errorf("batch status = %s, want cancelled", store.status)
	}
}
