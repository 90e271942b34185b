package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/log"
	"github.com/rl1809/cash-dispenser/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

// DispenserService serialises withdrawals against one engine and hands the outcome to the
// cache mirror and the journal queue.
type DispenserService struct {
	mu           sync.Mutex
	engine       *dispenser.Engine
	cache        port.CacheRepository
	journalQueue chan domain.Withdrawal
	logger       *log.Logger
	now          func() time.Time
}

// NewDispenserService wires engine to an optional cache. A queueSize of zero disables the
// journal queue; otherwise the caller must drain JournalQueue.
func NewDispenserService(engine *dispenser.Engine, cache port.CacheRepository, queueSize int, logger *log.Logger) *DispenserService {
	if logger == nil {
		logger = log.Discard()
	}
	s := &DispenserService{
		engine: engine,
		cache:  cache,
		logger: logger.WithComponent("dispenser-service"),
		now:    time.Now,
	}
	if queueSize > 0 {
		s.journalQueue = make(chan domain.Withdrawal, queueSize)
	}
	return s
}

// Withdraw dispenses amount. requestID is optional; when set and a cache is configured, a
// replayed requestID fails with ErrDuplicateRequest before the engine is touched. Engine errors
// are returned as is, alongside the rejected journal record.
func (s *DispenserService) Withdraw(ctx context.Context, requestID string, amount int) (domain.Withdrawal, error) {
	if requestID != "" && s.cache != nil {
		ok, err := s.cache.SetIdempotency(ctx, "withdraw:"+requestID)
		if err != nil {
			return domain.Withdrawal{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.Withdrawal{}, ErrDuplicateRequest
		}
	}

	s.mu.Lock()
	dispensed, werr := s.engine.Withdraw(amount)
	snapshot := s.engine.Inventory()
	s.mu.Unlock()

	w := domain.Withdrawal{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Amount:    amount,
		Notes:     dispensed,
		Status:    domain.WithdrawalStatusDispensed,
		Version:   snapshot.Version,
		CreatedAt: s.now(),
	}

	if werr != nil {
		w.Status = domain.WithdrawalStatusRejected
		w.Reason = reason(werr)
		s.logger.InfoContext(ctx, "withdrawal rejected",
			"withdrawal_id", w.ID,
			"amount", amount,
			"reason", w.Reason)
		s.enqueue(ctx, w)
		return w, werr
	}

	s.logger.InfoContext(ctx, "withdrawal dispensed",
		"withdrawal_id", w.ID,
		"amount", amount,
		"notes", dispensed.Notes(),
		"version", snapshot.Version)

	s.mirror(ctx, snapshot)
	s.enqueue(ctx, w)

	return w, nil
}

// Inventory returns the engine's current stock.
func (s *DispenserService) Inventory(ctx context.Context) domain.InventorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Inventory()
}

// Sync pushes the current snapshot to the cache, used once at start-up. It overwrites whatever
// an earlier process left behind, since that mirror may carry higher versions.
func (s *DispenserService) Sync(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.ReplaceInventory(ctx, s.Inventory(ctx))
}

func (s *DispenserService) JournalQueue() <-chan domain.Withdrawal {
	return s.journalQueue
}

func (s *DispenserService) Close() {
	if s.journalQueue != nil {
		close(s.journalQueue)
	}
}

// mirror is best effort: the engine stays the authority on stock.
func (s *DispenserService) mirror(ctx context.Context, snapshot domain.InventorySnapshot) {
	if s.cache == nil {
		return
	}
	stored, err := s.cache.SetInventory(ctx, snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mirror inventory", "version", snapshot.Version, "error", err)
		return
	}
	if !stored {
		s.logger.DebugContext(ctx, "newer inventory already mirrored", "version", snapshot.Version)
	}
}

func (s *DispenserService) enqueue(ctx context.Context, w domain.Withdrawal) {
	if s.journalQueue == nil {
		return
	}
	select {
	case s.journalQueue <- w:
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "journal entry dropped", "withdrawal_id", w.ID, "error", ctx.Err())
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, dispenser.ErrUnsupportedAmount):
		return "unsupported_amount"
	case errors.Is(err, dispenser.ErrInsufficientFunds):
		return "insufficient_funds"
	}
	return "error"
}
