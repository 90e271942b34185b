package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	snapshot       *domain.InventorySnapshot
	setCalls       int
	failInventory  bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) SetInventory(ctx context.Context, snapshot domain.InventorySnapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setCalls++
	if m.failInventory {
		return false, errors.New("redis down")
	}
	if m.snapshot != nil && m.snapshot.Version >= snapshot.Version {
		return false, nil
	}
	m.snapshot = &snapshot
	return true, nil
}

func (m *mockCacheRepo) ReplaceInventory(ctx context.Context, snapshot domain.InventorySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInventory {
		return errors.New("redis down")
	}
	m.snapshot = &snapshot
	return nil
}

func (m *mockCacheRepo) GetInventory(ctx context.Context) (*domain.InventorySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, nil
}

func newEngine(t *testing.T, twenties, fifties int) *dispenser.Engine {
	t.Helper()
	e, err := dispenser.New([]domain.StockLevel{
		{Denomination: 20, Count: twenties},
		{Denomination: 50, Count: fifties},
	})
	require.NoError(t, err)
	return e
}

func drain(svc *DispenserService) {
	go func() {
		for range svc.JournalQueue() {
		}
	}()
}

func TestWithdraw_Success(t *testing.T) {
	cache := newMockCacheRepo()
	svc := NewDispenserService(newEngine(t, 8, 3), cache, 100, nil)
	defer svc.Close()
	drain(svc)

	w, err := svc.Withdraw(context.Background(), "req-1", 70)
	require.NoError(t, err)

	assert.Equal(t, domain.WithdrawalStatusDispensed, w.Status)
	assert.Equal(t, 70, w.Amount)
	assert.Equal(t, "req-1", w.RequestID)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, domain.Dispensed{{Denomination: 20, Count: 1}, {Denomination: 50, Count: 1}}, w.Notes)

	snap := svc.Inventory(context.Background())
	assert.Equal(t, 7, snap.Count(20))
	assert.Equal(t, 2, snap.Count(50))

	require.NotNil(t, cache.snapshot)
	assert.Equal(t, snap, *cache.snapshot)
}

func TestWithdraw_EngineErrorsPassThrough(t *testing.T) {
	svc := NewDispenserService(newEngine(t, 8, 1), nil, 0, nil)

	w, err := svc.Withdraw(context.Background(), "", 230)
	assert.True(t, errors.Is(err, dispenser.ErrUnsupportedAmount))
	assert.Equal(t, domain.WithdrawalStatusRejected, w.Status)
	assert.Equal(t, "unsupported_amount", w.Reason)

	w, err = svc.Withdraw(context.Background(), "", 300)
	assert.True(t, errors.Is(err, dispenser.ErrInsufficientFunds))
	assert.Equal(t, "insufficient_funds", w.Reason)
	assert.Empty(t, w.Notes)

	snap := svc.Inventory(context.Background())
	assert.Equal(t, int64(0), snap.Version)
	assert.Equal(t, 8, snap.Count(20))
	assert.Equal(t, 1, snap.Count(50))
}

func TestWithdraw_DuplicateRequest(t *testing.T) {
	cache := newMockCacheRepo()
	svc := NewDispenserService(newEngine(t, 8, 3), cache, 100, nil)
	defer svc.Close()
	drain(svc)

	_, err := svc.Withdraw(context.Background(), "req-1", 20)
	require.NoError(t, err)

	_, err = svc.Withdraw(context.Background(), "req-1", 20)
	assert.True(t, errors.Is(err, ErrDuplicateRequest))

	// Stock should only be decremented once
	assert.Equal(t, 7, svc.Inventory(context.Background()).Count(20))
}

func TestWithdraw_MirrorFailureDoesNotFailWithdrawal(t *testing.T) {
	cache := newMockCacheRepo()
	cache.failInventory = true
	svc := NewDispenserService(newEngine(t, 8, 3), cache, 0, nil)

	_, err := svc.Withdraw(context.Background(), "", 40)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.setCalls)
	assert.Equal(t, 6, svc.Inventory(context.Background()).Count(20))
}

func TestWithdraw_Queued(t *testing.T) {
	svc := NewDispenserService(newEngine(t, 8, 3), nil, 10, nil)

	_, err := svc.Withdraw(context.Background(), "req-1", 100)
	require.NoError(t, err)
	_, err = svc.Withdraw(context.Background(), "req-2", 5)
	require.Error(t, err)

	ok := <-svc.JournalQueue()
	assert.Equal(t, domain.WithdrawalStatusDispensed, ok.Status)
	assert.Equal(t, 100, ok.Amount)

	rejected := <-svc.JournalQueue()
	assert.Equal(t, domain.WithdrawalStatusRejected, rejected.Status)
	assert.Equal(t, "req-2", rejected.RequestID)

	svc.Close()
}

func TestWithdraw_QueueFullRespectsContext(t *testing.T) {
	svc := NewDispenserService(newEngine(t, 8, 3), nil, 1, nil)
	defer svc.Close()

	_, err := svc.Withdraw(context.Background(), "", 20)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Queue is full, the entry is dropped but the withdrawal still happened.
	_, err = svc.Withdraw(ctx, "", 20)
	require.NoError(t, err)
	assert.Equal(t, 6, svc.Inventory(context.Background()).Count(20))
}

func TestWithdraw_Concurrent(t *testing.T) {
	twenties, fifties := 20, 10
	svc := NewDispenserService(newEngine(t, twenties, fifties), nil, 0, nil)
	initial := svc.Inventory(context.Background()).Balance()

	var dispensed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := []int{20, 50, 70, 100}[i%4]
			w, err := svc.Withdraw(context.Background(), "", amount)
			if err == nil {
				dispensed.Add(int64(w.Notes.Total()))
			}
		}(i)
	}
	wg.Wait()

	snap := svc.Inventory(context.Background())
	assert.Equal(t, initial, snap.Balance()+int(dispensed.Load()))
	for _, l := range snap.Levels {
		assert.GreaterOrEqual(t, l.Count, 0)
	}
}

func TestSync(t *testing.T) {
	cache := newMockCacheRepo()
	svc := NewDispenserService(newEngine(t, 8, 3), cache, 0, nil)

	require.NoError(t, svc.Sync(context.Background()))
	require.NotNil(t, cache.snapshot)
	assert.Equal(t, 310, cache.snapshot.Balance())
}

func TestSync_ReplacesNewerMirrorFromPreviousRun(t *testing.T) {
	cache := newMockCacheRepo()
	// Left behind by a process that committed three withdrawals.
	cache.snapshot = &domain.InventorySnapshot{
		Version: 3,
		Levels:  []domain.StockLevel{{Denomination: 20, Count: 7}, {Denomination: 50, Count: 20}},
	}

	svc := NewDispenserService(newEngine(t, 10, 20), cache, 0, nil)
	require.NoError(t, svc.Sync(context.Background()))

	require.NotNil(t, cache.snapshot)
	assert.Equal(t, int64(0), cache.snapshot.Version)
	assert.Equal(t, 10, cache.snapshot.Count(20))

	_, err := svc.Withdraw(context.Background(), "", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cache.snapshot.Version)
	assert.Equal(t, 9, cache.snapshot.Count(20))
}
