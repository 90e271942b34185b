package handler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/core/service"
)

type mockCacheRepo struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockCacheRepo) SetInventory(ctx context.Context, snapshot domain.InventorySnapshot) (bool, error) {
	return true, nil
}

func (m *mockCacheRepo) ReplaceInventory(ctx context.Context, snapshot domain.InventorySnapshot) error {
	return nil
}

func (m *mockCacheRepo) GetInventory(ctx context.Context) (*domain.InventorySnapshot, error) {
	return nil, nil
}

func newService(t *testing.T, twenties, fifties int) *service.DispenserService {
	t.Helper()
	e, err := dispenser.New([]domain.StockLevel{
		{Denomination: 20, Count: twenties},
		{Denomination: 50, Count: fifties},
	})
	require.NoError(t, err)
	return service.NewDispenserService(e, &mockCacheRepo{}, 0, nil)
}
