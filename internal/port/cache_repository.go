package port

import (
	"context"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// SetInventory mirrors a snapshot, returns false if a newer version is already stored
	SetInventory(ctx context.Context, snapshot domain.InventorySnapshot) (bool, error)

	// ReplaceInventory mirrors a snapshot regardless of the stored version
	ReplaceInventory(ctx context.Context, snapshot domain.InventorySnapshot) error

	// GetInventory reads the mirrored snapshot, nil if none was stored
	GetInventory(ctx context.Context) (*domain.InventorySnapshot, error)
}
