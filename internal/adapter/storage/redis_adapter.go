package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

const (
	inventoryKey      = "dispenser:inventory"
	noteFieldPrefix   = "note:"
	versionField      = "version"
	idempotencyKeyTTL = 24 * time.Hour
)

// setInventoryScript replaces the mirrored inventory. Unless ARGV[1] is "1" (force), the write
// is skipped when a snapshot with the same or a newer version is already stored. ARGV[2] is the
// version, then denomination/count pairs.
var setInventoryScript = redis.NewScript(`
local key = KEYS[1]
local force = ARGV[1] == '1'
local version = tonumber(ARGV[2])

if not force then
	local current = redis.call('HGET', key, 'version')
	if current and tonumber(current) >= version then
		return 0
	end
end

redis.call('DEL', key)
redis.call('HSET', key, 'version', version)
for i = 3, #ARGV, 2 do
	redis.call('HSET', key, 'note:' .. ARGV[i], ARGV[i + 1])
end

return 1
`)

type RedisAdapter struct {
	client *redis.Client
	key    string
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client, key: inventoryKey}
}

// WithKey returns a copy that mirrors under key, so several dispensers can share one Redis.
func (r *RedisAdapter) WithKey(key string) *RedisAdapter {
	return &RedisAdapter{client: r.client, key: key}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) SetInventory(ctx context.Context, snapshot domain.InventorySnapshot) (bool, error) {
	return r.writeInventory(ctx, snapshot, false)
}

// ReplaceInventory overwrites the mirror whatever version it holds. A restarted engine counts
// versions from zero again, so its first snapshot has to replace the previous run's.
func (r *RedisAdapter) ReplaceInventory(ctx context.Context, snapshot domain.InventorySnapshot) error {
	_, err := r.writeInventory(ctx, snapshot, true)
	return err
}

func (r *RedisAdapter) writeInventory(ctx context.Context, snapshot domain.InventorySnapshot, force bool) (bool, error) {
	forceArg := "0"
	if force {
		forceArg = "1"
	}

	args := make([]interface{}, 0, 2+2*len(snapshot.Levels))
	args = append(args, forceArg, snapshot.Version)
	for _, l := range snapshot.Levels {
		args = append(args, int(l.Denomination), l.Count)
	}

	result, err := setInventoryScript.Run(ctx, r.client, []string{r.key}, args...).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

func (r *RedisAdapter) GetInventory(ctx context.Context) (*domain.InventorySnapshot, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var snap domain.InventorySnapshot
	for field, value := range fields {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", field, err)
		}

		if field == versionField {
			snap.Version = n
			continue
		}
		if !strings.HasPrefix(field, noteFieldPrefix) {
			continue
		}
		d, err := strconv.Atoi(strings.TrimPrefix(field, noteFieldPrefix))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", field, err)
		}
		snap.Levels = append(snap.Levels, domain.StockLevel{Denomination: domain.Denomination(d), Count: int(n)})
	}

	sort.Slice(snap.Levels, func(i, j int) bool {
		return snap.Levels[i].Denomination < snap.Levels[j].Denomination
	})
	return &snap, nil
}
