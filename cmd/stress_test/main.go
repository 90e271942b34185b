package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cash-dispenser/internal/adapter/storage"
	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/core/service"
	"github.com/rl1809/cash-dispenser/internal/log"
	"github.com/rl1809/cash-dispenser/internal/port"
)

const (
	inventoryKey  = "stress:dispenser:inventory"
	totalRequests = 500
	queueSize     = 100
)

var (
	initialNotes = []domain.StockLevel{
		{Denomination: 20, Count: 200},
		{Denomination: 50, Count: 100},
	}
	amounts = []int{20, 40, 50, 70, 100, 110, 150, 200, 230, 35}
)

func main() {
	ctx := context.Background()
	logger := log.New(log.DefaultConfig()).WithComponent("stress")

	engine, err := dispenser.New(initialNotes, dispenser.WithLogger(log.Discard()))
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	initialBalance := engine.Balance()

	// Redis is optional; when reachable the mirror is checked against the engine at the end.
	var cache port.CacheRepository
	var redisAdapter *storage.RedisAdapter
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		rdb.Del(ctx, inventoryKey)
		redisAdapter = storage.NewRedisAdapter(rdb).WithKey(inventoryKey)
		cache = redisAdapter
	}

	svc := service.NewDispenserService(engine, cache, queueSize, log.Discard())
	if err := svc.Sync(ctx); err != nil {
		logger.Error("failed to mirror initial inventory", "error", err)
		os.Exit(1)
	}

	var dispensedValue atomic.Int64
	var journaled atomic.Int32
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range svc.JournalQueue() {
			journaled.Add(1)
		}
	}()

	var successCount, unsupportedCount, insufficientCount, otherCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			w, err := svc.Withdraw(ctx, uuid.NewString(), amounts[n%len(amounts)])
			switch {
			case err == nil:
				successCount.Add(1)
				dispensedValue.Add(int64(w.Notes.Total()))
			case errors.Is(err, dispenser.ErrUnsupportedAmount):
				unsupportedCount.Add(1)
			case errors.Is(err, dispenser.ErrInsufficientFunds):
				insufficientCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)
	svc.Close()
	<-drained

	final := engine.Inventory()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Balance:  %d\n", initialBalance)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Dispensed:        %d\n", successCount.Load())
	fmt.Printf("Unsupported:      %d\n", unsupportedCount.Load())
	fmt.Printf("Insufficient:     %d\n", insufficientCount.Load())
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Journaled:        %d\n", journaled.Load())
	fmt.Printf("Final Balance:    %d\n", final.Balance())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	failed := false
	check := func(ok bool, pass string, format string, args ...any) {
		if ok {
			fmt.Println("PASS:", pass)
			return
		}
		failed = true
		fmt.Printf("FAIL: "+format+"\n", args...)
	}

	check(int(dispensedValue.Load())+final.Balance() == initialBalance,
		"dispensed value plus remaining balance equals the initial balance",
		"dispensed %d + remaining %d != initial %d", dispensedValue.Load(), final.Balance(), initialBalance)

	negative := false
	for _, l := range final.Levels {
		if l.Count < 0 {
			negative = true
		}
	}
	check(!negative, "no stock went negative", "negative stock in %+v", final.Levels)

	check(int(journaled.Load()) == totalRequests-int(otherCount.Load()),
		"every attempt was journaled",
		"journaled %d of %d attempts", journaled.Load(), totalRequests)

	check(final.Version == int64(successCount.Load()),
		"inventory version counts the successful withdrawals",
		"version %d after %d withdrawals", final.Version, successCount.Load())

	if redisAdapter != nil {
		mirrored, err := redisAdapter.GetInventory(ctx)
		switch {
		case err != nil:
			check(false, "", "read mirrored inventory: %v", err)
		case mirrored == nil:
			check(false, "", "no inventory mirrored under %s", inventoryKey)
		default:
			check(mirrored.Version == final.Version && mirrored.Balance() == final.Balance(),
				"Redis mirror matches the engine",
				"mirror at version %d balance %d, engine at version %d balance %d",
				mirrored.Version, mirrored.Balance(), final.Version, final.Balance())
		}
	}

	if failed {
		os.Exit(1)
	}
}
