// Package app wires the dispenser service to its servers and backing stores.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/cash-dispenser/internal/adapter/handler"
	"github.com/rl1809/cash-dispenser/internal/adapter/handler/pb"
	"github.com/rl1809/cash-dispenser/internal/adapter/messaging"
	"github.com/rl1809/cash-dispenser/internal/adapter/storage"
	"github.com/rl1809/cash-dispenser/internal/config"
	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/core/service"
	"github.com/rl1809/cash-dispenser/internal/log"
	"github.com/rl1809/cash-dispenser/internal/port"
)

// NewEngine builds the engine described by cfg.
func NewEngine(cfg *config.Config, logger *log.Logger) (*dispenser.Engine, error) {
	denominations := cfg.Denominations()
	gate, ok := dispenser.GateForName(cfg.FeasibilityGate, denominations)
	if !ok {
		return nil, fmt.Errorf("unknown feasibility gate %q", cfg.FeasibilityGate)
	}

	return dispenser.New(cfg.Notes,
		dispenser.WithGate(gate),
		dispenser.WithLogger(logger.WithComponent("engine")),
	)
}

// Backends holds the optional external stores. Nil fields are disabled.
type Backends struct {
	DB        *sql.DB
	Redis     *redis.Client
	Publisher *messaging.AMQPPublisher
}

// OpenBackends connects to every store cfg names.
func OpenBackends(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.MySQLDSN != "" {
		if err := storage.RunMigrations(cfg.MySQLDSN); err != nil {
			return nil, fmt.Errorf("migrate mysql: %w", err)
		}

		db, err := OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		b.DB = db
		logger.Info("connected to mysql")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 20,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.Redis = rdb
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	}

	if cfg.AMQPURL != "" {
		pub, err := messaging.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		b.Publisher = pub
		logger.Info("connected to amqp", "exchange", cfg.AMQPExchange)
	}

	return b, nil
}

// OpenMySQL connects to the journal database. parseTime is always switched on because the
// journal scans DATETIME columns into time.Time.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn, err := journalDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func journalDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Cache returns the Redis adapter, or a nil interface when Redis is disabled.
func (b *Backends) Cache() port.CacheRepository {
	if b.Redis == nil {
		return nil
	}
	return storage.NewRedisAdapter(b.Redis)
}

// Journal returns the MySQL adapter, or a nil interface when MySQL is disabled.
func (b *Backends) Journal() port.JournalRepository {
	if b.DB == nil {
		return nil
	}
	return storage.NewMySQLAdapter(b.DB)
}

// Events returns the AMQP publisher, or a nil interface when AMQP is disabled.
func (b *Backends) Events() port.EventPublisher {
	if b.Publisher == nil {
		return nil
	}
	return b.Publisher
}

func (b *Backends) Close() {
	if b.Publisher != nil {
		b.Publisher.Close()
	}
	if b.Redis != nil {
		b.Redis.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled, then shuts down in order: servers, journal
// workers, connections.
func Run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	engine, err := NewEngine(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("initialized inventory",
		"balance", engine.Balance(),
		"gate", engine.Gate())

	backends, err := OpenBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		backends.Close()
		logger.Info("connections closed")
	}()

	dispenserService := service.NewDispenserService(engine, backends.Cache(), cfg.QueueSize, logger)
	if err := dispenserService.Sync(ctx); err != nil {
		logger.Warn("failed to mirror initial inventory", "error", err)
	}

	workersDone := StartWorkers(cfg.WorkerCount, dispenserService.JournalQueue(), backends.Journal(), backends.Events(), logger)

	grpcServer := grpc.NewServer()
	pb.RegisterDispenserServer(grpcServer, handler.NewGRPCHandler(dispenserService))

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.NewHTTPHandler(dispenserService, backends.Journal()).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
		return nil
	})

	err = g.Wait()

	dispenserService.Close()
	<-workersDone
	logger.Info("workers stopped")

	return err
}

// StartWorkers runs count journal workers over queue. The returned channel closes once all of
// them have returned, which happens after queue is closed.
func StartWorkers(count int, queue <-chan domain.Withdrawal, journal port.JournalRepository, events port.EventPublisher, logger *log.Logger) <-chan struct{} {
	done := make(chan struct{})
	if queue == nil {
		close(done)
		return done
	}

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := &service.JournalWorker{ID: id, Journal: journal, Publisher: events, Logger: logger}
			w.Run(queue)
		}(i)
	}
	logger.Info("started journal workers", "count", count)

	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}
