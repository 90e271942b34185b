package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

type Config struct {
	// Servers
	HTTPPort string
	GRPCPort string

	// Inventory
	Notes           []domain.StockLevel
	InventoryFile   string
	FeasibilityGate string

	// MySQL withdrawal journal, disabled when empty
	MySQLDSN string

	// Redis inventory mirror and idempotency keys, disabled when empty
	RedisAddr string

	// AMQP withdrawal events, disabled when empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Journal workers
	WorkerCount int
	QueueSize   int

	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

const defaultNotes = "20:10,50:20"

// Load reads envFile when it exists, then the environment. Values already set in the
// environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "50051"),

		InventoryFile:   getEnv("INVENTORY_FILE", ""),
		FeasibilityGate: getEnv("FEASIBILITY_GATE", "auto"),

		MySQLDSN:  getEnv("MYSQL_DSN", ""),
		RedisAddr: getEnv("REDIS_ADDR", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dispenser"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "withdrawals"),

		WorkerCount: getEnvInt("WORKER_COUNT", 4),
		QueueSize:   getEnvInt("QUEUE_SIZE", 1000),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}

	notes, err := ParseNotes(getEnv("DISPENSER_NOTES", defaultNotes))
	if err != nil {
		return nil, fmt.Errorf("DISPENSER_NOTES: %w", err)
	}
	cfg.Notes = notes

	if cfg.InventoryFile != "" {
		if err := cfg.LoadInventoryFile(cfg.InventoryFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ParseNotes parses "denomination:count" pairs separated by commas, e.g. "20:10,50:20".
func ParseNotes(s string) ([]domain.StockLevel, error) {
	var levels []domain.StockLevel
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		d, c, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid note entry %q: want denomination:count", pair)
		}
		denomination, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil {
			return nil, fmt.Errorf("invalid denomination in %q: %w", pair, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("invalid count in %q: %w", pair, err)
		}
		levels = append(levels, domain.StockLevel{Denomination: domain.Denomination(denomination), Count: count})
	}
	if len(levels) == 0 {
		return nil, errors.New("no notes configured")
	}
	return levels, nil
}

type inventoryFile struct {
	Gate  string              `yaml:"gate"`
	Notes []domain.StockLevel `yaml:"notes"`
}

// LoadInventoryFile replaces Notes (and FeasibilityGate, when set) with the content of a YAML
// file of the form:
//
//	gate: legacy
//	notes:
//	  - denomination: 20
//	    count: 10
func (c *Config) LoadInventoryFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read inventory file: %w", err)
	}

	var f inventoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse inventory file %s: %w", path, err)
	}
	if len(f.Notes) == 0 {
		return fmt.Errorf("inventory file %s lists no notes", path)
	}

	c.Notes = f.Notes
	if f.Gate != "" {
		c.FeasibilityGate = f.Gate
	}
	c.InventoryFile = path
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	ports := []struct{ name, value string }{
		{"HTTP", c.HTTPPort},
		{"gRPC", c.GRPCPort},
	}
	for _, port := range ports {
		if p, err := strconv.Atoi(port.value); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s port '%s': must be a number", port.name, port.value))
		} else if p < 1 || p > 65535 {
			errs = append(errs, fmt.Sprintf("invalid %s port %d: must be between 1 and 65535", port.name, p))
		}
	}
	if c.HTTPPort == c.GRPCPort {
		errs = append(errs, fmt.Sprintf("HTTP and gRPC ports must differ, both are %s", c.HTTPPort))
	}

	for i, l := range c.Notes {
		if l.Denomination <= 0 {
			errs = append(errs, fmt.Sprintf("invalid denomination %d: must be positive", l.Denomination))
		}
		if l.Count < 0 {
			errs = append(errs, fmt.Sprintf("invalid count %d for denomination %d: must not be negative", l.Count, l.Denomination))
		}
		if i > 0 && l.Denomination <= c.Notes[i-1].Denomination {
			errs = append(errs, fmt.Sprintf("denominations must be strictly ascending, got %d after %d", l.Denomination, c.Notes[i-1].Denomination))
		}
	}
	if len(c.Notes) == 0 {
		errs = append(errs, "at least one denomination is required")
	}

	switch c.FeasibilityGate {
	case "auto", "legacy", "exact":
	default:
		errs = append(errs, fmt.Sprintf("invalid feasibility gate '%s': must be one of [auto legacy exact]", c.FeasibilityGate))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.WorkerCount < 1 || c.WorkerCount > 64 {
		errs = append(errs, fmt.Sprintf("invalid worker count %d: must be between 1 and 64", c.WorkerCount))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid queue size %d: must be at least 1", c.QueueSize))
	}
	if c.ShutdownTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Denominations lists the configured denominations in inventory order.
func (c *Config) Denominations() []domain.Denomination {
	out := make([]domain.Denomination, len(c.Notes))
	for i, l := range c.Notes {
		out[i] = l.Denomination
	}
	return out
}
