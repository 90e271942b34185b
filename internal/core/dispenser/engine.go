// Package dispenser decides how to pay out a withdrawal from a fixed stock of notes.
package dispenser

import (
	"fmt"

	"github.com/rl1809/cash-dispenser/internal/core/domain"
	"github.com/rl1809/cash-dispenser/internal/log"
)

// Engine owns the note inventory. It is not safe for concurrent use.
type Engine struct {
	stocks  []*domain.NoteStock
	gate    Gate
	exact   *ExactGate
	version int64
	logger  *log.Logger
}

type Option func(*Engine)

// WithGate replaces the feasibility gate chosen by New.
func WithGate(g Gate) Option {
	return func(e *Engine) { e.gate = g }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine from levels, which must be strictly ascending by denomination with
// positive denominations and non-negative counts.
func New(levels []domain.StockLevel, opts ...Option) (*Engine, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no denominations", ErrInvalidInventory)
	}

	stocks := make([]*domain.NoteStock, 0, len(levels))
	denominations := make([]domain.Denomination, 0, len(levels))
	for i, l := range levels {
		if l.Denomination <= 0 {
			return nil, fmt.Errorf("%w: denomination %d must be positive", ErrInvalidInventory, l.Denomination)
		}
		if l.Count < 0 {
			return nil, fmt.Errorf("%w: negative count %d for denomination %d", ErrInvalidInventory, l.Count, l.Denomination)
		}
		if i > 0 && l.Denomination <= levels[i-1].Denomination {
			return nil, fmt.Errorf("%w: denominations must be strictly ascending, got %d after %d",
				ErrInvalidInventory, l.Denomination, levels[i-1].Denomination)
		}
		stocks = append(stocks, domain.NewNoteStock(l.Denomination, l.Count))
		denominations = append(denominations, l.Denomination)
	}

	gate, _ := GateForName("auto", denominations)
	e := &Engine{
		stocks: stocks,
		gate:   gate,
		exact:  NewExactGate(denominations),
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Withdraw pays out amount exactly or not at all. On failure the inventory is unchanged and the
// error wraps ErrUnsupportedAmount or ErrInsufficientFunds.
func (e *Engine) Withdraw(amount int) (domain.Dispensed, error) {
	if err := e.validate(amount); err != nil {
		return nil, err
	}

	combo, ok := e.findCombination(amount)
	if !ok {
		return nil, fmt.Errorf("withdraw %d: %w", amount, ErrInsufficientFunds)
	}

	return e.commit(combo), nil
}

func (e *Engine) validate(amount int) error {
	if e.gate.Admits(amount) {
		return nil
	}
	if e.exact.Admits(amount) {
		e.logger.Warn("feasibility gate rejected reachable amount",
			"amount", amount,
			"gate", e.gate.Name())
	}
	return fmt.Errorf("withdraw %d: %w", amount, ErrUnsupportedAmount)
}

// commit removes combo from stock. Every position is checked before any note is removed so a
// failure can never leave a partial decrement behind.
func (e *Engine) commit(combo Combination) domain.Dispensed {
	for i, n := range combo {
		if !e.stocks[i].CanRemove(n) {
			panic(fmt.Sprintf("dispenser: commit of %d x %d exceeds stock %d",
				n, e.stocks[i].Denomination(), e.stocks[i].Count()))
		}
	}

	dispensed := make(domain.Dispensed, len(combo))
	for i, n := range combo {
		if err := e.stocks[i].Remove(n); err != nil {
			panic(fmt.Sprintf("dispenser: %v", err))
		}
		dispensed[i] = domain.NoteCount{Denomination: e.stocks[i].Denomination(), Count: n}
	}
	e.version++
	return dispensed
}

// Inventory returns a copy of the current stock in inventory order.
func (e *Engine) Inventory() domain.InventorySnapshot {
	levels := make([]domain.StockLevel, len(e.stocks))
	for i, s := range e.stocks {
		levels[i] = domain.StockLevel{Denomination: s.Denomination(), Count: s.Count()}
	}
	return domain.InventorySnapshot{Version: e.version, Levels: levels}
}

// Balance is the total face value held.
func (e *Engine) Balance() int {
	return e.balance()
}

// Gate returns the name of the feasibility gate in use.
func (e *Engine) Gate() string {
	return e.gate.Name()
}
