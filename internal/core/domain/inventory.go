package domain

import (
	"errors"
	"fmt"
)

var ErrNotEnoughNotes = errors.New("not enough notes")

// Denomination is the face value of a note type.
type Denomination int

// NoteStock is the number of notes of one denomination held by the dispenser.
type NoteStock struct {
	denomination Denomination
	count        int
}

func NewNoteStock(denomination Denomination, count int) *NoteStock {
	return &NoteStock{denomination: denomination, count: count}
}

func (s *NoteStock) Denomination() Denomination {
	return s.denomination
}

func (s *NoteStock) Count() int {
	return s.count
}

// Value is the total face value of the notes in stock.
func (s *NoteStock) Value() int {
	return int(s.denomination) * s.count
}

func (s *NoteStock) CanRemove(n int) bool {
	return s.count-n >= 0
}

// Remove takes n notes out of stock. Stock is left untouched when fewer than n notes are held.
func (s *NoteStock) Remove(n int) error {
	if !s.CanRemove(n) {
		return fmt.Errorf("remove %d x %d from %d: %w", n, s.denomination, s.count, ErrNotEnoughNotes)
	}
	s.count -= n
	return nil
}

// StockLevel is a read-only copy of a NoteStock.
type StockLevel struct {
	Denomination Denomination `json:"denomination" yaml:"denomination"`
	Count        int          `json:"count" yaml:"count"`
}

// InventorySnapshot is the ordered inventory at a given commit version.
// Version starts at 0 and grows by one with every committed withdrawal.
type InventorySnapshot struct {
	Version int64        `json:"version"`
	Levels  []StockLevel `json:"notes"`
}

func (s InventorySnapshot) Balance() int {
	total := 0
	for _, l := range s.Levels {
		total += int(l.Denomination) * l.Count
	}
	return total
}

// Count returns the count held for d, or 0 when d is not stocked.
func (s InventorySnapshot) Count(d Denomination) int {
	for _, l := range s.Levels {
		if l.Denomination == d {
			return l.Count
		}
	}
	return 0
}
