package domain

import "time"

type WithdrawalStatus string

const (
	WithdrawalStatusDispensed WithdrawalStatus = "dispensed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// NoteCount is the number of notes of one denomination handed out.
type NoteCount struct {
	Denomination Denomination `json:"denomination"`
	Count        int          `json:"count"`
}

// Dispensed holds one NoteCount per inventory position, in inventory order.
// Positions that were not used carry a zero count.
type Dispensed []NoteCount

func (d Dispensed) Total() int {
	total := 0
	for _, n := range d {
		total += int(n.Denomination) * n.Count
	}
	return total
}

func (d Dispensed) Notes() int {
	notes := 0
	for _, n := range d {
		notes += n.Count
	}
	return notes
}

// NonZero drops the positions that dispense nothing.
func (d Dispensed) NonZero() Dispensed {
	out := make(Dispensed, 0, len(d))
	for _, n := range d {
		if n.Count > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Withdrawal is the journal record of one withdrawal attempt.
type Withdrawal struct {
	ID        string
	RequestID string
	Amount    int
	Notes     Dispensed
	Status    WithdrawalStatus
	Reason    string
	Version   int64 // inventory version after the attempt
	CreatedAt time.Time
}
