package dispenser

import "github.com/rl1809/cash-dispenser/internal/core/domain"

// Gate is a cheap pre-check that rejects some impossible amounts before the search runs.
type Gate interface {
	Admits(amount int) bool
	Name() string
}

// legacyMultiples are the sums reachable with a handful of 20 and 50 notes.
var legacyMultiples = []int{20, 50, 70, 90, 110, 130}

// LegacyGate admits multiples of 10 that are also a multiple of one of 20, 50, 70, 90, 110 or
// 130. It is tuned for the {20, 50} note set and is not a complete reachability test: 230 is
// rejected although 4x20 + 3x50 makes it.
type LegacyGate struct{}

func (LegacyGate) Name() string { return "legacy" }

func (LegacyGate) Admits(amount int) bool {
	if amount%10 != 0 {
		return false
	}
	for _, m := range legacyMultiples {
		if amount%m == 0 {
			return true
		}
	}
	return false
}

// ExactGate admits exactly the amounts that some non-negative combination of its
// denominations reaches, ignoring stock.
type ExactGate struct {
	units    []int // denominations divided by gcd
	gcd      int
	boundary int // every reduced amount >= boundary is reachable
}

func NewExactGate(denominations []domain.Denomination) *ExactGate {
	g := 0
	for _, d := range denominations {
		g = gcd(g, int(d))
	}
	if g == 0 {
		return &ExactGate{}
	}

	units := make([]int, 0, len(denominations))
	lo, hi := 0, 0
	for _, d := range denominations {
		u := int(d) / g
		units = append(units, u)
		if lo == 0 || u < lo {
			lo = u
		}
		if u > hi {
			hi = u
		}
	}

	// Schur: with gcd 1 every integer >= (lo-1)(hi-1) is representable.
	return &ExactGate{units: units, gcd: g, boundary: (lo - 1) * (hi - 1)}
}

func (g *ExactGate) Name() string { return "exact" }

func (g *ExactGate) Admits(amount int) bool {
	if amount < 0 || g.gcd == 0 {
		return false
	}
	if amount%g.gcd != 0 {
		return false
	}
	m := amount / g.gcd
	if m >= g.boundary {
		return true
	}

	reachable := make([]bool, m+1)
	reachable[0] = true
	for v := 1; v <= m; v++ {
		for _, u := range g.units {
			if u <= v && reachable[v-u] {
				reachable[v] = true
				break
			}
		}
	}
	return reachable[m]
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// isLegacySet reports whether the inventory is the {20, 50} set LegacyGate was tuned for.
func isLegacySet(denominations []domain.Denomination) bool {
	return len(denominations) == 2 && denominations[0] == 20 && denominations[1] == 50
}

// GateForName resolves "legacy", "exact" or "auto". Auto keeps LegacyGate for {20, 50} and
// uses ExactGate for anything else.
func GateForName(name string, denominations []domain.Denomination) (Gate, bool) {
	switch name {
	case "legacy":
		return LegacyGate{}, true
	case "exact":
		return NewExactGate(denominations), true
	case "", "auto":
		if isLegacySet(denominations) {
			return LegacyGate{}, true
		}
		return NewExactGate(denominations), true
	}
	return nil, false
}
