package dispenser

// Combination holds one note count per inventory position.
type Combination []int

type searchState struct {
	pos   int // lowest position this state may still increment
	combo Combination
	sum   int
}

// findCombination walks the combination tree depth first and returns the first combination
// whose value equals amount. A state at position p only has children that increment a
// position >= p, so every combination is reached by exactly one path and the tree is finite:
// each step adds at least the smallest denomination, so depth <= amount / smallest.
//
// Children are pushed highest position first so the lowest position is explored first. The
// result is therefore the combination that uses as many low notes as possible before moving on.
func (e *Engine) findCombination(amount int) (Combination, bool) {
	if amount > e.balance() {
		return nil, false
	}

	n := len(e.stocks)
	stack := []searchState{{pos: 0, combo: make(Combination, n), sum: 0}}

	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if st.sum == amount {
			return st.combo, true
		}

		for i := n - 1; i >= st.pos; i-- {
			stock := e.stocks[i]
			if stock.Count() <= st.combo[i] {
				continue
			}
			sum := st.sum + int(stock.Denomination())
			if sum > amount {
				continue
			}

			next := make(Combination, n)
			copy(next, st.combo)
			next[i]++
			stack = append(stack, searchState{pos: i, combo: next, sum: sum})
		}
	}

	return nil, false
}

func (e *Engine) balance() int {
	total := 0
	for _, s := range e.stocks {
		total += s.Value()
	}
	return total
}
