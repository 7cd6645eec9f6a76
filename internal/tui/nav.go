package tui

import "slices"

// step returns the entry after current in items, walking items in reverse
// when moving backward. An unknown current or the end of the list keeps
// current; there is no wrapping.
func step(items []string, current string, forward bool) string {
	order := items
	if !forward {
		order = slices.Clone(items)
		slices.Reverse(order)
	}
	i := slices.Index(order, current)
	if i < 0 || i+1 >= len(order) {
		return current
	}
	return order[i+1]
}
