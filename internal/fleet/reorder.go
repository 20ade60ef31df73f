package fleet

import "slices"

// Reorder moves the selected entries within an ordered address list.
// All functions are pure: they return a new slice and never fail. A move
// with nothing eligible to move returns the order unchanged; rejecting
// such calls up front is the dispatcher's job.
//
// The guarantee throughout: entries never reorder relative to each other
// except as the move itself requires. Selected entries keep their
// relative order, and so do unselected ones.

// MoveTop extracts the selected entries as a contiguous block at the
// front, unselected entries follow in their original order.
func MoveTop(order []string, selected map[string]bool) []string {
	result := make([]string, 0, len(order))
	for _, a := range order {
		if selected[a] {
			result = append(result, a)
		}
	}
	for _, a := range order {
		if !selected[a] {
			result = append(result, a)
		}
	}
	return result
}

// MoveBottom places the selected block at the end
func MoveBottom(order []string, selected map[string]bool) []string {
	result := make([]string, 0, len(order))
	for _, a := range order {
		if !selected[a] {
			result = append(result, a)
		}
	}
	for _, a := range order {
		if selected[a] {
			result = append(result, a)
		}
	}
	return result
}

// MoveUp shifts each maximal contiguous run of selected entries up by
// one position, swapping with the single unselected entry immediately
// before the run. A run already at the top does not move.
func MoveUp(order []string, selected map[string]bool) []string {
	result := slices.Clone(order)
	i := 0
	for i < len(result) {
		if !selected[result[i]] {
			i++
			continue
		}
		// run of selected entries [i, j)
		j := i
		for j < len(result) && selected[result[j]] {
			j++
		}
		if i > 0 {
			// predecessor is unselected by run maximality
			prev := result[i-1]
			copy(result[i-1:j-1], result[i:j])
			result[j-1] = prev
		}
		i = j
	}
	return result
}

// MoveDown is symmetric to MoveUp: runs step toward the end, processed
// right to left so a displaced entry is never stepped over twice.
func MoveDown(order []string, selected map[string]bool) []string {
	result := slices.Clone(order)
	j := len(result)
	for j > 0 {
		if !selected[result[j-1]] {
			j--
			continue
		}
		// run of selected entries [i, j)
		i := j
		for i > 0 && selected[result[i-1]] {
			i--
		}
		if j < len(result) {
			next := result[j]
			copy(result[i+1:j+1], result[i:j])
			result[i] = next
		}
		j = i
	}
	return result
}
