package util

// GridSize returns the product of the axis lengths, guarding against integer
// overflow. ok is false when any axis is empty or the product overflows; the
// caller treats both as an invalid grid.
func GridSize(sizes []int) (total int, ok bool) {
	if len(sizes) == 0 {
		return 0, false
	}
	total = 1
	for _, n := range sizes {
		if n <= 0 {
			return 0, false
		}
		if total > (1<<62)/n {
			return 0, false
		}
		total *= n
	}
	return total, true
}

// Advance increments idx one step through a row-major traversal of the grid
// described by sizes: the last axis varies fastest. It returns false once idx
// wraps past the final combination.
func Advance(idx, sizes []int) bool {
	for axis := len(idx) - 1; axis >= 0; axis-- {
		idx[axis]++
		if idx[axis] < sizes[axis] {
			return true
		}
		idx[axis] = 0
	}
	return false
}
