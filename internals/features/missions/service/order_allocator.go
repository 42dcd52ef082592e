package service

// AllocateOrder finds a free order number by first-fit ascending probe.
// With no requested number the candidate is max(used)+1 (1 for an empty
// store). The probe only moves upward, so users see numbers skip
// deterministically past taken slots.
func AllocateOrder(requested *int, used []int) int {
	taken := make(map[int]struct{}, len(used))
	max := 0
	for _, n := range used {
		taken[n] = struct{}{}
		if n > max {
			max = n
		}
	}

	candidate := max + 1
	if requested != nil && *requested > 0 {
		candidate = *requested
	}

	for {
		if _, inUse := taken[candidate]; !inUse {
			return candidate
		}
		candidate++
	}
}
