package vdom

// Sequence returns the positions of a longest strictly increasing
// subsequence of arr, ignoring zero entries. Positions are ascending.
//
// The reconciler passes, for each slot of the new child range, one plus the
// index of the matched old child (zero when the slot is new). Children at
// the returned positions keep their relative order and are not moved.
//
// It runs in O(n log n): tails[k] holds the position ending the best
// subsequence of length k+1 found so far and prev links each position to
// its predecessor.
func Sequence(arr []int) []int {
	prev := make([]int, len(arr))
	tails := make([]int, 0, len(arr))

	for i, v := range arr {
		if v == 0 {
			continue
		}
		if n := len(tails); n == 0 || arr[tails[n-1]] < v {
			if n > 0 {
				prev[i] = tails[n-1]
			}
			tails = append(tails, i)
			continue
		}

		// First tail whose value is >= v.
		lo, hi := 0, len(tails)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if arr[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if v < arr[tails[lo]] {
			if lo > 0 {
				prev[i] = tails[lo-1]
			}
			tails[lo] = i
		}
	}

	n := len(tails)
	if n == 0 {
		return nil
	}
	last := tails[n-1]
	for k := n - 1; k >= 0; k-- {
		tails[k] = last
		last = prev[last]
	}
	return tails
}
