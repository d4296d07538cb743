package detector

// localMinima returns every index i whose value is ≤ all values within
// radius order of i (out-of-range neighbors ignored). The comparison is
// inclusive, so plateaus of equal values are all flagged; this is a
// generalized extremum, not a strict one.
func localMinima(values []float64, order int) []int {
	return localExtrema(values, order, func(a, b float64) bool { return a <= b })
}

// localMaxima is the symmetric test with ≥.
func localMaxima(values []float64, order int) []int {
	return localExtrema(values, order, func(a, b float64) bool { return a >= b })
}

func localExtrema(values []float64, order int, beats func(a, b float64) bool) []int {
	var idxs []int
	for i := range values {
		lo := i - order
		if lo < 0 {
			lo = 0
		}
		hi := i + order
		if hi > len(values)-1 {
			hi = len(values) - 1
		}

		ok := true
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			if !beats(values[i], values[j]) {
				ok = false
				break
			}
		}
		if ok {
			idxs = append(idxs, i)
		}
	}
	return idxs
}
