package alphabet

import "sort"

// SortedNormalized turns a raw 256-length count vector into a sorted,
// descending, L1-normalized distribution: the common shape every
// frequency vector needs, whether it came from alphabet weights or unit
// counts tallied from a message buffer. Sorting first means two
// alphabets with the same letter distribution but different code
// assignments still compare equal.
func SortedNormalized(counts []float64) []float64 {
	out := make([]float64, Size)
	copy(out, counts)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
