package dataset

// UnitBoundaries derives the per-sample "unit just ended" indicator from a
// densified label array. boundaries[j] is 1 when the label changes between j
// and j+1. The final sample is always marked 1 so that every sequence ends on
// a declared boundary, whether or not the last unit changes value there.
func UnitBoundaries(labels []int32) []int32 {
	boundaries := make([]int32, len(labels))
	if len(labels) == 0 {
		return boundaries
	}

	for j := 0; j < len(labels)-1; j++ {
		if labels[j] != labels[j+1] {
			boundaries[j] = 1
		}
	}
	boundaries[len(labels)-1] = 1

	return boundaries
}
