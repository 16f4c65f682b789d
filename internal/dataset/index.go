package dataset

// WindowRef identifies one valid training window: the sequence it lives in
// and the offset of its first input frame. The frames at offsets
// [Offset, Offset+framesPerExample) form the input; the frame at
// Offset+framesPerExample is the prediction target.
type WindowRef struct {
	Sequence int
	Offset   int
}

// BuildVisitingOrder emits every valid window reference, sequence-major and
// offset-ascending within a sequence. A sequence needs framesPerExample+1
// frames to contribute at all; shorter sequences are skipped silently.
func BuildVisitingOrder(frameCounts []int, framesPerExample int) []WindowRef {
	total := 0
	for _, n := range frameCounts {
		if n > framesPerExample {
			total += n - framesPerExample
		}
	}

	order := make([]WindowRef, 0, total)
	for i, n := range frameCounts {
		for j := 0; j < n-framesPerExample; j++ {
			order = append(order, WindowRef{Sequence: i, Offset: j})
		}
	}
	return order
}
