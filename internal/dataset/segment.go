package dataset

import "fmt"

// FrameParams holds the frame segmentation parameters shared by every
// sequence in a partition.
type FrameParams struct {
	FrameLength      int // samples per frame
	Overlap          int // samples shared by consecutive frames
	FramesPerExample int // consecutive frames per training input
}

// Validate checks the parameter combination before any sequence is processed.
func (p FrameParams) Validate() error {
	if p.FrameLength <= 0 {
		return fmt.Errorf("frame_length must be positive, got %d", p.FrameLength)
	}
	if p.Overlap < 0 {
		return fmt.Errorf("overlap cannot be negative, got %d", p.Overlap)
	}
	if p.Overlap >= p.FrameLength {
		return fmt.Errorf("overlap (%d) must be smaller than frame_length (%d)", p.Overlap, p.FrameLength)
	}
	if p.FramesPerExample <= 0 {
		return fmt.Errorf("frames_per_example must be positive, got %d", p.FramesPerExample)
	}
	return nil
}

// FrameCount returns the number of full frames a sequence of the given length
// yields. Partial trailing windows are dropped; a sequence shorter than one
// frame yields none.
func FrameCount(length, frameLength, overlap int) int {
	if length < frameLength {
		return 0
	}
	return (length - overlap) / (frameLength - overlap)
}

// SegmentFrames slices samples into overlapping frames of exactly frameLength
// samples, advancing by frameLength-overlap between frames. Each frame is an
// independent copy; the input is not retained.
func SegmentFrames(samples []float64, frameLength, overlap int) [][]float64 {
	n := FrameCount(len(samples), frameLength, overlap)
	step := frameLength - overlap

	frames := make([][]float64, n)
	for i := 0; i < n; i++ {
		start := i * step
		frame := make([]float64, frameLength)
		copy(frame, samples[start:start+frameLength])
		frames[i] = frame
	}
	return frames
}

// segmentLabels is the int32 counterpart of SegmentFrames, used for the
// densified label and boundary streams. Frames here are transient views that
// feed the per-frame aggregators, so no copy is taken.
func segmentLabels(values []int32, frameLength, overlap int) [][]int32 {
	n := FrameCount(len(values), frameLength, overlap)
	step := frameLength - overlap

	frames := make([][]int32, n)
	for i := 0; i < n; i++ {
		start := i * step
		frames[i] = values[start : start+frameLength]
	}
	return frames
}

// MajorityLabel reduces a label frame to its most frequent value. Ties are
// broken toward the smallest value.
func MajorityLabel(frame []int32) int32 {
	counts := make(map[int32]int, 8)
	for _, v := range frame {
		counts[v]++
	}

	var best int32
	bestCount := 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best = v
			bestCount = c
		}
	}
	return best
}

// AnyBoundary reduces a boundary frame to 1 when any unit ends within it.
func AnyBoundary(frame []int32) int32 {
	for _, v := range frame {
		if v != 0 {
			return 1
		}
	}
	return 0
}
