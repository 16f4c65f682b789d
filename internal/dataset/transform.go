package dataset

import "fmt"

// SequenceSource is one raw recording plus its annotations, as supplied by
// the storage collaborator.
type SequenceSource struct {
	Samples  []float64
	Phonemes []Annotation
	Words    []Annotation
	Speaker  int
}

// FrameBundle is the segmented form of one sequence. All five derived series
// share the same frame count and offsets. OriginalLength records the
// pre-segmentation sample count for diagnostics; the raw samples themselves
// are not retained.
type FrameBundle struct {
	OriginalLength int
	Frames         [][]float64
	PhonemeLabels  []int32
	WordLabels     []int32
	PhonemeEnds    []int32
	WordEnds       []int32
	Speaker        int
}

// FrameCount returns the number of frames the sequence yielded.
func (b *FrameBundle) FrameCount() int {
	return len(b.Frames)
}

// transformSequence runs the full per-sequence pipeline: densify both
// annotation streams, derive unit boundaries, segment everything into aligned
// frames, and aggregate labels (majority vote) and boundaries (any-set).
// It is pure: independent invocations never share state.
func transformSequence(src SequenceSource, p FrameParams) (FrameBundle, error) {
	length := len(src.Samples)

	phonemes, err := DensifyLabels(length, src.Phonemes)
	if err != nil {
		return FrameBundle{}, fmt.Errorf("phoneme annotations: %w", err)
	}
	words, err := DensifyLabels(length, src.Words)
	if err != nil {
		return FrameBundle{}, fmt.Errorf("word annotations: %w", err)
	}

	phonemeEnds := UnitBoundaries(phonemes)
	wordEnds := UnitBoundaries(words)

	bundle := FrameBundle{
		OriginalLength: length,
		Frames:         SegmentFrames(src.Samples, p.FrameLength, p.Overlap),
		PhonemeLabels:  aggregateLabels(phonemes, p, MajorityLabel),
		WordLabels:     aggregateLabels(words, p, MajorityLabel),
		PhonemeEnds:    aggregateLabels(phonemeEnds, p, AnyBoundary),
		WordEnds:       aggregateLabels(wordEnds, p, AnyBoundary),
		Speaker:        src.Speaker,
	}

	return bundle, nil
}

// aggregateLabels segments a per-sample stream and reduces every frame to a
// single value with the given aggregator.
func aggregateLabels(values []int32, p FrameParams, reduce func([]int32) int32) []int32 {
	frames := segmentLabels(values, p.FrameLength, p.Overlap)
	out := make([]int32, len(frames))
	for i, frame := range frames {
		out[i] = reduce(frame)
	}
	return out
}
