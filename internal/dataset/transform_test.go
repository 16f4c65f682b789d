package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformSequenceEndToEnd(t *testing.T) {
	// 100 samples, one phoneme annotation (10, 50, 3), frame_length=20,
	// overlap=10.
	src := SequenceSource{
		Samples:  make([]float64, 100),
		Phonemes: []Annotation{{Start: 10, End: 50, Unit: 3}},
		Speaker:  2,
	}
	params := FrameParams{FrameLength: 20, Overlap: 10, FramesPerExample: 1}

	bundle, err := transformSequence(src, params)
	require.NoError(t, err)

	assert.Equal(t, 100, bundle.OriginalLength)
	assert.Equal(t, 2, bundle.Speaker)
	require.Equal(t, 9, bundle.FrameCount()) // (100-10)/10

	// Frame 0 covers [0,20): ten 0s and ten 4s, tie broken to 0. Frames
	// 1-3 sit fully or mostly inside the annotation; frame 4 ties again.
	assert.Equal(t, []int32{0, 4, 4, 4, 0, 0, 0, 0, 0}, bundle.PhonemeLabels)

	// Per-sample boundaries at 9, 49 and the forced 99: frame 0 holds
	// index 9, frames 3 and 4 share index 49, frame 8 holds index 99.
	assert.Equal(t, []int32{1, 0, 0, 1, 1, 0, 0, 0, 1}, bundle.PhonemeEnds)

	// No word annotations: labels all 0, only the forced terminal boundary.
	assert.Equal(t, []int32{0, 0, 0, 0, 0, 0, 0, 0, 0}, bundle.WordLabels)
	assert.Equal(t, []int32{0, 0, 0, 0, 0, 0, 0, 0, 1}, bundle.WordEnds)
}

func TestTransformSequenceAlignment(t *testing.T) {
	src := SequenceSource{
		Samples: make([]float64, 237),
		Phonemes: []Annotation{
			{Start: 0, End: 100, Unit: 0},
			{Start: 100, End: 237, Unit: 5},
		},
		Words: []Annotation{{Start: 20, End: 200, Unit: 1}},
	}
	params := FrameParams{FrameLength: 16, Overlap: 4, FramesPerExample: 1}

	bundle, err := transformSequence(src, params)
	require.NoError(t, err)

	// All five derived series share the same frame count.
	n := bundle.FrameCount()
	assert.Equal(t, FrameCount(237, 16, 4), n)
	assert.Len(t, bundle.PhonemeLabels, n)
	assert.Len(t, bundle.WordLabels, n)
	assert.Len(t, bundle.PhonemeEnds, n)
	assert.Len(t, bundle.WordEnds, n)
	for i, frame := range bundle.Frames {
		assert.Len(t, frame, 16, "frame %d", i)
	}
}

func TestTransformSequenceForcedTerminalAggregated(t *testing.T) {
	// With overlap 0 the last frame always contains the final sample, so
	// the aggregated boundary series must end in 1.
	src := SequenceSource{
		Samples:  make([]float64, 60),
		Phonemes: []Annotation{{Start: 0, End: 60, Unit: 0}},
	}
	bundle, err := transformSequence(src, FrameParams{FrameLength: 20, Overlap: 0, FramesPerExample: 1})
	require.NoError(t, err)

	require.Equal(t, 3, bundle.FrameCount())
	assert.Equal(t, int32(1), bundle.PhonemeEnds[2])
	assert.Equal(t, int32(1), bundle.WordEnds[2])
}

func TestTransformSequenceBadAnnotation(t *testing.T) {
	src := SequenceSource{
		Samples:  make([]float64, 50),
		Phonemes: []Annotation{{Start: 40, End: 60, Unit: 0}},
	}
	_, err := transformSequence(src, FrameParams{FrameLength: 10, Overlap: 0, FramesPerExample: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phoneme annotations")
}

func TestTransformSequenceShort(t *testing.T) {
	src := SequenceSource{Samples: make([]float64, 7)}
	bundle, err := transformSequence(src, FrameParams{FrameLength: 10, Overlap: 0, FramesPerExample: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, bundle.FrameCount())
	assert.Equal(t, 7, bundle.OriginalLength)
}
