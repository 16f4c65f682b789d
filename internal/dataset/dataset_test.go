package dataset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource serves a fixed corpus from memory.
type memSource struct {
	corpus *Corpus
	err    error
}

func (s memSource) Load(which string) (*Corpus, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.corpus, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCorpus(lengths ...int) *Corpus {
	c := &Corpus{
		PhonemeVocab:        []string{"aa", "ae", "ah"},
		WordVocab:           []string{"she", "had"},
		SpeakerIDs:          []string{"cjf0", "dab0"},
		SpeakerFeatureNames: []string{"sex", "dialect"},
		SpeakerInfo:         [][]float64{{0, 1}, {1, 3}},
	}
	for i, l := range lengths {
		samples := make([]float64, l)
		for j := range samples {
			samples[j] = float64(i*1000 + j)
		}
		src := SequenceSource{Samples: samples, Speaker: i % 2}
		if l >= 10 {
			src.Phonemes = []Annotation{{Start: 0, End: l / 2, Unit: 1}}
			src.Words = []Annotation{{Start: 0, End: l, Unit: 0}}
		}
		c.Sequences = append(c.Sequences, src)
	}
	return c
}

func TestNewInvalidWhichSet(t *testing.T) {
	_, err := New(testLogger(), memSource{corpus: testCorpus(100)}, Config{
		Which:  "validation",
		Params: FrameParams{FrameLength: 20, Overlap: 10, FramesPerExample: 1},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"validation" is not a recognized value`)
}

func TestNewInvalidFrameParams(t *testing.T) {
	src := memSource{corpus: testCorpus(100)}
	_, err := New(testLogger(), src, Config{
		Which:  "train",
		Params: FrameParams{FrameLength: 20, Overlap: 20, FramesPerExample: 1},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame parameters")
}

func TestNewLoadFailure(t *testing.T) {
	src := memSource{err: errors.New("missing file")}
	_, err := New(testLogger(), src, Config{
		Which:  "test",
		Params: FrameParams{FrameLength: 20, Overlap: 0, FramesPerExample: 1},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading test partition")
}

func TestNewBuildsSpecsAndIndex(t *testing.T) {
	src := memSource{corpus: testCorpus(100, 5, 60)}
	ds, err := New(testLogger(), src, Config{
		Which:  "valid",
		Params: FrameParams{FrameLength: 20, Overlap: 10, FramesPerExample: 4},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 80, ds.Specs.FeatureDim) // 20 * 4
	assert.Equal(t, 20, ds.Specs.TargetDim)
	assert.Equal(t, [2]string{"features", "targets"}, ds.Specs.Sources)

	// Sequence 0: 9 frames -> offsets 0..4. Sequence 1: too short for a
	// single frame, silently excluded. Sequence 2: 5 frames -> offset 0.
	require.Len(t, ds.Bundles, 3)
	assert.Equal(t, 9, ds.Bundles[0].FrameCount())
	assert.Equal(t, 0, ds.Bundles[1].FrameCount())
	assert.Equal(t, 5, ds.Bundles[2].FrameCount())

	want := []WindowRef{
		{Sequence: 0, Offset: 0},
		{Sequence: 0, Offset: 1},
		{Sequence: 0, Offset: 2},
		{Sequence: 0, Offset: 3},
		{Sequence: 0, Offset: 4},
		{Sequence: 2, Offset: 0},
	}
	assert.Equal(t, want, ds.VisitingOrder)
	assert.Equal(t, 6, ds.NumExamples())
}

func TestNewMergesByIndexAcrossWorkers(t *testing.T) {
	// Many sequences of distinct lengths; bundles must land at their own
	// sequence index no matter which worker processed them.
	lengths := make([]int, 64)
	for i := range lengths {
		lengths[i] = 30 + 10*i
	}
	src := memSource{corpus: testCorpus(lengths...)}

	ds, err := New(testLogger(), src, Config{
		Which:   "train",
		Params:  FrameParams{FrameLength: 10, Overlap: 0, FramesPerExample: 1},
		Workers: 8,
	}, nil)
	require.NoError(t, err)

	for i, bundle := range ds.Bundles {
		assert.Equal(t, lengths[i], bundle.OriginalLength, "sequence %d", i)
		assert.Equal(t, lengths[i]/10, bundle.FrameCount(), "sequence %d", i)
		// First sample of the first frame identifies the sequence.
		require.NotEmpty(t, bundle.Frames)
		assert.Equal(t, float64(i*1000), bundle.Frames[0][0], "sequence %d", i)
	}
}

func TestNewFailFastOnBadSequence(t *testing.T) {
	corpus := testCorpus(100, 100, 100)
	corpus.Sequences[1].Phonemes = []Annotation{{Start: 90, End: 120, Unit: 0}}
	src := memSource{corpus: corpus}

	_, err := New(testLogger(), src, Config{
		Which:  "train",
		Params: FrameParams{FrameLength: 20, Overlap: 0, FramesPerExample: 1},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence 1")
}

func TestNewForwardsRNG(t *testing.T) {
	src := memSource{corpus: testCorpus(100)}
	cfg := Config{
		Which:  "train",
		Params: FrameParams{FrameLength: 20, Overlap: 0, FramesPerExample: 1},
	}

	rng := rand.New(rand.NewSource(42))
	cfg.RNG = rng
	ds, err := New(testLogger(), src, cfg, nil)
	require.NoError(t, err)
	assert.Same(t, rng, ds.RNG())

	// Nil selects the default seed, deterministically.
	cfg.RNG = nil
	first, err := New(testLogger(), src, cfg, nil)
	require.NoError(t, err)
	second, err := New(testLogger(), src, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, first.RNG().Int63(), second.RNG().Int63())
}

func TestSpeakerInfoPassthrough(t *testing.T) {
	src := memSource{corpus: testCorpus(100, 60)}
	ds, err := New(testLogger(), src, Config{
		Which:  "train",
		Params: FrameParams{FrameLength: 20, Overlap: 0, FramesPerExample: 1},
	}, nil)
	require.NoError(t, err)

	info, err := ds.SpeakerInfo(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, info)

	_, err = ds.SpeakerInfo(5)
	require.Error(t, err)
}

func TestValidSetsNamed(t *testing.T) {
	for _, which := range ValidSets {
		t.Run(which, func(t *testing.T) {
			src := memSource{corpus: testCorpus(50)}
			_, err := New(testLogger(), src, Config{
				Which:  which,
				Params: FrameParams{FrameLength: 10, Overlap: 0, FramesPerExample: 1},
			}, nil)
			assert.NoError(t, err, fmt.Sprintf("set %q should be accepted", which))
		})
	}
}
