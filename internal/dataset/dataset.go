package dataset

import (
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/speechlab/timit-frames/internal/metrics"
)

// ValidSets lists the recognized partition names.
var ValidSets = []string{"train", "valid", "test"}

// defaultSeed folds the historical (17, 2, 946) seed triple into one value.
var defaultSeed = int64(17)<<20 | int64(2)<<10 | int64(946)

// Corpus is one loaded partition: every sequence with its annotations, plus
// the vocabulary and speaker metadata tables shared across the partition.
type Corpus struct {
	Sequences []SequenceSource

	PhonemeVocab        []string
	WordVocab           []string
	SpeakerIDs          []string
	SpeakerFeatureNames []string
	SpeakerInfo         [][]float64
}

// Source supplies a partition's corpus by name. The storage layer implements
// it over the on-disk layout; tests implement it in memory.
type Source interface {
	Load(which string) (*Corpus, error)
}

// DataSpecs declares the fixed shape contract consumed by a training loop:
// feature and target widths plus the two-component schema naming them.
type DataSpecs struct {
	FeatureDim int
	TargetDim  int
	Sources    [2]string
}

// Config is the construction-time configuration of a dataset build.
type Config struct {
	Which  string      // "train", "valid" or "test"
	Params FrameParams // frame segmentation parameters

	// Workers bounds the per-sequence transform concurrency; 0 means one
	// worker per CPU.
	Workers int

	// RNG is the generator handed to the downstream minibatch sampler. The
	// transform itself never draws from it. Nil selects the default seed.
	RNG *rand.Rand
}

// Dataset is a fully built partition: segmented frames, aggregated labels,
// the flat visiting order, and the shape contract. All fields are computed
// once at construction and read-only afterward.
type Dataset struct {
	Which   string
	Params  FrameParams
	Bundles []FrameBundle

	// VisitingOrder is the sole index used by downstream iteration.
	VisitingOrder []WindowRef

	Specs DataSpecs

	PhonemeVocab        []string
	WordVocab           []string
	SpeakerIDs          []string
	SpeakerFeatureNames []string
	speakerInfo         [][]float64

	rng *rand.Rand
}

// New builds a dataset partition. Configuration errors surface before any
// sequence is touched; a failure on any single sequence aborts the whole
// build. m may be nil when metrics are disabled.
func New(logger *slog.Logger, src Source, cfg Config, m *metrics.Metrics) (*Dataset, error) {
	if !validSet(cfg.Which) {
		return nil, fmt.Errorf("%q is not a recognized value, valid values are [\"train\", \"valid\", \"test\"]", cfg.Which)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("frame parameters: %w", err)
	}

	start := time.Now()

	corpus, err := src.Load(cfg.Which)
	if err != nil {
		return nil, fmt.Errorf("loading %s partition: %w", cfg.Which, err)
	}

	logger.Info("Partition loaded",
		slog.String("which_set", cfg.Which),
		slog.Int("sequences", len(corpus.Sequences)),
		slog.Int("phoneme_vocab", len(corpus.PhonemeVocab)),
		slog.Int("word_vocab", len(corpus.WordVocab)),
	)

	bundles, err := transformAll(corpus.Sequences, cfg.Params, cfg.Workers, m)
	if err != nil {
		return nil, err
	}

	frameCounts := make([]int, len(bundles))
	totalFrames := 0
	dropped := 0
	for i := range bundles {
		frameCounts[i] = bundles[i].FrameCount()
		totalFrames += frameCounts[i]
		if frameCounts[i] <= cfg.Params.FramesPerExample {
			dropped++
		}
	}

	order := BuildVisitingOrder(frameCounts, cfg.Params.FramesPerExample)

	if m != nil {
		m.RecordBuild(cfg.Which, time.Since(start).Seconds(), len(order))
		m.RecordShortSequences(dropped)
	}

	logger.Info("Dataset built",
		slog.String("which_set", cfg.Which),
		slog.Int("sequences", len(bundles)),
		slog.Int("frames", totalFrames),
		slog.Int("examples", len(order)),
		slog.Int("short_sequences", dropped),
		slog.Duration("elapsed", time.Since(start)),
	)

	rng := cfg.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(defaultSeed))
	}

	return &Dataset{
		Which:         cfg.Which,
		Params:        cfg.Params,
		Bundles:       bundles,
		VisitingOrder: order,
		Specs: DataSpecs{
			FeatureDim: cfg.Params.FrameLength * cfg.Params.FramesPerExample,
			TargetDim:  cfg.Params.FrameLength,
			Sources:    [2]string{"features", "targets"},
		},
		PhonemeVocab:        corpus.PhonemeVocab,
		WordVocab:           corpus.WordVocab,
		SpeakerIDs:          corpus.SpeakerIDs,
		SpeakerFeatureNames: corpus.SpeakerFeatureNames,
		speakerInfo:         corpus.SpeakerInfo,
		rng:                 rng,
	}, nil
}

// transformAll runs the per-sequence transform across a bounded worker pool
// and merges results by sequence index, preserving the sequence-major
// ordering the visiting order depends on. The first error wins and aborts
// remaining work.
func transformAll(seqs []SequenceSource, p FrameParams, workers int, m *metrics.Metrics) ([]FrameBundle, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(seqs) {
		workers = len(seqs)
	}

	bundles := make([]FrameBundle, len(seqs))

	var (
		wg       sync.WaitGroup
		failed   atomic.Bool
		once     sync.Once
		firstErr error
	)

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if failed.Load() {
					continue
				}

				start := time.Now()
				bundle, err := transformSequence(seqs[i], p)
				if err != nil {
					once.Do(func() {
						firstErr = fmt.Errorf("sequence %d: %w", i, err)
						failed.Store(true)
					})
					continue
				}
				bundles[i] = bundle

				if m != nil {
					m.RecordSequence(bundle.FrameCount(), time.Since(start).Seconds())
				}
			}
		}()
	}

	for i := range seqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return bundles, nil
}

// NumExamples returns the number of valid training windows in the partition.
func (d *Dataset) NumExamples() int {
	return len(d.VisitingOrder)
}

// RNG returns the generator reserved for the downstream minibatch sampler.
func (d *Dataset) RNG() *rand.Rand {
	return d.rng
}

// SpeakerInfo returns the metadata feature row for the speaker of the given
// sequence. The row is consumed by downstream components without further
// transformation here.
func (d *Dataset) SpeakerInfo(sequence int) ([]float64, error) {
	if sequence < 0 || sequence >= len(d.Bundles) {
		return nil, fmt.Errorf("sequence index %d out of range [0, %d)", sequence, len(d.Bundles))
	}
	speaker := d.Bundles[sequence].Speaker
	if speaker < 0 || speaker >= len(d.speakerInfo) {
		return nil, fmt.Errorf("sequence %d references unknown speaker %d", sequence, speaker)
	}
	return d.speakerInfo[speaker], nil
}

func validSet(which string) bool {
	for _, s := range ValidSets {
		if which == s {
			return true
		}
	}
	return false
}
