package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speechlab/timit-frames/internal/audio"
	"github.com/speechlab/timit-frames/internal/config"
	"github.com/speechlab/timit-frames/internal/dataset"
	"github.com/speechlab/timit-frames/internal/metrics"
	"github.com/speechlab/timit-frames/internal/storage"
)

const (
	defaultConfigPath = "configs/config.yaml"
	toolName          = "timitprep"
	toolVersion       = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	whichSet := flag.String("set", "train", "Partition to build: train, valid or test")
	seed := flag.Int64("seed", 0, "Minibatch sampler seed (0 uses the built-in default)")
	ingestDir := flag.String("ingest", "", "Raw corpus directory to convert before building (dr<N>/<speaker>/*.wav layout)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Builder starting",
		slog.String("tool", toolName),
		slog.String("version", toolVersion),
		slog.String("config_path", *configPath),
		slog.String("which_set", *whichSet),
	)

	logger.Info("Configuration loaded",
		slog.String("base_path", cfg.Data.BasePath),
		slog.Int("frame_length", cfg.Dataset.FrameLength),
		slog.Int("overlap", cfg.Dataset.Overlap),
		slog.Int("frames_per_example", cfg.Dataset.FramesPerExample),
		slog.Int("workers", cfg.Pipeline.Workers),
		slog.String("log_level", cfg.Logging.Level),
	)

	var appMetrics *metrics.Metrics
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		appMetrics = metrics.NewMetrics()
		metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: promhttp.Handler()}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", slog.String("error", err.Error()))
			}
		}()
		logger.Info("Prometheus metrics initialized", slog.String("listen", cfg.Metrics.Listen))
	}

	store, err := storage.NewStore(cfg.Data.BasePath)
	if err != nil {
		logger.Error("Failed to open data directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *ingestDir != "" {
		if err := ingestPartition(logger, store, *whichSet, *ingestDir); err != nil {
			logger.Error("Raw corpus ingest failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	}

	ds, err := dataset.New(logger, store, dataset.Config{
		Which: *whichSet,
		Params: dataset.FrameParams{
			FrameLength:      cfg.Dataset.FrameLength,
			Overlap:          cfg.Dataset.Overlap,
			FramesPerExample: cfg.Dataset.FramesPerExample,
		},
		Workers: cfg.Pipeline.Workers,
		RNG:     rng,
	}, appMetrics)
	if err != nil {
		logger.Error("Dataset build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Final dataset shape",
		slog.String("which_set", ds.Which),
		slog.Int("sequences", len(ds.Bundles)),
		slog.Int("examples", ds.NumExamples()),
		slog.Int("feature_dim", ds.Specs.FeatureDim),
		slog.Int("target_dim", ds.Specs.TargetDim),
		slog.String("sources", fmt.Sprintf("%v", ds.Specs.Sources)),
	)

	if metricsSrv != nil {
		if err := metricsSrv.Close(); err != nil {
			logger.Error("Error stopping metrics server", slog.String("error", err.Error()))
		}
	}

	logger.Info("Builder finished")
}

// ingestPartition converts a raw corpus partition (WAV recordings with
// sibling .phn and .wrd annotation files) into the stored array layout
// that the dataset builder reads.
func ingestPartition(logger *slog.Logger, store *storage.Store, which, dir string) error {
	var wavPaths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".wav") {
			wavPaths = append(wavPaths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(wavPaths) == 0 {
		return fmt.Errorf("no WAV recordings found under %s", dir)
	}

	logger.Info("Ingesting raw corpus",
		slog.String("which_set", which),
		slog.String("dir", dir),
		slog.Int("recordings", len(wavPaths)),
	)

	utts := make([]audio.Utterance, 0, len(wavPaths))
	for _, path := range wavPaths {
		utt, err := audio.ReadUtterance(path)
		if err != nil {
			return err
		}
		utts = append(utts, utt)
	}

	corpus, err := audio.BuildCorpus(utts)
	if err != nil {
		return err
	}
	if err := store.Save(which, corpus); err != nil {
		return err
	}

	logger.Info("Raw corpus ingested",
		slog.String("which_set", which),
		slog.Int("sequences", len(corpus.Sequences)),
		slog.Int("phonemes", len(corpus.PhonemeVocab)),
		slog.Int("words", len(corpus.WordVocab)),
		slog.Int("speakers", len(corpus.SpeakerIDs)),
	)
	return nil
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth the noise when debugging.
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
