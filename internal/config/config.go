package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete builder configuration.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig locates the prepared TIMIT data directory.
type DataConfig struct {
	BasePath string `yaml:"base_path"`
}

// DatasetConfig contains the frame segmentation parameters.
type DatasetConfig struct {
	FrameLength      int `yaml:"frame_length"`       // samples per frame
	Overlap          int `yaml:"overlap"`            // samples shared by consecutive frames
	FramesPerExample int `yaml:"frames_per_example"` // frames per training input
}

// PipelineConfig contains transform concurrency settings.
type PipelineConfig struct {
	Workers int `yaml:"workers"` // 0 means one worker per CPU
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs validation of the full configuration.
func (c *Config) Validate() error {
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data config: %w", err)
	}

	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates the data section.
func (d *DataConfig) Validate() error {
	if d.BasePath == "" {
		return fmt.Errorf("base_path cannot be empty")
	}

	return nil
}

// Validate validates the dataset section.
func (d *DatasetConfig) Validate() error {
	if d.FrameLength < 1 {
		return fmt.Errorf("frame_length must be positive, got %d", d.FrameLength)
	}

	if d.Overlap < 0 {
		return fmt.Errorf("overlap cannot be negative, got %d", d.Overlap)
	}

	if d.Overlap >= d.FrameLength {
		return fmt.Errorf("overlap (%d) must be smaller than frame_length (%d)", d.Overlap, d.FrameLength)
	}

	if d.FramesPerExample < 1 {
		return fmt.Errorf("frames_per_example must be positive, got %d", d.FramesPerExample)
	}

	return nil
}

// Validate validates the pipeline section.
func (p *PipelineConfig) Validate() error {
	if p.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", p.Workers)
	}

	return nil
}

// Validate validates the metrics section.
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Listen == "" {
		return fmt.Errorf("listen cannot be empty when metrics are enabled")
	}

	return nil
}

// Validate validates the logging section.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output accepts stdout, stderr, or a file path; nothing to reject here.
	return nil
}
