// Package config provides configuration loading and validation for the TIMIT
// frame-dataset builder. It handles YAML-based configuration with per-section
// struct validation covering the data layout, frame parameters, pipeline
// concurrency, metrics exposition and logging.
package config
