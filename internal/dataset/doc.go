// Package dataset implements the TIMIT frame-dataset transform pipeline.
// It expands interval annotations into dense per-sample label streams, derives
// unit-boundary indicators, segments sequences into fixed-length overlapping
// frames with per-frame label aggregation, and builds the flat visiting order
// over valid training windows.
package dataset
