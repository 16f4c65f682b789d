// Package storage reads and writes the prepared TIMIT partition layout: NumPy
// arrays for samples, interval tables and speaker metadata, plus
// newline-delimited vocabulary lists. Variable-length data is stored flat with
// (start, end) range companions, the same convention the interval tables use;
// all arrays are one-dimensional on disk.
package storage
